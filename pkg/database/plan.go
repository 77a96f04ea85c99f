package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// Step is a single idempotent statement of a Plan. Running a step that has
// already been applied must succeed and change nothing.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Plan is an ordered, non-transactional sequence of steps. Dependent rows come
// first and the parent row comes last, so a plan that stopped half way can be
// run again from the top to finish the job.
type Plan struct {
	Name  string
	Steps []Step
}

// PartialCascadeError is returned when a step fails after earlier steps were
// already applied.
type PartialCascadeError struct {
	Plan      string
	Failed    string
	Completed []string
	Err       error
}

func (e *PartialCascadeError) Error() string {
	return fmt.Sprintf("%s: step %q failed after [%s]: %v", e.Plan, e.Failed, strings.Join(e.Completed, ", "), e.Err)
}

func (e *PartialCascadeError) Unwrap() error {
	return e.Err
}

// Run executes the steps in order and stops at the first failure. A failure in
// the first step is returned as is since nothing was applied.
func (p *Plan) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	completed := make([]string, 0, len(p.Steps))
	for _, step := range p.Steps {
		if err := step.Run(ctx); err != nil {
			if len(completed) == 0 {
				return errors.WithStack(err)
			}
			log.Err(err).Error("cascade stopped part way", logger.Data{
				"plan":      p.Name,
				"failed":    step.Name,
				"completed": completed,
			})
			return &PartialCascadeError{
				Plan:      p.Name,
				Failed:    step.Name,
				Completed: completed,
				Err:       err,
			}
		}
		completed = append(completed, step.Name)
	}

	return nil
}

// DeleteStep builds a step that deletes every row of model's table matching
// the where clause.
func DeleteStep(db bun.IDB, name string, model interface{}, where string, args ...interface{}) Step {
	return Step{
		Name: name,
		Run: func(ctx context.Context) error {
			_, err := db.NewDelete().
				Model(model).
				Where(where, args...).
				Exec(ctx)
			return errors.WithStack(err)
		},
	}
}
