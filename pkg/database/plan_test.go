package database

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingStep(name string, calls *[]string, err error) Step {
	return Step{
		Name: name,
		Run: func(_ context.Context) error {
			*calls = append(*calls, name)
			return err
		},
	}
}

func TestPlanRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("runs every step in order", func(t *testing.T) {
		var calls []string
		plan := &Plan{Name: "delete user", Steps: []Step{
			recordingStep("reading_statuses", &calls, nil),
			recordingStep("books", &calls, nil),
			recordingStep("users", &calls, nil),
		}}

		require.NoError(t, plan.Run(ctx))
		assert.Equal(t, []string{"reading_statuses", "books", "users"}, calls)
	})

	t.Run("first step failure returns the cause", func(t *testing.T) {
		var calls []string
		cause := errors.New("connection reset")
		plan := &Plan{Name: "delete user", Steps: []Step{
			recordingStep("reading_statuses", &calls, cause),
			recordingStep("books", &calls, nil),
		}}

		err := plan.Run(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)

		var perr *PartialCascadeError
		assert.False(t, errors.As(err, &perr))
		assert.Equal(t, []string{"reading_statuses"}, calls)
	})

	t.Run("later failure stops the plan and reports progress", func(t *testing.T) {
		var calls []string
		cause := errors.New("connection reset")
		plan := &Plan{Name: "delete user", Steps: []Step{
			recordingStep("reading_statuses", &calls, nil),
			recordingStep("books", &calls, cause),
			recordingStep("users", &calls, nil),
		}}

		err := plan.Run(ctx)
		require.Error(t, err)

		var perr *PartialCascadeError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "books", perr.Failed)
		assert.Equal(t, []string{"reading_statuses"}, perr.Completed)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), `step "books" failed after [reading_statuses]`)
		assert.Equal(t, []string{"reading_statuses", "books"}, calls)
	})
}
