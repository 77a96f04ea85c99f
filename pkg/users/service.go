package users

import (
	"context"
	"time"

	"github.com/hondana/hondana/pkg/database"
	"github.com/hondana/hondana/pkg/errcodes"
	"github.com/hondana/hondana/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// Service handles local user records.
type Service struct {
	db  bun.IDB
	now func() time.Time
}

// NewService creates a new users service.
func NewService(db bun.IDB) *Service {
	return &Service{db: db, now: time.Now}
}

type CreateUserOptions struct {
	ExternalID string
	Email      string
	Username   string
}

// Create inserts a new local user. An existing user with the same external id
// is reported as a duplicate; any other unique clash (the email belongs to a
// different account) is a conflict.
func (svc *Service) Create(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	if opts.Email == "" {
		return nil, errcodes.MissingEmail()
	}
	username := opts.Username
	if username == "" {
		username = models.DefaultUsername(opts.Email)
	}

	now := svc.now()
	user := &models.User{
		ID:         models.NewID(),
		CreatedAt:  now,
		UpdatedAt:  now,
		ExternalID: opts.ExternalID,
		Email:      opts.Email,
		Username:   username,
	}

	_, err := svc.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, errors.WithStack(err)
		}
		exists, existsErr := svc.db.NewSelect().
			Model((*models.User)(nil)).
			Where("external_id = ?", opts.ExternalID).
			Exists(ctx)
		if existsErr != nil {
			return nil, errors.WithStack(existsErr)
		}
		if exists {
			return nil, errcodes.DuplicateUser(opts.ExternalID)
		}
		return nil, errcodes.Conflict("User")
	}

	return user, nil
}

type RetrieveUserOptions struct {
	ID         *string
	ExternalID *string
}

func (svc *Service) Retrieve(ctx context.Context, opts RetrieveUserOptions) (*models.User, error) {
	user := &models.User{}

	q := svc.db.NewSelect().Model(user)
	if opts.ID != nil {
		q = q.Where("u.id = ?", *opts.ID)
	}
	if opts.ExternalID != nil {
		q = q.Where("u.external_id = ?", *opts.ExternalID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}

	return user, nil
}

type UpdateUserOptions struct {
	Email    string
	Username string
}

// UpdateByExternalID overwrites the email and username of the user with the
// given external id. It reports whether a user matched; no match isn't an
// error.
func (svc *Service) UpdateByExternalID(ctx context.Context, externalID string, opts UpdateUserOptions) (bool, error) {
	if opts.Email == "" {
		return false, errcodes.MissingEmail()
	}
	username := opts.Username
	if username == "" {
		username = models.DefaultUsername(opts.Email)
	}

	res, err := svc.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("email = ?", opts.Email).
		Set("username = ?", username).
		Set("updated_at = ?", svc.now()).
		Where("external_id = ?", externalID).
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return false, errcodes.Conflict("User")
		}
		return false, errors.WithStack(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.WithStack(err)
	}
	return affected > 0, nil
}

// EnsureUser returns the local user for an identity-provider account,
// creating it when the account hasn't been mirrored yet. It's safe to call
// concurrently with the webhook that creates the same user.
func (svc *Service) EnsureUser(ctx context.Context, externalID, email string) (*models.User, error) {
	user, err := svc.Retrieve(ctx, RetrieveUserOptions{ExternalID: &externalID})
	if err == nil {
		return user, nil
	}
	if !errcodes.HasCode(err, errcodes.CodeNotFound) {
		return nil, err
	}

	user, err = svc.Create(ctx, CreateUserOptions{
		ExternalID: externalID,
		Email:      email,
	})
	if err == nil {
		logger.FromContext(ctx).Info("materialized user on first use", logger.Data{"user_id": user.ID, "external_id": externalID})
		return user, nil
	}
	if errcodes.HasCode(err, errcodes.CodeDuplicateUser) {
		return svc.Retrieve(ctx, RetrieveUserOptions{ExternalID: &externalID})
	}
	return nil, err
}

// Delete removes the user with everything it owns: reading statuses first,
// then books, then the user row itself.
func (svc *Service) Delete(ctx context.Context, userID string) error {
	plan := DeletePlan(svc.db, userID)
	return plan.Run(ctx)
}

// DeletePlan is the cascade run by Delete.
func DeletePlan(db bun.IDB, userID string) *database.Plan {
	return &database.Plan{
		Name: "delete user",
		Steps: []database.Step{
			database.DeleteStep(db, "reading_statuses", (*models.ReadingStatus)(nil), "owner_user_id = ?", userID),
			database.DeleteStep(db, "books", (*models.Book)(nil), "owner_user_id = ?", userID),
			database.DeleteStep(db, "users", (*models.User)(nil), "id = ?", userID),
		},
	}
}
