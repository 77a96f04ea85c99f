package identity

import (
	"context"

	"github.com/hondana/hondana/pkg/errcodes"
	"github.com/hondana/hondana/pkg/models"
	"github.com/hondana/hondana/pkg/users"
	"github.com/robinjoseph08/golib/logger"
)

// Service projects identity-provider lifecycle events onto local users.
type Service struct {
	userService *users.Service
}

func NewService(userService *users.Service) *Service {
	return &Service{userService: userService}
}

// OnCreated mirrors a newly created account. A replayed event for an account
// that's already mirrored fails with a duplicate_user error.
func (svc *Service) OnCreated(ctx context.Context, data IdentityData) (*models.User, error) {
	email := data.PrimaryEmail()
	if email == "" {
		return nil, errcodes.MissingEmail()
	}

	user, err := svc.userService.Create(ctx, users.CreateUserOptions{
		ExternalID: data.ID,
		Email:      email,
		Username:   data.username(),
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("user created", logger.Data{"user_id": user.ID, "external_id": data.ID})
	return user, nil
}

// OnUpdated copies the account's email and username onto the local user. An
// account that was never mirrored is skipped.
func (svc *Service) OnUpdated(ctx context.Context, data IdentityData) error {
	email := data.PrimaryEmail()
	if email == "" {
		return errcodes.MissingEmail()
	}

	updated, err := svc.userService.UpdateByExternalID(ctx, data.ID, users.UpdateUserOptions{
		Email:    email,
		Username: data.username(),
	})
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	if !updated {
		log.Info("skipping update of unknown user", logger.Data{"external_id": data.ID})
		return nil
	}
	log.Info("user updated", logger.Data{"external_id": data.ID})
	return nil
}

// OnDeleted removes the local user and everything it owns. If the cascade
// stops part way, the error is a *database.PartialCascadeError and
// redelivering the event finishes the job.
func (svc *Service) OnDeleted(ctx context.Context, externalID string) error {
	user, err := svc.userService.Retrieve(ctx, users.RetrieveUserOptions{ExternalID: &externalID})
	if err != nil {
		if errcodes.HasCode(err, errcodes.CodeNotFound) {
			return errcodes.UserNotFound(externalID)
		}
		return err
	}

	if err := svc.userService.Delete(ctx, user.ID); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("user deleted", logger.Data{"user_id": user.ID, "external_id": externalID})
	return nil
}
