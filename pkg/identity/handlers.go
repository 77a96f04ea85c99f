package identity

import (
	"context"
	"io"
	"net/http"

	"github.com/hondana/hondana/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	svix "github.com/svix/svix-webhooks/go"
)

// Headers that carry the webhook signature.
const (
	HeaderWebhookID        = "svix-id"
	HeaderWebhookTimestamp = "svix-timestamp"
	HeaderWebhookSignature = "svix-signature"
)

type handler struct {
	identityService *Service
	webhook         *svix.Webhook
}

func (h *handler) receive(c echo.Context) error {
	ctx := c.Request().Context()
	req := c.Request()

	for _, header := range []string{HeaderWebhookID, HeaderWebhookTimestamp, HeaderWebhookSignature} {
		if req.Header.Get(header) == "" {
			return errcodes.MissingWebhookHeaders()
		}
	}

	log := logger.FromContext(ctx).Data(logger.Data{"webhook_id": req.Header.Get(HeaderWebhookID)})
	ctx = log.WithContext(ctx)

	payload, err := io.ReadAll(req.Body)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.webhook.Verify(payload, req.Header); err != nil {
		log.Warn("rejected webhook", logger.Data{"error": err.Error()})
		return errcodes.InvalidWebhook()
	}

	event := Event{}
	if err := json.Unmarshal(payload, &event); err != nil {
		return errcodes.MalformedPayload()
	}

	if err := h.dispatch(ctx, event); err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]bool{"success": true}))
}

// dispatch hands the event to the service. Outcomes that redelivery can't
// change are logged and acknowledged; anything else fails the request so the
// identity provider retries it.
func (h *handler) dispatch(ctx context.Context, event Event) error {
	log := logger.FromContext(ctx).Data(logger.Data{"event_type": event.Type})

	var data IdentityData
	switch event.Type {
	case EventUserCreated, EventUserUpdated, EventUserDeleted:
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ID == "" {
			return errcodes.MalformedPayload()
		}
	default:
		log.Info("ignoring webhook event")
		return nil
	}

	var err error
	switch event.Type {
	case EventUserCreated:
		_, err = h.identityService.OnCreated(ctx, data)
	case EventUserUpdated:
		err = h.identityService.OnUpdated(ctx, data)
	case EventUserDeleted:
		err = h.identityService.OnDeleted(ctx, data.ID)
	}

	switch {
	case err == nil:
		return nil
	case errcodes.HasCode(err, errcodes.CodeDuplicateUser), errcodes.HasCode(err, errcodes.CodeUserNotFound):
		log.Info("acknowledging replayed webhook event", logger.Data{"external_id": data.ID, "reason": err.Error()})
		return nil
	case errcodes.HasCode(err, errcodes.CodeMissingEmail):
		log.Warn("dropping webhook event without an email", logger.Data{"external_id": data.ID})
		return nil
	default:
		log.Err(err).Error("failed to process webhook event", logger.Data{"external_id": data.ID})
		return err
	}
}
