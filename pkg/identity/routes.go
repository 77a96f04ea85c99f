package identity

import (
	"github.com/hondana/hondana/pkg/config"
	"github.com/hondana/hondana/pkg/users"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	svix "github.com/svix/svix-webhooks/go"
	"golang.org/x/time/rate"
)

// maxPayloadSize caps webhook bodies.
const maxPayloadSize = "1M"

// RegisterRoutes registers the identity-provider webhook.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, userService *users.Service) (*Service, error) {
	webhook, err := svix.NewWebhook(cfg.WebhookSecret)
	if err != nil {
		return nil, errors.Wrap(err, "invalid webhook secret")
	}

	identityService := NewService(userService)

	h := &handler{
		identityService: identityService,
		webhook:         webhook,
	}

	limiter := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:  rate.Limit(cfg.WebhookRateLimit),
			Burst: int(cfg.WebhookRateLimit) * 2,
		}),
	})

	webhooks := e.Group("/webhooks")
	webhooks.POST("/identity", h.receive, middleware.BodyLimit(maxPayloadSize), limiter)

	return identityService, nil
}
