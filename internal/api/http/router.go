package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/observability"
	apperrors "github.com/spec-kit/auth-service/pkg/util/errorutil"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	BasePath       string
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	users := app.Group(cfg.BasePath + "/users")
	users.Post("/", cfg.Users.Create)
	users.Post("/login", loginCredentials(), cfg.Users.Login)
	users.Post("/refresh", cfg.Users.Refresh)

	bearer := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireUser()}
	users.Get("/test", append(bearer, cfg.Users.Test)...)
	users.Get("/me", append(bearer, cfg.Users.Me)...)
}

// loginCredentials extracts the Basic auth pair for the login handler. The
// pair is only checked for presence here; the handler verifies it.
func loginCredentials() fiber.Handler {
	return basicauth.New(basicauth.Config{
		Realm: "Restricted",
		Authorizer: func(email, password string) bool {
			return email != "" && password != ""
		},
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, `basic realm="Restricted"`)
			return apperrors.NewUnauthorized("invalid credentials")
		},
		ContextUsername: handlers.LoginEmailKey,
		ContextPassword: handlers.LoginPasswordKey,
	})
}
