// Package subscriptiontracker собирает HTTP API трекера подписок.
package subscriptiontracker

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/activate"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/cancel"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/listuser"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/read"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/remove"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/upcoming"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/update"
	userlist "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/user/list"
	userread "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/user/read"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/workflow/reminder"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	reminderservice "github.com/magabrotheeeer/subscription-tracker/internal/services/reminder"
	subservice "github.com/magabrotheeeer/subscription-tracker/internal/services/subscription"
	userservice "github.com/magabrotheeeer/subscription-tracker/internal/services/user"
)

// Services зависимости, из которых собираются обработчики.
type Services struct {
	Subscriptions *subservice.Service
	Users         *userservice.Service
	Reminders     *reminderservice.Service
	Tokens        middlewarectx.TokenParser
	DB            health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, s Services) {
	r.Use(
		middleware.RequestID,
		middlewarectx.RequestLogger(logger),
		middleware.Recoverer,
	)

	r.Get("/health", health.New(logger, s.DB).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/sign-up", register.New(logger, s.Users).ServeHTTP)
		r.Post("/auth/sign-in", login.New(logger, s.Users).ServeHTTP)
		r.Get("/users", userlist.New(logger, s.Users).ServeHTTP)

		// Колбэк планировщика
		r.With(middlewarectx.WorkflowTokenMiddleware(cfg.CallbackToken, logger)).
			Post("/workflows/subscription/reminder", reminder.New(logger, s.Reminders).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Tokens, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimitRPS, cfg.RateLimitBurst))

			r.Get("/users/{id}", userread.New(logger, s.Users).ServeHTTP)

			r.Post("/subscriptions", create.New(logger, s.Subscriptions, cfg.ServerURL).ServeHTTP)
			r.Get("/subscriptions", list.New(logger, s.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/upcoming-renewals", upcoming.New(logger, s.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/user/{id}", listuser.New(logger, s.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/{id}", read.New(logger, s.Subscriptions).ServeHTTP)
			r.Put("/subscriptions/{id}", update.New(logger, s.Subscriptions).ServeHTTP)
			r.Delete("/subscriptions/{id}", remove.New(logger, s.Subscriptions).ServeHTTP)
			r.Put("/subscriptions/{id}/cancel", cancel.New(logger, s.Subscriptions).ServeHTTP)
			r.Put("/subscriptions/{id}/active", activate.New(logger, s.Subscriptions).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
