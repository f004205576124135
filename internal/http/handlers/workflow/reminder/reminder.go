// Package reminder реализует HTTP-обработчик колбэка планировщика напоминаний.
package reminder

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/reminder"
)

// Handler обрабатывает колбэк планировщика.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс обработки напоминаний.
type Service interface {
	Process(ctx context.Context, subscriptionID string) (reminder.Result, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Колбэк напоминания о продлении
// @Tags Workflows
// @Accept json
// @Produce json
// @Param request body models.ReminderRequest true "ID подписки"
// @Success 200 {object} response.Response "Отправленные напоминания"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверный токен планировщика"
// @Router /workflows/subscription/reminder [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.workflow.reminder"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.ReminderRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if !response.Validate(w, r, log, h.validate, req) {
		return
	}

	res, err := h.service.Process(r.Context(), req.SubscriptionID)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	log.Info("reminder processed",
		slog.String("subscription_id", res.SubscriptionID),
		slog.Int("sent", len(res.Sent)),
		slog.Bool("stopped", res.Stopped),
	)
	response.WriteOK(w, r, http.StatusOK, "", res)
}
