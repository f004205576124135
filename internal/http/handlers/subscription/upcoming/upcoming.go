// Package upcoming реализует HTTP-обработчик ближайших продлений подписок пользователя.
package upcoming

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Handler обрабатывает запрос ближайших продлений.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	UpcomingRenewals(ctx context.Context, caller models.Caller, days int) ([]models.Subscription, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Ближайшие продления
// @Description Активные подписки текущего пользователя, которые продлеваются в ближайшие days дней (по умолчанию 7).
// @Tags Subscriptions
// @Produce json
// @Param days query int false "Окно в днях"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Неверное окно"
// @Security BearerAuth
// @Router /subscriptions/upcoming-renewals [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.upcoming"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.CallerFrom(r.Context())
	if !ok {
		log.Error("user not found in context")
		response.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		var err error
		if days, err = strconv.Atoi(raw); err != nil || days <= 0 {
			log.Info("invalid days parameter", slog.String("days", raw), sl.Err(err))
			response.WriteError(w, r, http.StatusBadRequest, "days must be a positive integer")
			return
		}
	}

	subs, err := h.service.UpcomingRenewals(r.Context(), caller, days)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	response.WriteOK(w, r, http.StatusOK, "", subs)
}
