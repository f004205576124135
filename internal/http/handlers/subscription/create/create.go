// Package create реализует HTTP-обработчик для создания новой подписки.
//
// Handler принимает JSON с данными подписки, валидирует его, берёт id пользователя
// из контекста и возвращает созданную подписку вместе с id запуска workflow
// напоминаний. Неудачный запуск workflow не влияет на ответ: workflowRunId будет null.
package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-tracker/internal/workflow"
)

// Handler управляет HTTP-запросами на создание подписок.
type Handler struct {
	log       *slog.Logger
	service   Service
	validate  *validator.Validate
	serverURL string // Настроенный публичный адрес API для колбэка
}

// Service описывает интерфейс бизнес-логики создания подписки.
type Service interface {
	Create(ctx context.Context, callerID string, req models.SubscriptionRequest, callbackURL string) (subscription.CreateResult, error)
}

// New создает новый Handler. serverURL может быть пустым: тогда адрес колбэка
// собирается из запроса.
func New(log *slog.Logger, service Service, serverURL string) *Handler {
	return &Handler{
		log:       log,
		service:   service,
		validate:  validator.New(),
		serverURL: serverURL,
	}
}

// ServeHTTP godoc
// @Summary Создать подписку
// @Description Создает подписку для текущего пользователя и запускает workflow напоминаний.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body models.SubscriptionRequest true "Данные новой подписки"
// @Success 201 {object} response.Response "Подписка и id запуска workflow"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.create"
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

	var req models.SubscriptionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Info("failed to decode request", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if !response.Validate(w, r, log, h.validate, req) {
		return
	}

	callbackURL := workflow.ResolveCallbackURL(h.serverURL, r)
	res, err := h.service.Create(r.Context(), caller.ID, req, callbackURL)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	log.Info("subscription created", slog.String("id", res.Subscription.ID))
	response.WriteOK(w, r, http.StatusCreated, "Subscription created successfully", res)
}
