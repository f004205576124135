// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Все ответы имеют вид
// {"success": bool, "message": string, "data": any}.
package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrorResponse структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"invalid request body"`
}

const internalMessage = "internal server error"

// OK возвращает успешный Response с переданными данными.
func OK(message string, data any) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: msg,
	}
}

// WriteOK пишет успешный ответ с кодом status.
func WriteOK(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	render.Status(r, status)
	render.JSON(w, r, OK(message, data))
}

// WriteError пишет ответ с ошибкой с кодом status.
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
}

// FromError подбирает код ответа по виду ошибки и пишет его.
// Ошибки без вида считаются внутренними: клиент не видит их текст.
func FromError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if e := apperr.As(err); e != nil && e.Kind != apperr.KindInternal {
		log.Warn("request failed", slog.String("kind", string(e.Kind)), sl.Err(err))
		WriteError(w, r, e.HTTPStatus(), e.Message)
		return
	}
	log.Error("internal error", sl.Err(err))
	WriteError(w, r, http.StatusInternalServerError, internalMessage)
}

// Validate проверяет структуру и пишет ответ 400 при ошибке. Возвращает false,
// если обработку нужно прервать.
func Validate(w http.ResponseWriter, r *http.Request, log *slog.Logger, v *validator.Validate, req any) bool {
	err := v.Struct(req)
	if err == nil {
		return true
	}
	log.Info("validation failed", sl.Err(err))
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		WriteError(w, r, http.StatusBadRequest, ValidationError(verrs))
		return false
	}
	WriteError(w, r, http.StatusBadRequest, "invalid request")
	return false
}

// ValidationError собирает человекочитаемое сообщение из ошибок валидации.
func ValidationError(errs validator.ValidationErrors) string {
	var msgs []string

	for _, err := range errs {
		field := lowerFirst(err.Field())
		switch err.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is a required field", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("field %s must be at least %s characters long", field, err.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("field %s must be at most %s characters long", field, err.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("field %s must be at least %s", field, err.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field %s must be one of: %s", field, err.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", field))
		}
	}
	return strings.Join(msgs, ", ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
