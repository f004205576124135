// Package middlewarectx содержит HTTP middleware сервиса: проверку JWT,
// ограничение частоты запросов, проверку токена планировщика и журнал запросов.
//
// JWTMiddleware проверяет токен из заголовка Authorization и кладёт id
// пользователя и его роль в контекст запроса.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID ключ для id пользователя в контексте.
	UserID Key = "user_id"
	// Role ключ для роли пользователя в контексте.
	Role Key = "role"
)

// TokenParser разбирает и проверяет JWT.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// JWTMiddleware возвращает middleware, которое проверяет JWT в заголовке Authorization.
// Без валидного токена запрос завершается с 401.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Info("missing or invalid authorization header")
				response.WriteError(w, r, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				response.WriteError(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), models.Caller{
				ID:   claims.UserID,
				Role: claims.Role,
			})))
		})
	}
}

// WithCaller кладёт пользователя в контекст.
func WithCaller(ctx context.Context, caller models.Caller) context.Context {
	ctx = context.WithValue(ctx, UserID, caller.ID)
	return context.WithValue(ctx, Role, caller.Role)
}

// CallerFrom достаёт пользователя из контекста.
func CallerFrom(ctx context.Context) (models.Caller, bool) {
	id, ok := ctx.Value(UserID).(string)
	if !ok || id == "" {
		return models.Caller{}, false
	}
	role, _ := ctx.Value(Role).(string)
	return models.Caller{ID: id, Role: role}, true
}
