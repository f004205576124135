package middlewarectx

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
)

// WorkflowTokenHeader заголовок с токеном планировщика.
const WorkflowTokenHeader = "X-Workflow-Token"

// WorkflowTokenMiddleware пропускает только запросы с токеном планировщика.
// Пустой token отключает проверку.
func WorkflowTokenMiddleware(token string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" &&
				subtle.ConstantTimeCompare([]byte(r.Header.Get(WorkflowTokenHeader)), []byte(token)) != 1 {
				log.Warn("invalid workflow token", slog.String("path", r.URL.Path))
				response.WriteError(w, r, http.StatusUnauthorized, "invalid workflow token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
