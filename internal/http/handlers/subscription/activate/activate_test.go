package activate

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Activate(ctx context.Context, caller models.Caller, id string) (models.Subscription, error) {
	args := m.Called(ctx, caller, id)
	return args.Get(0).(models.Subscription), args.Error(1)
}

func newRequest(id string, caller *models.Caller) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/subscriptions/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if caller != nil {
		ctx = middlewarectx.WithCaller(ctx, *caller)
	}
	return req.WithContext(ctx)
}

func TestHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	caller := models.Caller{ID: "user-1"}

	t.Run("успех", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Activate", mock.Anything, caller, "sub-1").
			Return(models.Subscription{ID: "sub-1", Status: models.StatusActive}, nil).Once()

		rr := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rr, newRequest("sub-1", &caller))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"`+string(models.StatusActive)+`"`)
		svc.AssertExpectations(t)
	})

	t.Run("истёкшая подписка остаётся expired", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Activate", mock.Anything, caller, "sub-1").
			Return(models.Subscription{ID: "sub-1", Status: models.StatusExpired}, nil).Once()

		rr := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rr, newRequest("sub-1", &caller))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"expired"`)
	})

	t.Run("не найдена", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Activate", mock.Anything, caller, "missing").
			Return(models.Subscription{}, apperr.NotFound("subscription not found")).Once()

		rr := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rr, newRequest("missing", &caller))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("без токена", func(t *testing.T) {
		svc := new(MockService)
		rr := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rr, newRequest("sub-1", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		svc.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything, mock.Anything)
	})
}
