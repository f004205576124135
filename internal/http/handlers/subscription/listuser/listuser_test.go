package listuser

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

func (m *MockService) ListForUser(ctx context.Context, caller models.Caller, userID string) ([]models.Subscription, error) {
	args := m.Called(ctx, caller, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

func TestListUserHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	caller := models.Caller{ID: "user-1", Role: models.RoleUser}

	tests := []struct {
		name           string
		userID         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "свои подписки",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("ListForUser", mock.Anything, caller, "user-1").Return([]models.Subscription{{ID: "s1"}}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"id":"s1"`,
		},
		{
			name:   "пустой список",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("ListForUser", mock.Anything, caller, "user-1").Return([]models.Subscription{}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"data":[]`,
		},
		{
			name:   "чужие подписки",
			userID: "user-2",
			setupMock: func(m *MockService) {
				m.On("ListForUser", mock.Anything, caller, "user-2").
					Return(nil, apperr.Unauthorized("you are not the owner of this account")).Once()
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"message":"you are not the owner of this account"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/subscriptions/user/"+tt.userID, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.userID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithCaller(ctx, caller))

			rr := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
