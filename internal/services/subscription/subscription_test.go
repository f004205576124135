package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(models.Subscription), args.Error(1)
}

func (m *RepoMock) GetSubscription(ctx context.Context, id string) (models.Subscription, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Subscription), args.Error(1)
}

func (m *RepoMock) UpdateSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(models.Subscription), args.Error(1)
}

func (m *RepoMock) DeleteSubscription(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

func (m *RepoMock) ListSubscriptionsByUser(ctx context.Context, userID string) ([]models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

func (m *RepoMock) ListRenewalsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Subscription, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type TriggerMock struct{ mock.Mock }

func (m *TriggerMock) Fire(ctx context.Context, callbackURL, subscriptionID string) *string {
	args := m.Called(ctx, callbackURL, subscriptionID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*string)
}

const (
	subID   = "5f0c1c1e-7a43-4e0b-9d2b-1f0a4d0b2c11"
	ownerID = "0b8e6f8a-4a30-4a1c-8c59-2a86c8c3b0a1"
	otherID = "9d5f3b1e-5c2a-4b8e-a1f0-7e6c5d4b3a21"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(opts Options) (*Service, *RepoMock, *CacheMock, *TriggerMock) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	trigger := new(TriggerMock)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(repo, cache, trigger, log, func() time.Time { return fixedNow }, opts)
	return svc, repo, cache, trigger
}

func price(v float64) *float64 { return &v }
func str(v string) *string     { return &v }

func storedSub() models.Subscription {
	return models.Subscription{
		ID:            subID,
		Name:          "Netflix",
		Price:         15.99,
		Currency:      models.CurrencyUSD,
		Frequency:     models.FrequencyMonthly,
		Category:      models.CategoryEntertainment,
		PaymentMethod: models.PaymentCreditCard,
		Status:        models.StatusActive,
		StartDate:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		RenewalDate:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		UserID:        ownerID,
	}
}

func TestService_Create(t *testing.T) {
	req := models.SubscriptionRequest{
		Name:          "  Netflix ",
		Price:         price(15.99),
		Frequency:     "monthly",
		Category:      "entertainment",
		PaymentMethod: " credit_card ",
		StartDate:     "2024-06-01",
	}

	t.Run("успешное создание с производной датой продления", func(t *testing.T) {
		svc, repo, cache, trigger := newTestService(Options{})
		runID := "run-1"

		repo.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
			return s.Name == "Netflix" &&
				s.PaymentMethod == models.PaymentCreditCard &&
				s.Currency == models.CurrencyUSD &&
				s.Status == models.StatusActive &&
				s.UserID == ownerID &&
				s.RenewalDate.Equal(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
		})).Return(storedSub(), nil).Once()
		cache.On("Set", mock.Anything, "subscription:"+subID, storedSub(), time.Hour).Return(nil).Once()
		trigger.On("Fire", mock.Anything, "http://cb", subID).Return(&runID).Once()

		res, err := svc.Create(context.Background(), ownerID, req, "http://cb")
		require.NoError(t, err)
		assert.Equal(t, subID, res.Subscription.ID)
		require.NotNil(t, res.WorkflowRunID)
		assert.Equal(t, "run-1", *res.WorkflowRunID)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
		trigger.AssertExpectations(t)
	})

	t.Run("ошибка workflow не мешает созданию", func(t *testing.T) {
		svc, repo, cache, trigger := newTestService(Options{})
		repo.On("CreateSubscription", mock.Anything, mock.Anything).Return(storedSub(), nil).Once()
		cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()
		trigger.On("Fire", mock.Anything, "http://cb", subID).Return(nil).Once()

		res, err := svc.Create(context.Background(), ownerID, req, "http://cb")
		require.NoError(t, err)
		assert.Nil(t, res.WorkflowRunID)
	})

	t.Run("дата продления в прошлом делает подписку истёкшей", func(t *testing.T) {
		svc, repo, cache, trigger := newTestService(Options{})
		old := req
		old.StartDate = "2024-01-01"
		old.Status = "active"

		repo.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
			return s.Status == models.StatusExpired &&
				s.RenewalDate.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
		})).Return(storedSub(), nil).Once()
		cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		trigger.On("Fire", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Create(context.Background(), ownerID, old, "http://cb")
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	tests := []struct {
		name   string
		mutate func(r *models.SubscriptionRequest)
	}{
		{"нет периодичности и даты продления", func(r *models.SubscriptionRequest) { r.Frequency = "" }},
		{"дата начала в будущем", func(r *models.SubscriptionRequest) { r.StartDate = "2024-07-01" }},
		{"продление раньше начала", func(r *models.SubscriptionRequest) { r.RenewalDate = "2024-05-01" }},
		{"неверная дата", func(r *models.SubscriptionRequest) { r.StartDate = "01-06-2024" }},
		{"нет цены", func(r *models.SubscriptionRequest) { r.Price = nil }},
		{"отрицательная цена", func(r *models.SubscriptionRequest) { r.Price = price(-1) }},
		{"короткое имя", func(r *models.SubscriptionRequest) { r.Name = " N " }},
		{"неизвестный способ оплаты", func(r *models.SubscriptionRequest) { r.PaymentMethod = "cash" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, trigger := newTestService(Options{})
			r := req
			tt.mutate(&r)

			_, err := svc.Create(context.Background(), ownerID, r, "http://cb")
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation), err.Error())
			repo.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
			trigger.AssertNotCalled(t, "Fire", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestService_GetByID(t *testing.T) {
	t.Run("из кеша", func(t *testing.T) {
		svc, repo, cache, _ := newTestService(Options{})
		cache.On("Get", mock.Anything, "subscription:"+subID, mock.Anything).
			Run(func(args mock.Arguments) {
				*args.Get(2).(*models.Subscription) = storedSub()
			}).Return(true, nil).Once()

		sub, err := svc.GetByID(context.Background(), subID)
		require.NoError(t, err)
		assert.Equal(t, "Netflix", sub.Name)
		repo.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
	})

	t.Run("промах кеша идёт в хранилище", func(t *testing.T) {
		svc, repo, cache, _ := newTestService(Options{})
		cache.On("Get", mock.Anything, "subscription:"+subID, mock.Anything).Return(false, errors.New("redis down")).Once()
		repo.On("GetSubscription", mock.Anything, subID).Return(storedSub(), nil).Once()
		cache.On("Set", mock.Anything, "subscription:"+subID, storedSub(), time.Hour).Return(nil).Once()

		sub, err := svc.GetByID(context.Background(), subID)
		require.NoError(t, err)
		assert.Equal(t, subID, sub.ID)
		cache.AssertExpectations(t)
	})

	t.Run("не UUID", func(t *testing.T) {
		svc, repo, cache, _ := newTestService(Options{})
		_, err := svc.GetByID(context.Background(), "123")
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		repo.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
		cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("нет в хранилище", func(t *testing.T) {
		svc, repo, cache, _ := newTestService(Options{})
		cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
		repo.On("GetSubscription", mock.Anything, subID).
			Return(models.Subscription{}, apperr.NotFound("subscription not found")).Once()

		_, err := svc.GetByID(context.Background(), subID)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestService_ListAll(t *testing.T) {
	svc, repo, _, _ := newTestService(Options{})
	repo.On("ListSubscriptions", mock.Anything).Return([]models.Subscription{storedSub()}, nil).Once()

	_, err := svc.ListAll(context.Background(), models.Caller{ID: ownerID, Role: models.RoleUser})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	subs, err := svc.ListAll(context.Background(), models.Caller{ID: ownerID, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestService_ListForUser(t *testing.T) {
	svc, repo, _, _ := newTestService(Options{})
	repo.On("ListSubscriptionsByUser", mock.Anything, ownerID).Return([]models.Subscription{storedSub()}, nil).Once()

	subs, err := svc.ListForUser(context.Background(), models.Caller{ID: ownerID}, ownerID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	_, err = svc.ListForUser(context.Background(), models.Caller{ID: otherID, Role: models.RoleAdmin}, ownerID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	repo.AssertNumberOfCalls(t, "ListSubscriptionsByUser", 1)
}

func TestService_Update(t *testing.T) {
	caller := models.Caller{ID: otherID, Role: models.RoleUser}

	t.Run("смена периодичности пересчитывает продление", func(t *testing.T) {
		svc, repo, cache, _ := newTestService(Options{})
		repo.On("GetSubscription", mock.Anything, subID).Return(storedSub(), nil).Once()
		repo.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
			return s.Frequency == models.FrequencyYearly &&
				s.RenewalDate.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) &&
				s.Name == "Netflix 4K"
		})).Return(storedSub(), nil).Once()
		cache.On("Invalidate", mock.Anything, "subscription:"+subID).Return(nil).Twice()

		_, err := svc.Update(context.Background(), caller, subID, models.SubscriptionPatch{
			Name:      str("Netflix 4K"),
			Frequency: str("yearly"),
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("статус active при прошедшем продлении становится expired", func(t *testing.T) {
		svc, repo, cache, _ := newTestService(Options{})
		repo.On("GetSubscription", mock.Anything, subID).Return(storedSub(), nil).Once()
		repo.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
			return s.Status == models.StatusExpired
		})).Return(storedSub(), nil).Once()
		cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Update(context.Background(), caller, subID, models.SubscriptionPatch{
			Status:      str("active"),
			RenewalDate: str("2024-06-10"),
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("чужая подписка при включённой проверке владельца", func(t *testing.T) {
		svc, repo, _, _ := newTestService(Options{EnforceOwnership: true})
		repo.On("GetSubscription", mock.Anything, subID).Return(storedSub(), nil).Once()

		_, err := svc.Update(context.Background(), caller, subID, models.SubscriptionPatch{Name: str("X1")})
		assert.True(t, apperr.Is(err, apperr.KindForbidden))
		repo.AssertNotCalled(t, "UpdateSubscription", mock.Anything, mock.Anything)
	})

	t.Run("дата начала в будущем", func(t *testing.T) {
		svc, repo, _, _ := newTestService(Options{})
		repo.On("GetSubscription", mock.Anything, subID).Return(storedSub(), nil).Once()

		_, err := svc.Update(context.Background(), caller, subID, models.SubscriptionPatch{StartDate: str("2024-08-01")})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("не UUID", func(t *testing.T) {
		svc, _, _, _ := newTestService(Options{})
		_, err := svc.Update(context.Background(), caller, "abc", models.SubscriptionPatch{})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestService_CancelActivate(t *testing.T) {
	caller := models.Caller{ID: ownerID}

	t.Run("отмена", func(t *testing.T) {
		svc, repo, cache, _ := newTestService(Options{})
		repo.On("GetSubscription", mock.Anything, subID).Return(storedSub(), nil).Once()
		repo.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
			return s.Status == models.StatusCancelled
		})).Return(storedSub(), nil).Once()
		cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Cancel(context.Background(), caller, subID)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("активация истёкшей оставляет expired", func(t *testing.T) {
		svc, repo, cache, _ := newTestService(Options{})
		expired := storedSub()
		expired.Status = models.StatusExpired
		expired.StartDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		expired.RenewalDate = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
		repo.On("GetSubscription", mock.Anything, subID).Return(expired, nil).Once()
		repo.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
			return s.Status == models.StatusExpired
		})).Return(expired, nil).Once()
		cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil)

		got, err := svc.Activate(context.Background(), caller, subID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusExpired, got.Status)
	})

	t.Run("нет подписки", func(t *testing.T) {
		svc, repo, _, _ := newTestService(Options{})
		repo.On("GetSubscription", mock.Anything, subID).
			Return(models.Subscription{}, apperr.NotFound("subscription not found")).Once()

		_, err := svc.Cancel(context.Background(), caller, subID)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("успех", func(t *testing.T) {
		svc, repo, cache, _ := newTestService(Options{})
		repo.On("GetSubscription", mock.Anything, subID).Return(storedSub(), nil).Once()
		repo.On("DeleteSubscription", mock.Anything, subID).Return(nil).Once()
		cache.On("Invalidate", mock.Anything, "subscription:"+subID).Return(nil).Once()
		cache.On("Invalidate", mock.Anything, "subscription:"+subID).Return(errors.New("redis down")).Once()

		require.NoError(t, svc.Delete(context.Background(), models.Caller{ID: otherID}, subID))
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("кеш недоступен, удаление не выполняется", func(t *testing.T) {
		svc, repo, cache, _ := newTestService(Options{})
		repo.On("GetSubscription", mock.Anything, subID).Return(storedSub(), nil).Once()
		cache.On("Invalidate", mock.Anything, "subscription:"+subID).Return(errors.New("redis down")).Once()

		require.Error(t, svc.Delete(context.Background(), models.Caller{ID: otherID}, subID))
		repo.AssertNotCalled(t, "DeleteSubscription", mock.Anything, mock.Anything)
	})

	t.Run("владелец проверяется, админ проходит", func(t *testing.T) {
		svc, repo, cache, _ := newTestService(Options{EnforceOwnership: true})
		repo.On("GetSubscription", mock.Anything, subID).Return(storedSub(), nil)
		repo.On("DeleteSubscription", mock.Anything, subID).Return(nil).Once()
		cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil)

		err := svc.Delete(context.Background(), models.Caller{ID: otherID, Role: models.RoleUser}, subID)
		assert.True(t, apperr.Is(err, apperr.KindForbidden))

		err = svc.Delete(context.Background(), models.Caller{ID: otherID, Role: models.RoleAdmin}, subID)
		require.NoError(t, err)
		repo.AssertNumberOfCalls(t, "DeleteSubscription", 1)
	})
}

func TestService_UpcomingRenewals(t *testing.T) {
	caller := models.Caller{ID: ownerID}

	svc, repo, _, _ := newTestService(Options{})
	repo.On("ListRenewalsBetween", mock.Anything, ownerID, fixedNow, fixedNow.AddDate(0, 0, 7)).
		Return([]models.Subscription{storedSub()}, nil).Once()

	subs, err := svc.UpcomingRenewals(context.Background(), caller, 0)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	_, err = svc.UpcomingRenewals(context.Background(), caller, -1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.UpcomingRenewals(context.Background(), caller, 400)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	repo.AssertExpectations(t)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("startDate", "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("startDate", "2024-01-02T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("startDate", "yesterday")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
