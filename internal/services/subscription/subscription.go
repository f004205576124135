// Package subscription содержит бизнес-логику работы с подписками:
// правила жизненного цикла, проверку доступа, кеширование и запуск
// workflow напоминаний.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// DefaultUpcomingDays окно ближайших продлений по умолчанию.
const DefaultUpcomingDays = 7

const errNotFound = "subscription not found"

// Repository определяет методы хранилища подписок.
type Repository interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error)
	GetSubscription(ctx context.Context, id string) (models.Subscription, error)
	UpdateSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error
	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)
	ListSubscriptionsByUser(ctx context.Context, userID string) ([]models.Subscription, error)
	ListRenewalsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Subscription, error)
}

// Cache описывает методы для кеширования подписок.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Trigger запускает workflow напоминаний и возвращает id запуска или nil.
type Trigger interface {
	Fire(ctx context.Context, callbackURL, subscriptionID string) *string
}

// Options переключатели политики доступа.
type Options struct {
	// EnforceOwnership запрещает менять и удалять чужие подписки.
	EnforceOwnership bool
	// CacheTTL время жизни записи в кеше. По умолчанию час.
	CacheTTL time.Duration
}

// Service реализует бизнес-логику работы с подписками.
type Service struct {
	repo    Repository
	cache   Cache
	trigger Trigger
	log     *slog.Logger
	now     func() time.Time
	opts    Options
}

// New создаёт Service. now используется как часы; nil означает time.Now.
func New(repo Repository, cache Cache, trigger Trigger, log *slog.Logger, now func() time.Time, opts Options) *Service {
	if now == nil {
		now = time.Now
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	return &Service{
		repo:    repo,
		cache:   cache,
		trigger: trigger,
		log:     log,
		now:     now,
		opts:    opts,
	}
}

// CreateResult созданная подписка и id запуска workflow (nil, если запуск не удался).
type CreateResult struct {
	Subscription  models.Subscription `json:"subscription"`
	WorkflowRunID *string             `json:"workflowRunId"`
}

func cacheKey(id string) string {
	return "subscription:" + id
}

// Create создаёт подписку от имени caller и запускает workflow напоминаний.
// Ошибка запуска workflow не делает создание неуспешным.
func (s *Service) Create(ctx context.Context, callerID string, req models.SubscriptionRequest, callbackURL string) (CreateResult, error) {
	const op = "services.subscription.Create"

	sub, err := fromRequest(req)
	if err != nil {
		return CreateResult{}, err
	}
	sub.UserID = callerID
	sub.Normalize()

	now := s.now().UTC()
	if err := sub.Validate(now, true); err != nil {
		return CreateResult{}, err
	}
	if sub, err = models.ApplyLifecycleRules(sub, now); err != nil {
		return CreateResult{}, err
	}

	created, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return CreateResult{}, fmt.Errorf("%s: %w", op, err)
	}
	metrics.SubscriptionsCreated.Inc()
	s.log.Info("created new subscription", slog.String("id", created.ID), slog.String("user_id", callerID))
	s.cacheSet(ctx, created)

	return CreateResult{
		Subscription:  created,
		WorkflowRunID: s.trigger.Fire(ctx, callbackURL, created.ID),
	}, nil
}

// GetByID возвращает подписку по id, сначала из кеша.
func (s *Service) GetByID(ctx context.Context, id string) (models.Subscription, error) {
	const op = "services.subscription.GetByID"
	if !validID(id) {
		return models.Subscription{}, apperr.NotFound(errNotFound)
	}

	var cached models.Subscription
	found, err := s.cache.Get(ctx, cacheKey(id), &cached)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey(id)), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheSet(ctx, sub)
	return sub, nil
}

// ListAll возвращает все подписки. Доступно только администратору.
func (s *Service) ListAll(ctx context.Context, caller models.Caller) ([]models.Subscription, error) {
	const op = "services.subscription.ListAll"
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("admin role required")
	}
	subs, err := s.repo.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// ListForUser возвращает подписки пользователя userID. Запросить можно только свои.
func (s *Service) ListForUser(ctx context.Context, caller models.Caller, userID string) ([]models.Subscription, error) {
	const op = "services.subscription.ListForUser"
	if caller.ID != userID {
		return nil, apperr.Unauthorized("you are not the owner of this account")
	}
	subs, err := s.repo.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// Update применяет частичное обновление и заново вычисляет дату продления и статус.
func (s *Service) Update(ctx context.Context, caller models.Caller, id string, patch models.SubscriptionPatch) (models.Subscription, error) {
	return s.mutate(ctx, "services.subscription.Update", caller, id, func(sub *models.Subscription) (bool, error) {
		return applyPatch(sub, patch)
	})
}

// Cancel переводит подписку в статус cancelled. Истёкшая подписка остаётся expired.
func (s *Service) Cancel(ctx context.Context, caller models.Caller, id string) (models.Subscription, error) {
	return s.mutate(ctx, "services.subscription.Cancel", caller, id, func(sub *models.Subscription) (bool, error) {
		sub.Status = models.StatusCancelled
		return false, nil
	})
}

// Activate переводит подписку в статус active. Истёкшая подписка остаётся expired.
func (s *Service) Activate(ctx context.Context, caller models.Caller, id string) (models.Subscription, error) {
	return s.mutate(ctx, "services.subscription.Activate", caller, id, func(sub *models.Subscription) (bool, error) {
		sub.Status = models.StatusActive
		return false, nil
	})
}

// Delete удаляет подписку. Запись кеша удаляется до и после удаления из хранилища.
func (s *Service) Delete(ctx context.Context, caller models.Caller, id string) error {
	const op = "services.subscription.Delete"
	sub, err := s.load(ctx, op, id)
	if err != nil {
		return err
	}
	if err := s.checkOwner(caller, sub); err != nil {
		return err
	}

	if err := s.evict(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteSubscription(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.evictAfterWrite(ctx, id)
	return nil
}

// UpcomingRenewals возвращает активные подписки caller с продлением в ближайшие days дней.
func (s *Service) UpcomingRenewals(ctx context.Context, caller models.Caller, days int) ([]models.Subscription, error) {
	const op = "services.subscription.UpcomingRenewals"
	if days == 0 {
		days = DefaultUpcomingDays
	}
	if days < 0 || days > 365 {
		return nil, apperr.Validation("days must be between 1 and 365")
	}

	now := s.now().UTC()
	subs, err := s.repo.ListRenewalsBetween(ctx, caller.ID, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// mutate загружает подписку, применяет change и сохраняет результат.
// change сообщает, менялась ли дата начала: тогда она сверяется с текущим временем.
func (s *Service) mutate(ctx context.Context, op string, caller models.Caller, id string,
	change func(sub *models.Subscription) (bool, error)) (models.Subscription, error) {
	sub, err := s.load(ctx, op, id)
	if err != nil {
		return models.Subscription{}, err
	}
	if err := s.checkOwner(caller, sub); err != nil {
		return models.Subscription{}, err
	}

	startChanged, err := change(&sub)
	if err != nil {
		return models.Subscription{}, err
	}
	sub.Normalize()

	now := s.now().UTC()
	if err := sub.Validate(now, startChanged); err != nil {
		return models.Subscription{}, err
	}
	if sub, err = models.ApplyLifecycleRules(sub, now); err != nil {
		return models.Subscription{}, err
	}

	if err := s.evict(ctx, id); err != nil {
		return models.Subscription{}, fmt.Errorf("%s: %w", op, err)
	}
	updated, err := s.repo.UpdateSubscription(ctx, sub)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("%s: %w", op, err)
	}
	s.evictAfterWrite(ctx, id)
	return updated, nil
}

func (s *Service) load(ctx context.Context, op, id string) (models.Subscription, error) {
	if !validID(id) {
		return models.Subscription{}, apperr.NotFound(errNotFound)
	}
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

func (s *Service) checkOwner(caller models.Caller, sub models.Subscription) error {
	if s.opts.EnforceOwnership && sub.UserID != caller.ID && !caller.IsAdmin() {
		return apperr.Forbidden("you are not the owner of this subscription")
	}
	return nil
}

// evict удаляет запись из кеша перед записью в хранилище.
// Ошибка кеша прерывает изменение.
func (s *Service) evict(ctx context.Context, id string) error {
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.log.Error("failed to remove from cache", slog.String("key", cacheKey(id)), sl.Err(err))
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// evictAfterWrite повторно удаляет запись, которую мог вернуть в кеш
// параллельный GetByID между первой инвалидацией и записью.
func (s *Service) evictAfterWrite(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey(id)), sl.Err(err))
	}
}

func (s *Service) cacheSet(ctx context.Context, sub models.Subscription) {
	if err := s.cache.Set(ctx, cacheKey(sub.ID), sub, s.opts.CacheTTL); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey(sub.ID)), sl.Err(err))
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ParseDate принимает дату в формате 2006-01-02 или RFC3339 и возвращает её в UTC.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperr.Validation(fmt.Sprintf("invalid %s: expected YYYY-MM-DD or RFC3339", field))
	}
	return t.UTC(), nil
}

func fromRequest(req models.SubscriptionRequest) (models.Subscription, error) {
	sub := models.Subscription{
		Name:          req.Name,
		Currency:      models.Currency(req.Currency),
		Frequency:     models.Frequency(req.Frequency),
		Category:      models.Category(req.Category),
		PaymentMethod: models.PaymentMethod(req.PaymentMethod),
		Status:        models.Status(req.Status),
	}
	if req.Price == nil {
		return models.Subscription{}, apperr.Validation("subscription price is required")
	}
	sub.Price = *req.Price

	var err error
	if sub.StartDate, err = ParseDate("startDate", req.StartDate); err != nil {
		return models.Subscription{}, err
	}
	if strings.TrimSpace(req.RenewalDate) != "" {
		if sub.RenewalDate, err = ParseDate("renewalDate", req.RenewalDate); err != nil {
			return models.Subscription{}, err
		}
	}
	return sub, nil
}

// applyPatch переносит заданные поля patch в sub и сообщает, менялась ли дата начала.
// Если меняется дата начала или периодичность без явной даты продления,
// дата продления вычисляется заново.
func applyPatch(sub *models.Subscription, patch models.SubscriptionPatch) (bool, error) {
	if patch.Name != nil {
		sub.Name = *patch.Name
	}
	if patch.Price != nil {
		sub.Price = *patch.Price
	}
	if patch.Currency != nil {
		sub.Currency = models.Currency(*patch.Currency)
	}
	if patch.Frequency != nil {
		sub.Frequency = models.Frequency(*patch.Frequency)
	}
	if patch.Category != nil {
		sub.Category = models.Category(*patch.Category)
	}
	if patch.PaymentMethod != nil {
		sub.PaymentMethod = models.PaymentMethod(*patch.PaymentMethod)
	}
	if patch.Status != nil {
		sub.Status = models.Status(*patch.Status)
	}

	startChanged := false
	if patch.StartDate != nil {
		start, err := ParseDate("startDate", *patch.StartDate)
		if err != nil {
			return false, err
		}
		sub.StartDate = start
		startChanged = true
	}

	switch {
	case patch.RenewalDate != nil:
		renewal, err := ParseDate("renewalDate", *patch.RenewalDate)
		if err != nil {
			return false, err
		}
		sub.RenewalDate = renewal
	case startChanged || patch.Frequency != nil:
		if _, ok := models.RenewalPeriod(sub.Frequency); ok {
			sub.RenewalDate = time.Time{}
		}
	}
	return startChanged, nil
}
