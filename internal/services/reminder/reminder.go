// Package reminder обрабатывает колбэк планировщика: определяет, какие
// напоминания о продлении подписки должны уйти сегодня, и публикует их
// в очередь уведомлений.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/email"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Repository источник подписок и их владельцев.
type Repository interface {
	GetSubscription(ctx context.Context, id string) (models.Subscription, error)
	GetUser(ctx context.Context, id string) (models.User, error)
}

// Publisher публикует сообщение в exchange уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Result итог обработки колбэка.
type Result struct {
	SubscriptionID string     `json:"subscriptionId"`
	Sent           []string   `json:"sent"`
	NextReminderAt *time.Time `json:"nextReminderAt"`
	Stopped        bool       `json:"stopped"`
	Reason         string     `json:"reason,omitempty"`
}

// Service обрабатывает колбэки напоминаний.
type Service struct {
	repo      Repository
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// New создаёт Service. nil в now означает time.Now.
func New(repo Repository, publisher Publisher, log *slog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       now,
	}
}

func stopped(id, reason string) Result {
	return Result{SubscriptionID: id, Sent: []string{}, Stopped: true, Reason: reason}
}

// Process публикует напоминания, день которых совпадает с сегодняшним (по UTC),
// и возвращает время следующего напоминания. Отсутствующая, неактивная или уже
// продлённая подписка останавливает цепочку напоминаний.
func (s *Service) Process(ctx context.Context, subscriptionID string) (Result, error) {
	const op = "services.reminder.Process"
	log := s.log.With(slog.String("op", op), slog.String("subscription_id", subscriptionID))

	sub, err := s.repo.GetSubscription(ctx, subscriptionID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			log.Info("subscription not found, stopping workflow")
			return stopped(subscriptionID, "subscription not found"), nil
		}
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	if sub.Status != models.StatusActive {
		log.Info("subscription is not active, stopping workflow", slog.String("status", string(sub.Status)))
		return stopped(subscriptionID, "subscription is not active"), nil
	}

	now := s.now().UTC()
	if !sub.RenewalDate.After(now) {
		log.Info("renewal date has passed, stopping workflow")
		return stopped(subscriptionID, "renewal date has passed"), nil
	}

	owner, err := s.repo.GetUser(ctx, sub.UserID)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	today := startOfDay(now)
	res := Result{SubscriptionID: subscriptionID, Sent: []string{}}
	for _, days := range email.ReminderDays {
		day := startOfDay(sub.RenewalDate.AddDate(0, 0, -days))
		switch {
		case day.Equal(today):
			label := email.Label(days)
			if err := s.publisher.Publish(ctx, rabbitmq.ReminderRoutingKey, message(sub, owner, label)); err != nil {
				return Result{}, fmt.Errorf("%s: %w", op, err)
			}
			metrics.RemindersPublished.WithLabelValues(label).Inc()
			log.Info("reminder published", slog.String("label", label))
			res.Sent = append(res.Sent, label)
		case day.After(today) && (res.NextReminderAt == nil || day.Before(*res.NextReminderAt)):
			next := day
			res.NextReminderAt = &next
		}
	}
	return res, nil
}

func message(sub models.Subscription, owner models.User, label string) models.ReminderMessage {
	return models.ReminderMessage{
		To:               owner.Email,
		Label:            label,
		UserName:         owner.Name,
		SubscriptionID:   sub.ID,
		SubscriptionName: sub.Name,
		RenewalDate:      sub.RenewalDate,
		Price:            sub.Price,
		Currency:         sub.Currency,
		Frequency:        sub.Frequency,
		PaymentMethod:    string(sub.PaymentMethod),
	}
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
