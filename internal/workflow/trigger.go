package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
)

// Triggerer выполняет запрос к планировщику.
type Triggerer interface {
	Trigger(ctx context.Context, tr TriggerRequest) (string, error)
}

// Trigger запускает workflow напоминаний один раз, без повторов.
// Ошибка запуска только логируется: вызывающий получает nil вместо id.
type Trigger struct {
	client  Triggerer
	timeout time.Duration
	log     *slog.Logger
}

// NewTrigger создаёт Trigger. timeout ограничивает ожидание ответа планировщика.
func NewTrigger(client Triggerer, timeout time.Duration, log *slog.Logger) *Trigger {
	return &Trigger{
		client:  client,
		timeout: timeout,
		log:     log,
	}
}

// Fire запускает workflow для подписки и возвращает id запуска или nil.
// Отмена ctx запроса на вызов не влияет.
func (t *Trigger) Fire(ctx context.Context, callbackURL, subscriptionID string) *string {
	const op = "workflow.Trigger.Fire"
	log := t.log.With(
		slog.String("op", op),
		slog.String("subscription_id", subscriptionID),
	)

	ctx = context.WithoutCancel(ctx)
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	runID, err := t.client.Trigger(ctx, TriggerRequest{
		URL:     callbackURL,
		Body:    ReminderPayload{SubscriptionID: subscriptionID},
		Headers: map[string]string{"content-type": "application/json"},
		Retries: 0,
	})
	if err != nil {
		metrics.WorkflowTriggers.WithLabelValues(metrics.ResultFailure).Inc()
		log.Error("failed to trigger reminder workflow", sl.Err(err))
		return nil
	}

	metrics.WorkflowTriggers.WithLabelValues(metrics.ResultSuccess).Inc()
	log.Info("reminder workflow triggered", slog.String("workflow_run_id", runID))
	return &runID
}
