// Package metrics содержит счётчики Prometheus сервиса подписок.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// ResultSuccess исход успешной операции.
	ResultSuccess = "success"
	// ResultFailure исход неуспешной операции.
	ResultFailure = "failure"
)

var (
	// SubscriptionsCreated число созданных подписок.
	SubscriptionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "subscription_tracker",
		Name:      "subscriptions_created_total",
		Help:      "Number of created subscriptions.",
	})

	// WorkflowTriggers вызовы внешнего планировщика по исходу.
	WorkflowTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subscription_tracker",
		Name:      "workflow_trigger_total",
		Help:      "Reminder workflow trigger calls by result.",
	}, []string{"result"})

	// RemindersPublished опубликованные в очередь напоминания по метке.
	RemindersPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subscription_tracker",
		Name:      "reminders_published_total",
		Help:      "Reminder messages published to the notification queue.",
	}, []string{"label"})

	// EmailsSent отправленные письма по исходу.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subscription_tracker",
		Name:      "emails_sent_total",
		Help:      "Reminder e-mails handed to SMTP by result.",
	}, []string{"result"})
)
