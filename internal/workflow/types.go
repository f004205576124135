package workflow

// TriggerRequest тело запроса на запуск workflow у планировщика.
type TriggerRequest struct {
	URL     string            `json:"url"`
	Body    any               `json:"body"`
	Headers map[string]string `json:"headers"`
	Retries int               `json:"retries"`
}

// TriggerResponse ответ планировщика на запуск workflow.
type TriggerResponse struct {
	WorkflowRunID string `json:"workflowRunId"`
}

// ReminderPayload тело, которое планировщик вернёт в колбэк напоминаний.
type ReminderPayload struct {
	SubscriptionID string `json:"subscriptionId"`
}
