package rabbitmq

// QueueConfig очередь и ключ маршрутизации, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

const (
	// ReminderQueue очередь писем-напоминаний о продлении.
	ReminderQueue = "notification.reminder"
	// ReminderRoutingKey ключ маршрутизации напоминаний.
	ReminderRoutingKey = "reminder"
)

// GetNotificationQueues возвращает очереди, которые объявляют и API, и отправитель писем.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: ReminderQueue, RoutingKey: ReminderRoutingKey},
	}
}
