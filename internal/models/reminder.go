package models

import "time"

// ReminderMessage сообщение в очередь уведомлений о скором продлении подписки.
type ReminderMessage struct {
	To               string    `json:"to"`
	Label            string    `json:"label"`
	UserName         string    `json:"userName"`
	SubscriptionID   string    `json:"subscriptionId"`
	SubscriptionName string    `json:"subscriptionName"`
	RenewalDate      time.Time `json:"renewalDate"`
	Price            float64   `json:"price"`
	Currency         Currency  `json:"currency"`
	Frequency        Frequency `json:"frequency"`
	PaymentMethod    string    `json:"paymentMethod"`
}

// ReminderRequest тело колбэка от планировщика.
type ReminderRequest struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
}
