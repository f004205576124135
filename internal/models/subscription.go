// Package models содержит доменные структуры подписки и пользователя,
// а также структуры для приёма данных из JSON-запросов.
package models

import "time"

// Currency валюта подписки.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyEGP Currency = "EGP"
)

// Frequency периодичность списаний.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Category категория подписки.
type Category string

const (
	CategoryEntertainment Category = "entertainment"
	CategoryEducation     Category = "education"
	CategoryProductivity  Category = "productivity"
	CategoryHealth        Category = "health"
	CategoryOther         Category = "other"
)

// PaymentMethod способ оплаты.
type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentPaypal       PaymentMethod = "paypal"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentOther        PaymentMethod = "other"
)

// Status состояние подписки.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Subscription основная модель подписки, используемая в бизнес-логике и хранилище.
// RenewalDate всегда позже StartDate после применения ApplyLifecycleRules.
type Subscription struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Price         float64       `json:"price"`
	Currency      Currency      `json:"currency"`
	Frequency     Frequency     `json:"frequency,omitempty"`
	Category      Category      `json:"category"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Status        Status        `json:"status"`
	StartDate     time.Time     `json:"startDate"`
	RenewalDate   time.Time     `json:"renewalDate"`
	UserID        string        `json:"user"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// SubscriptionRequest используется для приёма данных из JSON-запроса на создание,
// прежде чем конвертировать их в Subscription.
// Даты приходят строками (2006-01-02 или RFC3339) и парсятся в сервисе.
type SubscriptionRequest struct {
	Name          string   `json:"name" validate:"required"`
	Price         *float64 `json:"price" validate:"required,gte=0"`
	Currency      string   `json:"currency,omitempty" validate:"omitempty,oneof=USD EUR EGP"`
	Frequency     string   `json:"frequency,omitempty" validate:"omitempty,oneof=daily weekly monthly yearly"`
	Category      string   `json:"category,omitempty" validate:"omitempty,oneof=entertainment education productivity health other"`
	PaymentMethod string   `json:"paymentMethod" validate:"required"`
	Status        string   `json:"status,omitempty" validate:"omitempty,oneof=active cancelled expired"`
	StartDate     string   `json:"startDate" validate:"required"`
	RenewalDate   string   `json:"renewalDate,omitempty"`
}

// SubscriptionPatch частичное обновление подписки: nil означает "не менять".
// Владелец подписки через обновление не меняется.
type SubscriptionPatch struct {
	Name          *string  `json:"name,omitempty"`
	Price         *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Currency      *string  `json:"currency,omitempty" validate:"omitempty,oneof=USD EUR EGP"`
	Frequency     *string  `json:"frequency,omitempty" validate:"omitempty,oneof=daily weekly monthly yearly"`
	Category      *string  `json:"category,omitempty" validate:"omitempty,oneof=entertainment education productivity health other"`
	PaymentMethod *string  `json:"paymentMethod,omitempty"`
	Status        *string  `json:"status,omitempty" validate:"omitempty,oneof=active cancelled expired"`
	StartDate     *string  `json:"startDate,omitempty"`
	RenewalDate   *string  `json:"renewalDate,omitempty"`
}

// Caller аутентифицированный пользователь, от имени которого выполняется запрос.
type Caller struct {
	ID   string
	Role string
}

// IsAdmin сообщает, есть ли у пользователя права администратора.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
