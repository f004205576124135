package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
)

var renewalPeriods = map[Frequency]int{
	FrequencyDaily:   1,
	FrequencyWeekly:  7,
	FrequencyMonthly: 30,
	FrequencyYearly:  365,
}

// RenewalPeriod возвращает число дней между продлениями для периодичности.
func RenewalPeriod(f Frequency) (int, bool) {
	days, ok := renewalPeriods[f]
	return days, ok
}

// ApplyLifecycleRules применяется перед каждой записью подписки в хранилище.
//
// Сначала, если дата продления не задана, она вычисляется как StartDate + N дней
// по периодичности. Затем, если дата продления уже прошла, статус принудительно
// становится expired, даже если в этой же операции был выставлен другой статус.
// Порядок шагов менять нельзя: иначе истечение проверялось бы по старой дате.
func ApplyLifecycleRules(sub Subscription, now time.Time) (Subscription, error) {
	if sub.RenewalDate.IsZero() {
		days, ok := RenewalPeriod(sub.Frequency)
		if !ok {
			return sub, apperr.Validation("frequency is required to derive renewal date")
		}
		sub.RenewalDate = sub.StartDate.AddDate(0, 0, days)
	}

	if sub.RenewalDate.Before(now) {
		sub.Status = StatusExpired
	}
	return sub, nil
}

// Normalize обрезает пробелы и проставляет значения по умолчанию.
func (s *Subscription) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.PaymentMethod = PaymentMethod(strings.TrimSpace(string(s.PaymentMethod)))
	if s.Currency == "" {
		s.Currency = CurrencyUSD
	}
	if s.Category == "" {
		s.Category = CategoryOther
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
}

// Validate проверяет поля подписки. Дата начала сравнивается с now только
// при checkStart: при обновлении она проверяется лишь если её меняют.
func (s Subscription) Validate(now time.Time, checkStart bool) error {
	n := utf8.RuneCountInString(s.Name)
	switch {
	case n < 2:
		return apperr.Validation("subscription name must be at least 2 characters long")
	case n > 100:
		return apperr.Validation("subscription name must be at most 100 characters long")
	case s.Price < 0:
		return apperr.Validation("price must be at least 0")
	case !validCurrency(s.Currency):
		return apperr.Validation("invalid currency")
	case s.Frequency != "" && !validFrequency(s.Frequency):
		return apperr.Validation("invalid frequency")
	case !validCategory(s.Category):
		return apperr.Validation("invalid category")
	case !validPaymentMethod(s.PaymentMethod):
		return apperr.Validation("invalid payment method")
	case !validStatus(s.Status):
		return apperr.Validation("invalid status")
	case s.StartDate.IsZero():
		return apperr.Validation("start date is required")
	case checkStart && s.StartDate.After(now):
		return apperr.Validation("start date cannot be in the future")
	case s.UserID == "":
		return apperr.Validation("subscription user is required")
	}
	if !s.RenewalDate.IsZero() && !s.RenewalDate.After(s.StartDate) {
		return apperr.Validation("renewal date must be after start date")
	}
	return nil
}

func validCurrency(c Currency) bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyEGP:
		return true
	}
	return false
}

func validFrequency(f Frequency) bool {
	_, ok := renewalPeriods[f]
	return ok
}

func validCategory(c Category) bool {
	switch c {
	case CategoryEntertainment, CategoryEducation, CategoryProductivity, CategoryHealth, CategoryOther:
		return true
	}
	return false
}

func validPaymentMethod(p PaymentMethod) bool {
	switch p {
	case PaymentCreditCard, PaymentDebitCard, PaymentPaypal, PaymentBankTransfer, PaymentOther:
		return true
	}
	return false
}

func validStatus(s Status) bool {
	switch s {
	case StatusActive, StatusCancelled, StatusExpired:
		return true
	}
	return false
}
