package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

const subscriptionColumns = `id, name, price, currency, frequency, category, payment_method,
			      status, start_date, renewal_date, user_id, created_at, updated_at`

const errSubscriptionNotFound = "subscription not found"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (models.Subscription, error) {
	var sub models.Subscription
	var frequency sql.NullString
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Price, &sub.Currency, &frequency, &sub.Category,
		&sub.PaymentMethod, &sub.Status, &sub.StartDate, &sub.RenewalDate, &sub.UserID,
		&sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return models.Subscription{}, err
	}
	if frequency.Valid {
		sub.Frequency = models.Frequency(frequency.String)
	}
	sub.StartDate = sub.StartDate.UTC()
	sub.RenewalDate = sub.RenewalDate.UTC()
	sub.CreatedAt = sub.CreatedAt.UTC()
	sub.UpdatedAt = sub.UpdatedAt.UTC()
	return sub, nil
}

func nullFrequency(f models.Frequency) sql.NullString {
	return sql.NullString{String: string(f), Valid: f != ""}
}

// CreateSubscription вставляет новую подписку и возвращает её вместе с id и временем создания.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return models.Subscription{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (name, price, currency, frequency, category, payment_method,
			      status, start_date, renewal_date, user_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING ` + subscriptionColumns
	row := s.DB.QueryRowContext(ctx, query,
		sub.Name, sub.Price, sub.Currency, nullFrequency(sub.Frequency), sub.Category,
		sub.PaymentMethod, sub.Status, sub.StartDate, sub.RenewalDate, sub.UserID)

	created, err := scanSubscription(row)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetSubscription возвращает подписку по id.
func (s *Storage) GetSubscription(ctx context.Context, id string) (models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return models.Subscription{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return models.Subscription{}, fmt.Errorf("%s: %w", op, notFoundOr(err, errSubscriptionNotFound))
	}
	return sub, nil
}

// UpdateSubscription перезаписывает все изменяемые поля подписки.
// Последняя запись побеждает: проверки версии нет.
func (s *Storage) UpdateSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return models.Subscription{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET name = $1, price = $2, currency = $3, frequency = $4, category = $5,
			      payment_method = $6, status = $7, start_date = $8, renewal_date = $9,
			      updated_at = now()
			  WHERE id = $10
			  RETURNING ` + subscriptionColumns
	row := s.DB.QueryRowContext(ctx, query,
		sub.Name, sub.Price, sub.Currency, nullFrequency(sub.Frequency), sub.Category,
		sub.PaymentMethod, sub.Status, sub.StartDate, sub.RenewalDate, sub.ID)

	updated, err := scanSubscription(row)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("%s: %w", op, notFoundOr(err, errSubscriptionNotFound))
	}
	return updated, nil
}

// DeleteSubscription физически удаляет подписку.
func (s *Storage) DeleteSubscription(ctx context.Context, id string) error {
	const op = "storage.DeleteSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperr.NotFound(errSubscriptionNotFound))
	}
	return nil
}

// ListSubscriptions возвращает все подписки.
func (s *Storage) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions ORDER BY created_at, id`
	return s.querySubscriptions(ctx, op, query)
}

// ListSubscriptionsByUser возвращает подписки пользователя.
func (s *Storage) ListSubscriptionsByUser(ctx context.Context, userID string) ([]models.Subscription, error) {
	const op = "storage.ListSubscriptionsByUser"
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY created_at, id`
	return s.querySubscriptions(ctx, op, query, userID)
}

// ListRenewalsBetween возвращает активные подписки пользователя с продлением в [from, to].
func (s *Storage) ListRenewalsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Subscription, error) {
	const op = "storage.ListRenewalsBetween"
	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_id = $1
			    AND status = 'active'
			    AND renewal_date >= $2
			    AND renewal_date <= $3
			  ORDER BY renewal_date, id`
	return s.querySubscriptions(ctx, op, query, userID, from, to)
}

func (s *Storage) querySubscriptions(ctx context.Context, op, query string, args ...any) ([]models.Subscription, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
