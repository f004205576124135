package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/subscription-tracker/internal/migrations"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// testDataFactory создаёт тестовые данные напрямую через хранилище.
type testDataFactory struct {
	storage *Storage
}

func (f *testDataFactory) createUser(t *testing.T, name, email string) models.User {
	t.Helper()
	u, err := f.storage.CreateUser(context.Background(), models.User{
		Name:         name,
		Email:        email,
		PasswordHash: "hash",
		Role:         models.RoleUser,
	})
	require.NoError(t, err)
	return u
}

func (f *testDataFactory) createSubscription(t *testing.T, userID, name string, renewal time.Time) models.Subscription {
	t.Helper()
	sub, err := f.storage.CreateSubscription(context.Background(), models.Subscription{
		Name:          name,
		Price:         9.99,
		Currency:      models.CurrencyUSD,
		Frequency:     models.FrequencyMonthly,
		Category:      models.CategoryEntertainment,
		PaymentMethod: models.PaymentCreditCard,
		Status:        models.StatusActive,
		StartDate:     renewal.AddDate(0, 0, -30),
		RenewalDate:   renewal,
		UserID:        userID,
	})
	require.NoError(t, err)
	return sub
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, *testDataFactory) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(connStr)
	require.NoError(t, err, "failed to create storage")

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))

	t.Cleanup(func() {
		_ = storage.Close()
		_ = pgContainer.Terminate(ctx)
	})
	return storage, &testDataFactory{storage: storage}
}
