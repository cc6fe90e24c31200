package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/magabrotheeeer/classifieds/internal/lib/password"
	"github.com/magabrotheeeer/classifieds/internal/migrations"
	"github.com/magabrotheeeer/classifieds/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	password.Cost = bcrypt.MinCost

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(3*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(connStr)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = storage.Close()
	})

	require.NoError(t, migrations.Run(storage.DB, "../../migrations"))
	return storage
}

func newTestUser(t *testing.T, s *Storage, email string) *models.User {
	t.Helper()
	u := &models.User{
		Name:        "Test User",
		Email:       email,
		NewPassword: "password123",
	}
	_, err := s.CreateUser(context.Background(), u)
	require.NoError(t, err)
	return u
}

func newTestListing(t *testing.T, s *Storage, ownerUID string, n int) *models.Listing {
	t.Helper()
	l := &models.Listing{
		OwnerUID:    ownerUID,
		Title:       fmt.Sprintf("Listing %d", n),
		Price:       100 * (n + 1),
		Category:    "electronics",
		Description: "good condition",
		Images:      []models.Image{{ID: fmt.Sprintf("img-%d", n), URL: "http://img/" + fmt.Sprint(n)}},
	}
	_, err := s.CreateListing(context.Background(), l)
	require.NoError(t, err)
	return l
}
