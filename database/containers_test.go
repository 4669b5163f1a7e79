//go:build integration

package database

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type testDB struct {
	Container *tcpostgres.PostgresContainer
	Config    Config
	Database  Database
}

var (
	sharedTestDB     *testDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// getTestDB returns a migrated Postgres shared by every test in the run.
func getTestDB(t *testing.T) *testDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})
	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}
	return sharedTestDB
}

func setupTestDB() (*testDB, error) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("portfolio_test"),
		tcpostgres.WithUsername("portfolio"),
		tcpostgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	cfg := Config{
		Host:     host,
		User:     "portfolio",
		Password: "test_password",
		Name:     "portfolio_test",
		Port:     port.Port(),
		SSLMode:  "disable",
	}
	if err := RunMigrations(cfg.URL()); err != nil {
		return nil, err
	}

	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &testDB{Container: container, Config: cfg, Database: New(db, false)}, nil
}

// truncate empties every table between tests.
func (tdb *testDB) truncate(t *testing.T) {
	t.Helper()
	err := tdb.Database.GORM().Exec(`TRUNCATE project_metrics, project_tags, projects, certifications,
		education, experiences, skills, subcategories, categories, profiles`).Error
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}
