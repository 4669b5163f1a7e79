package database

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/portfolio-backend/config"
)

// Config describes the Supabase Postgres connection and optional read replicas.
type Config struct {
	Host         string
	User         string
	Password     string
	Name         string
	Port         string
	SSLMode      string
	ReplicaHosts []string
	EnforceRLS   bool
}

func ConfigFromMap(cfg map[string]string) Config {
	return Config{
		Host:         config.GetString(cfg, "SUPABASE_DB_HOST", ""),
		User:         config.GetString(cfg, "SUPABASE_DB_USER", ""),
		Password:     config.GetString(cfg, "SUPABASE_DB_PASSWORD", ""),
		Name:         config.GetString(cfg, "SUPABASE_DB_NAME", "postgres"),
		Port:         config.GetString(cfg, "SUPABASE_DB_PORT", "5432"),
		SSLMode:      config.GetString(cfg, "SUPABASE_DB_SSLMODE", "require"),
		ReplicaHosts: config.GetList(cfg, "SUPABASE_DB_REPLICA_HOSTS"),
		EnforceRLS:   config.GetBool(cfg, "DB_ENFORCE_RLS", false),
	}
}

func (c Config) dsn(host string) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// URL renders the primary connection as a postgres:// URL, the form golang-migrate expects.
func (c Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// Open connects to the primary and registers any replicas for read traffic.
func Open(ctx context.Context, c Config) (*gorm.DB, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("database host is not configured")
	}

	gormLogger := logger.New(
		log.New(zlog.Logger.With().Str("component", "gorm").Logger(), "", 0),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  c.dsn(c.Host),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if len(c.ReplicaHosts) > 0 {
		replicas := make([]gorm.Dialector, 0, len(c.ReplicaHosts))
		for _, host := range c.ReplicaHosts {
			replicas = append(replicas, postgres.New(postgres.Config{
				DSN:                  c.dsn(host),
				PreferSimpleProtocol: true,
			}))
		}
		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})
		if err := db.Use(resolver); err != nil {
			return nil, fmt.Errorf("error registering read replicas: %w", err)
		}
		zlog.Info().Int("replicas", len(replicas)).Msg("Read replicas registered")
	}

	var result int
	if err := db.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("error testing database connection: %w", err)
	}
	return db, nil
}
