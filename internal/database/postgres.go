package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"litterbugs/internal/config"

	_ "github.com/lib/pq"
	"go.uber.org/fx"
)

// PostgresDB holds the optional SQL row store. DB is nil unless
// REPORT_STORE=postgres.
type PostgresDB struct {
	DB *sql.DB
}

func NewPostgres(lc fx.Lifecycle, cfg *config.Config) (*PostgresDB, error) {
	if cfg.ReportStore != config.ReportStorePostgres {
		return &PostgresDB{}, nil
	}
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("REPORT_STORE=postgres requires POSTGRES_DSN")
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	log.Println("Connected to PostgreSQL!")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Closing PostgreSQL pool...")
			return db.Close()
		},
	})

	return &PostgresDB{DB: db}, nil
}
