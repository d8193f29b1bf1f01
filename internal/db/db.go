package db

import (
	"fmt"

	"github.com/sirsiprashanth/trigr-payments/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// DBClient wraps the sqlx connection pool.
type DBClient struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewDBClient connects to Postgres and verifies the connection.
func NewDBClient(dsn string, log *logger.Logger) (*DBClient, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		log.Errorw("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		log.Errorw("Failed to ping database", "error", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DBClient{db: db, log: log}, nil
}

// DB exposes the underlying sqlx handle.
func (dc *DBClient) DB() *sqlx.DB {
	return dc.db
}

// Close closes the connection pool.
func (dc *DBClient) Close() error {
	if err := dc.db.Close(); err != nil {
		dc.log.Errorw("Failed to close database connection", "error", err)
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}
