package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUndefinedTable = "42P01"

var ErrSlotsNotMigrated = errors.New("cart_slots table missing")

// PostgresSlots keeps carts in a shared Postgres table so any replica can
// serve a session. Registries over it must set RegistryOptions.Reload so
// each request starts from the latest saved cart.
type PostgresSlots struct {
	db *sql.DB
}

func NewPostgresSlots(db *sql.DB) *PostgresSlots {
	return &PostgresSlots{db: db}
}

func (s *PostgresSlots) Migrate(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS cart_slots (
				key        TEXT PRIMARY KEY,
				data       JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)
		`)
		return err
	})
}

func (s *PostgresSlots) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresSlots) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT data::text
			FROM cart_slots
			WHERE key = $1
		`, key).Scan(&data)
	})

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case isUndefinedTable(err):
		return nil, false, ErrSlotsNotMigrated
	case err != nil:
		return nil, false, fmt.Errorf("load slot: %w", err)
	}
	return data, true, nil
}

func (s *PostgresSlots) Store(ctx context.Context, key string, data []byte) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO cart_slots (key, data, updated_at)
			VALUES ($1, $2::jsonb, $3)
			ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
		`, key, string(data), time.Now().UTC())
		return err
	})
	if isUndefinedTable(err) {
		return ErrSlotsNotMigrated
	}
	return err
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}
