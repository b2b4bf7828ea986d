package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 5 * time.Second

	pgUndefinedTable = "42P01"
)

var ErrNotMigrated = errors.New("catalog table missing")

// PostgresSource reads the catalog from a products table whose list columns
// are JSONB arrays.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresSource) Products(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, name_ru, name_kk,
			       tagline, tagline_ru, tagline_kk,
			       description, description_ru, description_kk,
			       price, currency, category,
			       sizes, colors, images, tags, in_stock
			FROM products
			ORDER BY position ASC, id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 32)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if isUndefinedTable(err) {
		return nil, ErrNotMigrated
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return out, nil
}

func scanProduct(rows *sql.Rows) (Product, error) {
	var (
		p                           Product
		sizes, colors, images, tags []byte
	)
	err := rows.Scan(
		&p.ID, &p.Name, &p.NameRu, &p.NameKk,
		&p.Tagline, &p.TaglineRu, &p.TaglineKk,
		&p.Description, &p.DescriptionRu, &p.DescriptionKk,
		&p.Price, &p.Currency, &p.Category,
		&sizes, &colors, &images, &tags, &p.InStock,
	)
	if err != nil {
		return Product{}, err
	}

	for _, col := range []struct {
		raw []byte
		dst *[]string
	}{
		{sizes, &p.Sizes}, {colors, &p.Colors}, {images, &p.Images}, {tags, &p.Tags},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return Product{}, fmt.Errorf("product %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}
