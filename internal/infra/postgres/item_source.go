package postgres

import (
	"context"
	"errors"
	"fmt"

	"framequiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ItemSource reads collection version contents from Postgres. Versions and
// their items are written by the materialization pipeline; this side only
// reads them in ordinal order.
type ItemSource struct {
	pool *pgxpool.Pool
}

func NewItemSource(pool *pgxpool.Pool) *ItemSource {
	return &ItemSource{pool: pool}
}

func (s *ItemSource) ListItems(ctx context.Context, versionID int64) ([]domain.Item, error) {
	var exists int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM collection_versions WHERE id=$1`, versionID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrVersionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check version: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT ord, tmdb_id, media_type FROM collection_items WHERE version_id=$1 ORDER BY ord`, versionID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.Ord, &item.TitleID, &item.MediaType); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
