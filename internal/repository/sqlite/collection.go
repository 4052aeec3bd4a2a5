package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/snippet-lab/internal/apperror"
	"github.com/sakif/snippet-lab/internal/model"
)

func (db *DB) AddCollection(ctx context.Context, c model.Collection) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO collections (id, name, icon, color) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Icon, c.Color,
	)
	if err != nil {
		// modernc reports constraint violations as plain errors; match on text.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict(fmt.Sprintf("collection %s already exists", c.ID))
		}
		return fmt.Errorf("sqlite: creating collection %s: %w", c.ID, err)
	}
	return nil
}

func (db *DB) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	var c model.Collection
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, icon, color FROM collections WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Icon, &c.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("collection", id)
		}
		return nil, fmt.Errorf("sqlite: getting collection %s: %w", id, err)
	}
	return &c, nil
}

// Collections returns the collection set in insertion order.
func (db *DB) Collections(ctx context.Context) ([]model.Collection, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, icon, color FROM collections ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing collections: %w", err)
	}
	defer rows.Close()

	out := []model.Collection{}
	for rows.Next() {
		var c model.Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("sqlite: scanning collection row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating collections: %w", err)
	}
	return out, nil
}
