package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snippet-lab/internal/apperror"
	"github.com/sakif/snippet-lab/internal/model"
	"github.com/sakif/snippet-lab/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// If *DB stops implementing repository.Store, the build fails here.
var _ repository.Store = (*DB)(nil)

const snippetColumns = `id, title, description, code, language, tags, created_at, updated_at,
	is_pinned, is_favorite, views, explanation, collection_id`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Add inserts a new snippet. The autoincrement seq column puts it at the
// head of the store sequence.
func (db *DB) Add(ctx context.Context, snippet *model.Snippet) error {
	now := db.now()
	snippet.ID = xid.New().String()
	if snippet.CreatedAt.IsZero() {
		snippet.CreatedAt = now
	}
	snippet.UpdatedAt = time.Time{}
	snippet.Touch(now)
	if snippet.Tags == nil {
		snippet.Tags = []string{}
	}

	tags, err := json.Marshal(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO snippets (`+snippetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		snippet.Language,
		string(tags),
		snippet.CreatedAt,
		snippet.UpdatedAt,
		snippet.IsPinned,
		snippet.IsFavorite,
		snippet.Views,
		snippet.Explanation,
		nullString(snippet.CollectionID),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet by its ID.
// sql.ErrNoRows is translated into apperror.NotFound.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id)

	snippet, err := scanSnippet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}
	return snippet, nil
}

// List returns every snippet in store order (newest insert first).
func (db *DB) List(ctx context.Context) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := []model.Snippet{}
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

func (db *DB) SetPinned(ctx context.Context, id string, pinned bool) (*model.Snippet, error) {
	return db.update(ctx, id, "is_pinned", pinned)
}

func (db *DB) SetFavorite(ctx context.Context, id string, favorite bool) (*model.Snippet, error) {
	return db.update(ctx, id, "is_favorite", favorite)
}

func (db *DB) SetExplanation(ctx context.Context, id, explanation string) (*model.Snippet, error) {
	return db.update(ctx, id, "explanation", explanation)
}

// update sets one column and bumps updated_at. column is always one of the
// constants passed by the setters above, never user input.
//
// The read-modify-write runs in a transaction so updated_at stays monotonic.
func (db *DB) update(ctx context.Context, id, column string, value any) (*model.Snippet, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning update of %s: %w", id, err)
	}
	defer tx.Rollback()

	current, err := scanSnippet(tx.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: loading snippet %s: %w", id, err)
	}
	current.Touch(db.now())

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE snippets SET %s = ?, updated_at = ? WHERE id = ?`, column),
		value, current.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating snippet %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing update of %s: %w", id, err)
	}

	return db.GetByID(ctx, id)
}

func scanSnippet(row rowScanner) (*model.Snippet, error) {
	var (
		s            model.Snippet
		tags         string
		collectionID sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.Title, &s.Description, &s.Code, &s.Language, &tags,
		&s.CreatedAt, &s.UpdatedAt,
		&s.IsPinned, &s.IsFavorite, &s.Views, &s.Explanation, &collectionID,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &s.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of %s: %w", s.ID, err)
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	s.CollectionID = collectionID.String
	return &s, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
