package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Store persists each user's cumulative core-information blob. The blob is
// only ever replaced wholesale, never partially edited.
type Store struct {
	db *sql.DB
}

// NewStore creates a new profile Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CoreInformation returns the user's core-information blob, or an empty
// string when the user has none yet.
func (s *Store) CoreInformation(ctx context.Context, userID string) (string, error) {
	query := sq.Select("core_information").
		From("profiles").
		Where(sq.Eq{"user_id": userID})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var blob string
	err = s.db.QueryRowContext(ctx, queryStr, args...).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return blob, nil
}

// ReplaceCoreInformation atomically replaces the user's blob with the
// rewritten one.
func (s *Store) ReplaceCoreInformation(ctx context.Context, userID, blob string) error {
	// SQLite upsert; squirrel has no ON CONFLICT support so use Suffix.
	query := sq.Insert("profiles").
		Columns("user_id", "core_information", "updated_at").
		Values(userID, blob, time.Now().Unix()).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET core_information = excluded.core_information, updated_at = excluded.updated_at")

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryStr, args...)
	return err
}
