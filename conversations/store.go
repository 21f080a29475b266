package conversations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Turn is a single chat message, either from the user or the assistant.
// Turns are immutable once created and ordered by timestamp.
type Turn struct {
	ID        int64
	UserID    string
	Text      string
	FromUser  bool
	CreatedAt time.Time
}

// Store handles persistence of chat turns.
type Store struct {
	db *sql.DB
}

// NewStore creates a new conversation Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// AppendUserTurn saves a user message to the conversation history.
func (s *Store) AppendUserTurn(ctx context.Context, userID, text string) error {
	return s.append(ctx, userID, text, true, time.Now())
}

// AppendAssistantTurn saves an assistant reply to the conversation history.
func (s *Store) AppendAssistantTurn(ctx context.Context, userID, text string) error {
	return s.append(ctx, userID, text, false, time.Now())
}

// AppendTurnAt saves a turn with an explicit timestamp. Used by backfill and tests.
func (s *Store) AppendTurnAt(ctx context.Context, userID, text string, fromUser bool, at time.Time) error {
	return s.append(ctx, userID, text, fromUser, at)
}

func (s *Store) append(ctx context.Context, userID, text string, fromUser bool, at time.Time) error {
	query := sq.Insert("chat_turns").
		Columns("user_id", "text", "from_user", "created_at").
		Values(userID, text, fromUser, at.UnixNano())

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryStr, args...)
	return err
}

// Recent returns the user's last n turns in chronological order.
func (s *Store) Recent(ctx context.Context, userID string, n int) ([]Turn, error) {
	query := sq.Select("id", "user_id", "text", "from_user", "created_at").
		From("chat_turns").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(n)) //nolint:gosec // n is a small positive limit

	turns, err := s.queryTurns(ctx, query)
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Between returns the user's turns with from <= created_at <= to, oldest first.
// Both bounds are inclusive.
func (s *Store) Between(ctx context.Context, userID string, from, to time.Time) ([]Turn, error) {
	query := sq.Select("id", "user_id", "text", "from_user", "created_at").
		From("chat_turns").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"created_at": from.UnixNano()}).
		Where(sq.LtOrEq{"created_at": to.UnixNano()}).
		OrderBy("created_at ASC", "id ASC")

	return s.queryTurns(ctx, query)
}

func (s *Store) queryTurns(ctx context.Context, query sq.SelectBuilder) ([]Turn, error) {
	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // No remedy for rows close errors

	var turns []Turn
	for rows.Next() {
		var (
			t         Turn
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Text, &t.FromUser, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = time.Unix(0, createdAt)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
