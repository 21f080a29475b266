package reminders

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a reminder does not exist.
var ErrNotFound = fmt.Errorf("reminder not found")

// Store handles persistence of reminders.
type Store struct {
	db *sql.DB
}

// NewStore creates a new reminder Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save inserts a reminder, assigning an ID and created-at timestamp.
// An empty status defaults to INCOMPLETE.
func (s *Store) Save(ctx context.Context, r *Reminder) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = StatusIncomplete
	}
	if len(r.Tags) == 0 {
		r.Tags = []Tag{TagOther}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	tagsJSON, err := json.Marshal(r.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	query := sq.Insert("reminders").
		Columns("id", "user_id", "title", "description", "due_at", "tags_json", "status", "created_at").
		Values(r.ID, r.UserID, r.Title, r.Description, r.DueAt.Unix(), string(tagsJSON), string(r.Status), r.CreatedAt.Unix())

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryStr, args...)
	return err
}

// ListByUser returns all reminders for a user ordered by due time.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Reminder, error) {
	query := s.selectReminders().
		Where(sq.Eq{"user_id": userID}).
		OrderBy("due_at ASC")
	return s.queryReminders(ctx, query)
}

// Upcoming returns the user's next n incomplete reminders due after the given time.
func (s *Store) Upcoming(ctx context.Context, userID string, after time.Time, n int) ([]Reminder, error) {
	query := s.selectReminders().
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"status": string(StatusIncomplete)}).
		Where(sq.Gt{"due_at": after.Unix()}).
		OrderBy("due_at ASC").
		Limit(uint64(n)) //nolint:gosec // n is a small positive limit
	return s.queryReminders(ctx, query)
}

// MarkComplete sets a reminder's status to COMPLETE.
func (s *Store) MarkComplete(ctx context.Context, id string) error {
	query := sq.Update("reminders").
		Set("status", string(StatusComplete)).
		Where(sq.Eq{"id": id})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a reminder.
func (s *Store) Delete(ctx context.Context, id string) error {
	query := sq.Delete("reminders").Where(sq.Eq{"id": id})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) selectReminders() sq.SelectBuilder {
	return sq.Select("id", "user_id", "title", "description", "due_at", "tags_json", "status", "created_at").
		From("reminders")
}

func (s *Store) queryReminders(ctx context.Context, query sq.SelectBuilder) ([]Reminder, error) {
	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // No remedy for rows close errors

	var out []Reminder
	for rows.Next() {
		var (
			r         Reminder
			dueAt     int64
			tagsJSON  string
			status    string
			createdAt int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &dueAt, &tagsJSON, &status, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil {
			r.Tags = []Tag{TagOther}
		}
		r.DueAt = time.Unix(dueAt, 0)
		r.Status = Status(status)
		r.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}
