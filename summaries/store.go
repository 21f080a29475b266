package summaries

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Store handles persistence of daily summaries.
type Store struct {
	db *sql.DB
}

// NewStore creates a new summary Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save inserts a summary, assigning ID and timestamps. The (user_id, date)
// unique constraint rejects duplicates at the storage layer.
func (s *Store) Save(ctx context.Context, ds *DailySummary) error {
	if ds.ID == "" {
		ds.ID = uuid.NewString()
	}
	now := time.Now()
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = now
	}
	ds.UpdatedAt = now

	scoresJSON, err := json.Marshal(ds.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	query := sq.Insert("daily_summaries").
		Columns("id", "user_id", "summary_date", "summary_text", "scores_json", "analysis_text", "created_at", "updated_at").
		Values(ds.ID, ds.UserID, ds.Date, ds.SummaryText, string(scoresJSON), ds.AnalysisText, ds.CreatedAt.Unix(), ds.UpdatedAt.Unix())

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryStr, args...)
	return err
}

// Get returns the summary for a user and date, or ErrNotFound.
func (s *Store) Get(ctx context.Context, userID, date string) (*DailySummary, error) {
	query := s.selectSummaries().
		Where(sq.Eq{"user_id": userID, "summary_date": date})

	out, err := s.querySummaries(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

// Exists reports whether a summary exists for a user and date.
func (s *Store) Exists(ctx context.Context, userID, date string) (bool, error) {
	query := sq.Select("COUNT(1)").
		From("daily_summaries").
		Where(sq.Eq{"user_id": userID, "summary_date": date})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, queryStr, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByUser returns all of a user's summaries, most recent date first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]DailySummary, error) {
	query := s.selectSummaries().
		Where(sq.Eq{"user_id": userID}).
		OrderBy("summary_date DESC")
	return s.querySummaries(ctx, query)
}

// Delete removes the summary for a user and date. Deleting is what allows a
// new summary to be generated for that date.
func (s *Store) Delete(ctx context.Context, userID, date string) error {
	query := sq.Delete("daily_summaries").
		Where(sq.Eq{"user_id": userID, "summary_date": date})

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

func (s *Store) selectSummaries() sq.SelectBuilder {
	return sq.Select("id", "user_id", "summary_date", "summary_text", "scores_json", "analysis_text", "created_at", "updated_at").
		From("daily_summaries")
}

func (s *Store) querySummaries(ctx context.Context, query sq.SelectBuilder) ([]DailySummary, error) {
	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // No remedy for rows close errors

	var out []DailySummary
	for rows.Next() {
		var (
			ds         DailySummary
			scoresJSON string
			createdAt  int64
			updatedAt  int64
		)
		if err := rows.Scan(&ds.ID, &ds.UserID, &ds.Date, &ds.SummaryText, &scoresJSON, &ds.AnalysisText, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(scoresJSON), &ds.Scores); err != nil {
			ds.Scores = DefaultScores()
		}
		ds.CreatedAt = time.Unix(createdAt, 0)
		ds.UpdatedAt = time.Unix(updatedAt, 0)
		out = append(out, ds)
	}
	return out, rows.Err()
}
