package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// StatusError is the stored status of a lookup whose outcome carries an error.
const StatusError = "error"

const defaultHistoryLimit = 20

// LookupRecord is one stored top-level query.
type LookupRecord struct {
	CreatedAt      time.Time     `json:"created_at"`
	RequestID      string        `json:"request_id,omitempty"`
	Address        string        `json:"address"`
	Status         string        `json:"status"`
	Error          string        `json:"error,omitempty"`
	Outcome        model.Outcome `json:"outcome"`
	ID             int64         `json:"id"`
	CandidateCount int           `json:"candidate_count"`
}

// HistoryFilter narrows RecentLookups. Zero values match everything.
type HistoryFilter struct {
	Since  *time.Time
	Status string
	Code   string
	Limit  int
}

var lookupColumns = []string{
	"id", "request_id", "address", "status", "error", "candidate_count", "outcome_json", "created_at",
}

// RecordLookup stores the outcome of one query and returns its row ID.
func (s *SQLiteStorage) RecordLookup(ctx context.Context, requestID, address string, outcome model.Outcome) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(address, "address"); err != nil {
		return 0, err
	}

	payload, err := json.Marshal(outcome)
	if err != nil {
		return 0, fmt.Errorf("failed to encode outcome: %w", err)
	}

	results := outcome.Results()
	status := string(outcome.Status)
	if outcome.Failed() {
		status = StatusError
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := sq.Insert("lookups").
		Columns("request_id", "address", "status", "error", "candidate_count", "outcome_json", "created_at").
		Values(nullString(requestID), address, status, nullString(outcome.Error), len(results), string(payload), time.Now().UTC()).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert lookup: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read lookup id: %w", err)
	}

	if len(results) > 0 {
		insert := sq.Insert("lookup_candidates").
			Columns("lookup_id", "position", "business_name", "match_method", "code", "title", "ai_code")
		for i, r := range results {
			var aiCode sql.NullString
			if r.AIClassification != nil {
				aiCode = nullString(r.AIClassification.Code)
			}
			insert = insert.Values(id, i, r.BusinessName, string(r.MatchMethod),
				r.RecommendedClassification.Code, r.RecommendedClassification.Title, aiCode)
		}

		query, args, err = insert.ToSql()
		if err != nil {
			return 0, fmt.Errorf("failed to build candidate insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("failed to insert candidates: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit lookup: %w", err)
	}
	return id, nil
}

// RecentLookups returns stored lookups, newest first.
func (s *SQLiteStorage) RecentLookups(ctx context.Context, filter HistoryFilter) ([]LookupRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.Limit < 0 {
		return nil, ErrInvalidLimit
	}
	if err := validateStatus(filter.Status); err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}

	builder := sq.Select(lookupColumns...).
		From("lookups").
		OrderBy("id DESC").
		Limit(uint64(limit))

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Since != nil {
		builder = builder.Where(sq.GtOrEq{"created_at": filter.Since.UTC()})
	}
	if filter.Code != "" {
		builder = builder.Where(sq.Expr(
			"id IN (SELECT lookup_id FROM lookup_candidates WHERE code = ? OR ai_code = ?)",
			filter.Code, filter.Code))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []LookupRecord
	for rows.Next() {
		record, err := scanLookup(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lookups: %w", err)
	}
	return records, nil
}

// GetLookup returns the lookup with id.
func (s *SQLiteStorage) GetLookup(ctx context.Context, id int64) (LookupRecord, error) {
	if err := validateContext(ctx); err != nil {
		return LookupRecord{}, err
	}

	query, args, err := sq.Select(lookupColumns...).
		From("lookups").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return LookupRecord{}, fmt.Errorf("failed to build query: %w", err)
	}

	record, err := scanLookup(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return LookupRecord{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return record, err
}

// DeleteLookupsBefore removes lookups older than cutoff and returns how many were removed.
func (s *SQLiteStorage) DeleteLookupsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cut := cutoff.UTC()
	query, args, err := sq.Delete("lookup_candidates").
		Where(sq.Expr("lookup_id IN (SELECT id FROM lookups WHERE created_at < ?)", cut)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("failed to delete candidates: %w", err)
	}

	query, args, err = sq.Delete("lookups").Where(sq.Lt{"created_at": cut}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete lookups: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted lookups: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLookup(row rowScanner) (LookupRecord, error) {
	var (
		record    LookupRecord
		requestID sql.NullString
		errMsg    sql.NullString
		payload   string
	)
	if err := row.Scan(&record.ID, &requestID, &record.Address, &record.Status, &errMsg,
		&record.CandidateCount, &payload, &record.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LookupRecord{}, err
		}
		return LookupRecord{}, fmt.Errorf("failed to scan lookup: %w", err)
	}
	record.RequestID = requestID.String
	record.Error = errMsg.String

	if err := json.Unmarshal([]byte(payload), &record.Outcome); err != nil {
		return LookupRecord{}, fmt.Errorf("failed to decode outcome for lookup %d: %w", record.ID, err)
	}
	return record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
