package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bisa-app/factcheck/internal/model"
	"github.com/lib/pq"
)

// Dialect selects placeholder style and column types
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS fact_checks (
	id TEXT PRIMARY KEY,
	post_id TEXT NOT NULL,
	run_status TEXT NOT NULL,
	accuracy_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	validity_status TEXT NOT NULL DEFAULT '',
	confidence_level TEXT NOT NULL DEFAULT '',
	ai_analysis TEXT NOT NULL DEFAULT '',
	claims TEXT NOT NULL DEFAULT '[]',
	sources TEXT NOT NULL DEFAULT '[]',
	sources_cited TEXT NOT NULL DEFAULT '',
	corrections TEXT NOT NULL DEFAULT '[]',
	reasoning TEXT NOT NULL DEFAULT '',
	checked_by TEXT NOT NULL DEFAULT '',
	checked_at %[1]s NOT NULL,
	finished_at %[1]s,
	error_detail TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_fact_checks_post_checked ON fact_checks(post_id, checked_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_fact_checks_one_pending ON fact_checks(post_id) WHERE run_status = 'PENDING';

CREATE TABLE IF NOT EXISTS fact_check_latest (
	post_id TEXT PRIMARY KEY,
	result_id TEXT NOT NULL REFERENCES fact_checks(id)
);
`

const resultColumns = `id, post_id, run_status, accuracy_score, validity_status, confidence_level,
	ai_analysis, claims, sources, sources_cited, corrections, reasoning,
	checked_by, checked_at, finished_at, error_detail`

// SQLStore persists runs in SQLite or PostgreSQL
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps an open database. Call Migrate before first use.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// Migrate creates the schema if it does not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	tsType := "TIMESTAMP"
	if s.dialect == DialectPostgres {
		tsType = "TIMESTAMPTZ"
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(schemaTemplate, tsType)); err != nil {
		return fmt.Errorf("migrate %s: %w", s.dialect, err)
	}
	return nil
}

func (s *SQLStore) Create(ctx context.Context, r *model.FactCheckResult) error {
	if r.RunStatus != model.RunPending {
		return fmt.Errorf("create %s: status %s is not PENDING", r.ID, r.RunStatus)
	}

	args, err := rowArgs(r)
	if err != nil {
		return fmt.Errorf("create %s: %w", r.ID, err)
	}

	query := s.rebind(`INSERT INTO fact_checks (` + resultColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("post %s: %w", r.PostID, ErrPendingExists)
		}
		return fmt.Errorf("create %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLStore) Finish(ctx context.Context, r *model.FactCheckResult) error {
	if !r.RunStatus.IsFinal() {
		return fmt.Errorf("finish %s: status %s is not final", r.ID, r.RunStatus)
	}

	claims, sources, corrections, err := encodeLists(r)
	if err != nil {
		return fmt.Errorf("finish %s: %w", r.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finish %s: %w", r.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, s.rebind(`UPDATE fact_checks SET
			run_status = ?, accuracy_score = ?, validity_status = ?, confidence_level = ?,
			ai_analysis = ?, claims = ?, sources = ?, sources_cited = ?, corrections = ?,
			reasoning = ?, finished_at = ?, error_detail = ?
		WHERE id = ? AND run_status = 'PENDING'`),
		string(r.RunStatus), r.AccuracyScore, string(r.ValidityStatus), string(r.ConfidenceLevel),
		r.AIAnalysis, claims, sources, r.SourcesCited, corrections,
		r.Reasoning, utcPtr(r.FinishedAt), r.ErrorDetail,
		r.ID)
	if err != nil {
		return fmt.Errorf("finish %s: %w", r.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("finish %s: %w", r.ID, err)
	} else if n == 0 {
		return fmt.Errorf("finish %s: %w", r.ID, ErrNotPending)
	}

	if r.RunStatus == model.RunCompleted {
		if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO fact_check_latest (post_id, result_id)
			VALUES (?, ?)
			ON CONFLICT(post_id) DO UPDATE SET result_id = excluded.result_id`),
			r.PostID, r.ID); err != nil {
			return fmt.Errorf("set latest %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finish %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLStore) Latest(ctx context.Context, postID string) (*model.FactCheckResult, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+prefixed("f", resultColumns)+`
		FROM fact_checks f
		JOIN fact_check_latest l ON l.result_id = f.id
		WHERE l.post_id = ?`), postID)

	r, err := scanResult(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest for %s: %w", postID, err)
	}
	return r, nil
}

func (s *SQLStore) History(ctx context.Context, postID string, page, size int) ([]*model.FactCheckResult, error) {
	page, size = normalizePage(page, size)

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+resultColumns+`
		FROM fact_checks
		WHERE post_id = ?
		ORDER BY checked_at DESC, id DESC
		LIMIT ? OFFSET ?`), postID, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("get history for %s: %w", postID, err)
	}
	defer rows.Close()

	out := []*model.FactCheckResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history for %s: %w", postID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get history for %s: %w", postID, err)
	}
	return out, nil
}

func (s *SQLStore) Pending(ctx context.Context, postID string) (*model.FactCheckResult, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+resultColumns+`
		FROM fact_checks
		WHERE post_id = ? AND run_status = 'PENDING'`), postID)

	r, err := scanResult(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get pending for %s: %w", postID, err)
	}
	return r, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row scanner) (*model.FactCheckResult, error) {
	var (
		r                            model.FactCheckResult
		runStatus, validity, level   string
		claims, sources, corrections string
		finishedAt                   sql.NullTime
	)
	if err := row.Scan(
		&r.ID, &r.PostID, &runStatus, &r.AccuracyScore, &validity, &level,
		&r.AIAnalysis, &claims, &sources, &r.SourcesCited, &corrections, &r.Reasoning,
		&r.CheckedBy, &r.CheckedAt, &finishedAt, &r.ErrorDetail,
	); err != nil {
		return nil, err
	}

	r.RunStatus = model.RunStatus(runStatus)
	r.ValidityStatus = model.ValidityStatus(validity)
	r.ConfidenceLevel = model.ConfidenceLevel(level)
	r.CheckedAt = r.CheckedAt.UTC()
	if finishedAt.Valid {
		t := finishedAt.Time.UTC()
		r.FinishedAt = &t
	}

	if err := json.Unmarshal([]byte(claims), &r.Claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	if err := json.Unmarshal([]byte(sources), &r.Sources); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	if err := json.Unmarshal([]byte(corrections), &r.Corrections); err != nil {
		return nil, fmt.Errorf("decode corrections: %w", err)
	}
	return &r, nil
}

func rowArgs(r *model.FactCheckResult) ([]interface{}, error) {
	claims, sources, corrections, err := encodeLists(r)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		r.ID, r.PostID, string(r.RunStatus), r.AccuracyScore, string(r.ValidityStatus), string(r.ConfidenceLevel),
		r.AIAnalysis, claims, sources, r.SourcesCited, corrections, r.Reasoning,
		r.CheckedBy, r.CheckedAt.UTC(), utcPtr(r.FinishedAt), r.ErrorDetail,
	}, nil
}

func encodeLists(r *model.FactCheckResult) (claims, sources, corrections string, err error) {
	encode := func(v interface{}, empty bool) (string, error) {
		if empty {
			return "[]", nil
		}
		b, err := json.Marshal(v)
		return string(b), err
	}
	if claims, err = encode(r.Claims, len(r.Claims) == 0); err != nil {
		return "", "", "", fmt.Errorf("encode claims: %w", err)
	}
	if sources, err = encode(r.Sources, len(r.Sources) == 0); err != nil {
		return "", "", "", fmt.Errorf("encode sources: %w", err)
	}
	if corrections, err = encode(r.Corrections, len(r.Corrections) == 0); err != nil {
		return "", "", "", fmt.Errorf("encode corrections: %w", err)
	}
	return claims, sources, corrections, nil
}

func utcPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
