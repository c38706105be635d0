package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codeclash-oj/apiserver/types"
)

// PostgresStore is a SubmissionStore backed by Postgres.
//
// IDs come from a bigserial column, so Append keeps the monotonic
// sequence guarantee across processes.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a Postgres-backed submission store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const submissionColumns = `id, challenge_id, user_id, code, language, status, score,
	execution_time, memory, tests_passed, tests_total, test_results, submitted_at`

// Append inserts the submission and returns it with its assigned ID.
func (s *PostgresStore) Append(ctx context.Context, sub types.Submission) (types.Submission, error) {
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now()
	}

	resultsJSON, err := json.Marshal(sub.TestCaseResults)
	if err != nil {
		return types.Submission{}, err
	}

	const query = `
		INSERT INTO submissions (
			challenge_id, user_id, code, language, status, score,
			execution_time, memory, tests_passed, tests_total,
			test_results, submitted_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	if err := s.db.QueryRowContext(
		ctx,
		query,
		sub.ChallengeID,
		sub.UserID,
		sub.Code,
		sub.Language,
		int(sub.Status),
		sub.Score,
		sub.ExecutionTime,
		sub.Memory,
		sub.TestsPassed,
		sub.TestsTotal,
		resultsJSON,
		sub.SubmittedAt,
	).Scan(&sub.ID); err != nil {
		return types.Submission{}, err
	}

	return sub, nil
}

// Get returns the submission with the given ID.
func (s *PostgresStore) Get(ctx context.Context, id int64) (types.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE id = $1`, submissionColumns)
	sub, err := scanSubmission(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Submission{}, ErrNotFound
		}
		return types.Submission{}, err
	}
	return sub, nil
}

// Query returns the filtered page and the total number of matches.
func (s *PostgresStore) Query(ctx context.Context, q Query) ([]types.Submission, int, error) {
	where, args := buildWhere(q.Filter)

	countQuery := "SELECT COUNT(1) FROM submissions" + where
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	column := "submitted_at"
	switch q.SortBy {
	case SortByScore:
		column = "score"
	case SortByExecutionTime:
		column = "execution_time"
	}
	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	listQuery := fmt.Sprintf(
		`SELECT %s FROM submissions%s ORDER BY %s %s, id %s OFFSET $%d LIMIT $%d`,
		submissionColumns, where, column, direction, direction, len(args)+1, len(args)+2,
	)
	args = append(args, offset, limit)

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	subs, err := scanSubmissions(rows)
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

// ByChallenge returns all submissions for a challenge in insertion order.
func (s *PostgresStore) ByChallenge(ctx context.Context, challengeID int) ([]types.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE challenge_id = $1 ORDER BY id`, submissionColumns)
	return s.queryAll(ctx, query, challengeID)
}

// ByUser returns all submissions for a user in insertion order.
func (s *PostgresStore) ByUser(ctx context.Context, userID int) ([]types.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE user_id = $1 ORDER BY id`, submissionColumns)
	return s.queryAll(ctx, query, userID)
}

// All returns every submission in insertion order.
func (s *PostgresStore) All(ctx context.Context) ([]types.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions ORDER BY id`, submissionColumns)
	return s.queryAll(ctx, query)
}

// Count returns the total number of stored submissions.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM submissions`).Scan(&total)
	return total, err
}

func (s *PostgresStore) queryAll(ctx context.Context, query string, args ...any) ([]types.Submission, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func buildWhere(f SubmissionFilter) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.ChallengeID != 0 {
		add("challenge_id = $%d", f.ChallengeID)
	}
	if f.UserID != 0 {
		add("user_id = $%d", f.UserID)
	}
	if f.Status != nil {
		add("status = $%d", int(*f.Status))
	}
	if f.Language != "" {
		add("LOWER(language) = LOWER($%d)", f.Language)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (types.Submission, error) {
	var sub types.Submission
	var status int
	var resultsJSON []byte
	if err := row.Scan(
		&sub.ID,
		&sub.ChallengeID,
		&sub.UserID,
		&sub.Code,
		&sub.Language,
		&status,
		&sub.Score,
		&sub.ExecutionTime,
		&sub.Memory,
		&sub.TestsPassed,
		&sub.TestsTotal,
		&resultsJSON,
		&sub.SubmittedAt,
	); err != nil {
		return types.Submission{}, err
	}
	sub.Status = types.Status(status)
	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &sub.TestCaseResults); err != nil {
			return types.Submission{}, fmt.Errorf("decode test results for submission %d: %w", sub.ID, err)
		}
	}
	return sub, nil
}

func scanSubmissions(rows *sql.Rows) ([]types.Submission, error) {
	subs := make([]types.Submission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}
