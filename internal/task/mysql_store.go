package task

import (
	"context"
	"database/sql"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	xerrors "SolAgent-Kit/internal/errors"
)

// MySQL error number for duplicate primary keys.
const mysqlDuplicateEntry = 1062

// MySQLStore persists operation state in MySQL.
type MySQLStore struct {
	db *sql.DB
}

// MySQLConfig tunes the connection pool.
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewMySQLStore connects, applies the schema and returns the store.
func NewMySQLStore(cfg MySQLConfig) (*MySQLStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "MySQL DSN is empty")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "open MySQL connection")
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 10
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 10 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "reach MySQL")
	}

	store := &MySQLStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *MySQLStore) initSchema() error {
	const schema = `CREATE TABLE IF NOT EXISTS operations (
        id VARCHAR(64) PRIMARY KEY,
        tool VARCHAR(64) NOT NULL,
        args JSON,
        status VARCHAR(32) NOT NULL,
        attempts INT NOT NULL DEFAULT 0,
        max_retries INT NOT NULL DEFAULT 3,
        last_error TEXT,
        error_code VARCHAR(64) DEFAULT '',
        result JSON,
        created_at BIGINT NOT NULL,
        updated_at BIGINT NOT NULL,
        INDEX idx_op_status (status),
        INDEX idx_op_tool (tool),
        INDEX idx_op_updated (updated_at)
)`
	if _, err := s.db.Exec(schema); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "initialise operations table")
	}
	return nil
}

// Create inserts a new operation record.
func (s *MySQLStore) Create(ctx context.Context, op *Operation) error {
	if op == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "operation is nil")
	}
	if strings.TrimSpace(op.ID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "operation ID is empty")
	}

	now := time.Now().Unix()
	op.CreatedAt = now
	op.UpdatedAt = now

	const stmt = `INSERT INTO operations
        (id, tool, args, status, attempts, max_retries, last_error, error_code, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, '', '', ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt,
		op.ID,
		op.Tool,
		rawOrNull(op.Args),
		op.Status,
		op.Attempts,
		op.MaxRetries,
		op.CreatedAt,
		op.UpdatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if stdErrors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return ErrConflict
		}
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "insert operation")
	}
	return nil
}

const selectColumns = `id, tool, args, status, attempts, max_retries, last_error, error_code, result, created_at, updated_at`

// Get fetches one operation.
func (s *MySQLStore) Get(ctx context.Context, id string) (*Operation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM operations WHERE id = ?`, id)
	op, err := scanOperation(row.Scan)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "query operation")
	}
	return op, nil
}

// Claim transitions the operation to running, spending one attempt. The
// conditional update keeps concurrent workers from double-claiming.
func (s *MySQLStore) Claim(ctx context.Context, id string) (*Operation, error) {
	const stmt = `UPDATE operations SET status = ?, attempts = attempts + 1, updated_at = ?, last_error = '', error_code = ''
        WHERE id = ? AND status IN (?, ?) AND attempts < max_retries`

	res, err := s.db.ExecContext(ctx, stmt,
		StatusRunning,
		time.Now().Unix(),
		id,
		StatusPending,
		StatusFailed,
	)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "claim operation")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "read affected rows")
	}
	if affected == 0 {
		op, getErr := s.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		switch op.Status {
		case StatusSucceeded:
			return op, ErrCompleted
		case StatusRunning:
			return op, ErrConflict
		default:
			if op.Attempts >= op.MaxRetries {
				return op, ErrExhausted
			}
			return op, ErrConflict
		}
	}
	return s.Get(ctx, id)
}

// MarkSucceeded records the result and finishes the operation.
func (s *MySQLStore) MarkSucceeded(ctx context.Context, id string, result json.RawMessage) error {
	const stmt = `UPDATE operations SET status = ?, result = ?, updated_at = ?, last_error = '', error_code = '' WHERE id = ?`

	res, err := s.db.ExecContext(ctx, stmt, StatusSucceeded, rawOrNull(result), time.Now().Unix(), id)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "mark operation succeeded")
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed records the failure. A terminal failure exhausts the attempt
// budget so the operation can never be claimed again.
func (s *MySQLStore) MarkFailed(ctx context.Context, id string, code xerrors.Code, lastError string, terminal bool) error {
	const stmt = `UPDATE operations SET status = ?, last_error = ?, error_code = ?, updated_at = ?,
        attempts = IF(?, GREATEST(attempts, max_retries), attempts) WHERE id = ?`

	res, err := s.db.ExecContext(ctx, stmt, StatusFailed, lastError, string(code), time.Now().Unix(), terminal, id)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "mark operation failed")
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns matching operations.
func (s *MySQLStore) List(ctx context.Context, opts ListOptions) ([]*Operation, error) {
	opts.applyDefaults()

	query := `SELECT ` + selectColumns + ` FROM operations`
	clause, filterArgs := buildFilterClause(opts)
	if clause != "" {
		query += " WHERE " + clause
	}
	order := " ORDER BY updated_at DESC, created_at DESC, id DESC"
	if opts.Order == SortByUpdatedAsc {
		order = " ORDER BY updated_at ASC, created_at ASC, id ASC"
	}
	query += order + " LIMIT ? OFFSET ?"
	args := append(filterArgs, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "list operations")
	}
	defer rows.Close()

	ops := make([]*Operation, 0, opts.Limit)
	for rows.Next() {
		op, err := scanOperation(rows.Scan)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "scan operation row")
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "iterate operations")
	}
	return ops, nil
}

// Stats aggregates matching operations.
func (s *MySQLStore) Stats(ctx context.Context, opts ListOptions) (Stats, error) {
	opts.applyDefaults()

	query := `SELECT
        COUNT(*) AS total,
        SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS pending,
        SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS running,
        SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS succeeded,
        SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS failed,
        COALESCE(MIN(updated_at), 0) AS oldest,
        COALESCE(MAX(updated_at), 0) AS newest
        FROM operations`

	clause, filterArgs := buildFilterClause(opts)
	if clause != "" {
		query += " WHERE " + clause
	}
	args := []any{string(StatusPending), string(StatusRunning), string(StatusSucceeded), string(StatusFailed)}
	args = append(args, filterArgs...)

	var stats Stats
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Running,
		&stats.Succeeded,
		&stats.Failed,
		&stats.OldestUpdatedAt,
		&stats.NewestUpdatedAt,
	); err != nil {
		return Stats{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "query operation stats")
	}
	if stats.Total == 0 {
		stats.OldestUpdatedAt = 0
		stats.NewestUpdatedAt = 0
	}
	return stats, nil
}

// Close releases the connection pool.
func (s *MySQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanOperation(scan func(...any) error) (*Operation, error) {
	var op Operation
	var args, result sql.NullString
	var lastError sql.NullString
	if err := scan(
		&op.ID,
		&op.Tool,
		&args,
		&op.Status,
		&op.Attempts,
		&op.MaxRetries,
		&lastError,
		&op.ErrorCode,
		&result,
		&op.CreatedAt,
		&op.UpdatedAt,
	); err != nil {
		return nil, err
	}
	op.LastError = lastError.String
	if args.Valid && args.String != "" {
		op.Args = json.RawMessage(args.String)
	}
	if result.Valid && result.String != "" {
		op.Result = json.RawMessage(result.String)
	}
	return &op, nil
}

func rawOrNull(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func buildFilterClause(opts ListOptions) (string, []any) {
	conditions := make([]string, 0, 5)
	args := make([]any, 0, 6)

	if len(opts.Statuses) > 0 {
		placeholders := make([]string, 0, len(opts.Statuses))
		for range opts.Statuses {
			placeholders = append(placeholders, "?")
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
		for _, status := range opts.Statuses {
			args = append(args, status)
		}
	}
	if opts.Tool != "" {
		conditions = append(conditions, "tool = ?")
		args = append(args, opts.Tool)
	}
	if opts.UpdatedGTE > 0 {
		conditions = append(conditions, "updated_at >= ?")
		args = append(args, opts.UpdatedGTE)
	}
	if opts.UpdatedLTE > 0 {
		conditions = append(conditions, "updated_at <= ?")
		args = append(args, opts.UpdatedLTE)
	}
	if opts.HasResult != nil {
		if *opts.HasResult {
			conditions = append(conditions, "result IS NOT NULL")
		} else {
			conditions = append(conditions, "result IS NULL")
		}
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return strings.Join(conditions, " AND "), args
}

var _ Store = (*MySQLStore)(nil)
