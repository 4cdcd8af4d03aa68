// Package postgres provides a PostgreSQL implementation of transport.ExecutionStore.
// It uses pgx/v5 for connection pooling and JSONB for parameters and output.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/claudenode/pkg/api"
	"github.com/rhuss/claudenode/pkg/debug"
	"github.com/rhuss/claudenode/pkg/storage"
	"github.com/rhuss/claudenode/pkg/transport"
)

// Store is a PostgreSQL-backed ExecutionStore.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements transport.ExecutionStore at compile time.
var _ transport.ExecutionStore = (*Store)(nil)

const selectColumns = `id, status, invoker, parameters, continue_on_fail,
	item_count, output, error, created_at, completed_at`

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// SaveExecution inserts a new execution.
func (s *Store) SaveExecution(ctx context.Context, exec *api.Execution) error {
	params, output, errJSON, err := marshalColumns(exec)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO executions (
			id, tenant_id, status, invoker, parameters, continue_on_fail,
			item_count, output, error, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		exec.ID, storage.GetTenant(ctx), string(exec.Status), exec.Invoker, params, exec.ContinueOnFail,
		exec.ItemCount, output, errJSON, exec.CreatedAt, exec.CompletedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting execution: %w", err)
	}

	debug.Log("storage", "saved execution", "execution_id", exec.ID, "status", exec.Status)
	return nil
}

// UpdateExecution replaces the mutable columns of a stored execution. The
// stored row is locked while the status transition is checked.
func (s *Store) UpdateExecution(ctx context.Context, exec *api.Execution) error {
	params, output, errJSON, err := marshalColumns(exec)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := "SELECT status FROM executions WHERE id = $1"
	args := []any{exec.ID}
	if tenantID := storage.GetTenant(ctx); tenantID != "" {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}
	query += " FOR UPDATE"

	var current string
	if err := tx.QueryRow(ctx, query, args...).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("locking execution: %w", err)
	}

	if from := api.ExecutionStatus(current); from != exec.Status {
		if apiErr := api.ValidateExecutionTransition(from, exec.Status); apiErr != nil {
			return apiErr
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE executions
		SET status = $2, parameters = $3, item_count = $4, output = $5, error = $6, completed_at = $7
		WHERE id = $1
	`,
		exec.ID, string(exec.Status), params, exec.ItemCount, output, errJSON, exec.CompletedAt,
	); err != nil {
		return fmt.Errorf("updating execution: %w", err)
	}

	return tx.Commit(ctx)
}

// GetExecution retrieves an execution by ID.
func (s *Store) GetExecution(ctx context.Context, id string) (*api.Execution, error) {
	query := "SELECT " + selectColumns + " FROM executions WHERE id = $1"
	args := []any{id}
	if tenantID := storage.GetTenant(ctx); tenantID != "" {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}

	exec, err := scanExecution(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying execution: %w", err)
	}
	return exec, nil
}

// DeleteExecution removes an execution.
func (s *Store) DeleteExecution(ctx context.Context, id string) error {
	query := "DELETE FROM executions WHERE id = $1"
	args := []any{id}
	if tenantID := storage.GetTenant(ctx); tenantID != "" {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}

	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting execution: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListExecutions returns a page of executions ordered by creation time.
// Cursors are execution IDs; an unknown cursor yields an empty page.
func (s *Store) ListExecutions(ctx context.Context, opts transport.ListOptions) (*api.ExecutionList, error) {
	opts = opts.Normalize()

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if tenantID := storage.GetTenant(ctx); tenantID != "" {
		where = append(where, "tenant_id = "+arg(tenantID))
	}
	if opts.Status != "" {
		where = append(where, "status = "+arg(string(opts.Status)))
	}

	desc := opts.Order != "asc"
	if cursor, after := opts.After, true; cursor != "" || opts.Before != "" {
		if cursor == "" {
			cursor, after = opts.Before, false
		}
		// Rows past the cursor in the sort direction for "after", before it
		// for "before".
		op := ">"
		if desc == after {
			op = "<"
		}
		where = append(where, fmt.Sprintf(
			"(created_at, id) %s (SELECT created_at, id FROM executions WHERE id = %s)", op, arg(cursor)))
	}

	query := "SELECT " + selectColumns + " FROM executions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if desc {
		query += " ORDER BY created_at DESC, id DESC"
	} else {
		query += " ORDER BY created_at ASC, id ASC"
	}
	query += " LIMIT " + arg(opts.Limit+1)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing executions: %w", err)
	}
	defer rows.Close()

	list := &api.ExecutionList{Object: "list", Data: []*api.Execution{}}
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning execution: %w", err)
		}
		list.Data = append(list.Data, exec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing executions: %w", err)
	}

	if len(list.Data) > opts.Limit {
		list.HasMore = true
		list.Data = list.Data[:opts.Limit]
	}
	if len(list.Data) > 0 {
		list.FirstID = list.Data[0].ID
		list.LastID = list.Data[len(list.Data)-1].ID
	}
	return list, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func marshalColumns(exec *api.Execution) (params, output, errJSON []byte, err error) {
	if exec.Parameters != nil {
		if params, err = json.Marshal(exec.Parameters); err != nil {
			return nil, nil, nil, fmt.Errorf("marshaling parameters: %w", err)
		}
	}
	if exec.Output != nil {
		if output, err = json.Marshal(exec.Output); err != nil {
			return nil, nil, nil, fmt.Errorf("marshaling output: %w", err)
		}
	}
	if exec.Error != nil {
		if errJSON, err = json.Marshal(exec.Error); err != nil {
			return nil, nil, nil, fmt.Errorf("marshaling error: %w", err)
		}
	}
	return params, output, errJSON, nil
}

func scanExecution(row pgx.Row) (*api.Execution, error) {
	var (
		exec                      api.Execution
		status                    string
		params, output, errorJSON []byte
	)
	if err := row.Scan(
		&exec.ID, &status, &exec.Invoker, &params, &exec.ContinueOnFail,
		&exec.ItemCount, &output, &errorJSON, &exec.CreatedAt, &exec.CompletedAt,
	); err != nil {
		return nil, err
	}

	exec.Object = "execution"
	exec.Status = api.ExecutionStatus(status)

	if len(params) > 0 {
		if err := json.Unmarshal(params, &exec.Parameters); err != nil {
			return nil, fmt.Errorf("unmarshaling parameters: %w", err)
		}
	}
	if len(output) > 0 {
		if err := json.Unmarshal(output, &exec.Output); err != nil {
			return nil, fmt.Errorf("unmarshaling output: %w", err)
		}
	}
	if len(errorJSON) > 0 {
		var apiErr api.APIError
		if err := json.Unmarshal(errorJSON, &apiErr); err == nil {
			exec.Error = &apiErr
		}
	}
	return &exec, nil
}

// isDuplicateKey reports whether err is a PostgreSQL unique violation.
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
