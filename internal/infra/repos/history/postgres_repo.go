package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/mmrzaf/datasanitizer/internal/domain"
)

type PostgresRepository struct {
	dsn string
	db  *sql.DB
}

func NewPostgresRepository(dsn string) *PostgresRepository {
	return &PostgresRepository{dsn: strings.TrimSpace(dsn)}
}

func (r *PostgresRepository) Init() error {
	if r.dsn == "" {
		return persistenceErr("init", fmt.Errorf("history db dsn is required"))
	}
	db, err := sql.Open("postgres", r.dsn)
	if err != nil {
		return persistenceErr("init", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return persistenceErr("init", err)
	}
	r.db = db

	migs := []migration{
		{1, migrateV1HistoryPG},
	}
	if err := applyMigrations(r.db, migs, func(n int) string { return fmt.Sprintf("$%d", n) }); err != nil {
		return persistenceErr("migrate", err)
	}
	return nil
}

func (r *PostgresRepository) DB() *sql.DB { return r.db }

func migrateV1HistoryPG(db *sql.DB) error {
	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS execution_history (
		id BIGSERIAL PRIMARY KEY,
		table_name TEXT NOT NULL,
		deleted_count BIGINT NOT NULL,
		log_file_path TEXT NOT NULL,
		executed_at TIMESTAMPTZ NOT NULL
	)`); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_execution_history_table_time ON execution_history(table_name, executed_at DESC)`)
	return err
}

func (r *PostgresRepository) Save(ctx context.Context, h *domain.ExecutionHistory) error {
	if h == nil {
		return persistenceErr("save", errors.New("nil history"))
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO execution_history (table_name, deleted_count, log_file_path, executed_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		h.TableName, h.DeletedCount, h.LogFilePath, h.ExecutedAt.UTC(),
	).Scan(&h.ID)
	return persistenceErr("save", err)
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*domain.ExecutionHistory, error) {
	var h domain.ExecutionHistory
	err := r.db.QueryRowContext(ctx, `
		SELECT id, table_name, deleted_count, log_file_path, executed_at
		FROM execution_history WHERE id = $1`, id).Scan(
		&h.ID, &h.TableName, &h.DeletedCount, &h.LogFilePath, &h.ExecutedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistenceErr("get", err)
	}
	h.ExecutedAt = h.ExecutedAt.UTC()
	return &h, nil
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*domain.ExecutionHistory, error) {
	query, args := listQueryPG(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr("list", err)
	}
	defer rows.Close()

	out := make([]*domain.ExecutionHistory, 0)
	for rows.Next() {
		var h domain.ExecutionHistory
		if err := rows.Scan(&h.ID, &h.TableName, &h.DeletedCount, &h.LogFilePath, &h.ExecutedAt); err != nil {
			return nil, persistenceErr("list", err)
		}
		h.ExecutedAt = h.ExecutedAt.UTC()
		out = append(out, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list", err)
	}
	return out, nil
}

// listQueryPG numbers placeholders in the order args are appended.
func listQueryPG(f Filter) (string, []any) {
	query := `
		SELECT id, table_name, deleted_count, log_file_path, executed_at
		FROM execution_history
	`

	var where []string
	args := make([]any, 0, 3)
	if f.TableName != "" {
		args = append(args, f.TableName)
		where = append(where, fmt.Sprintf("table_name = $%d", len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since.UTC())
		where = append(where, fmt.Sprintf("executed_at >= $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, normalizeLimit(f.Limit))
	query += fmt.Sprintf(" ORDER BY executed_at DESC, id DESC LIMIT $%d", len(args))
	return query, args
}

func (r *PostgresRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
