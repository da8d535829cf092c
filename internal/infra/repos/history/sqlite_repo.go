package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mmrzaf/datasanitizer/internal/domain"
)

var ErrNotFound = errors.New("history record not found")

// sqliteTimeLayout is fixed-width so text comparison matches time order.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

type SQLiteRepository struct {
	dbPath string
	db     *sql.DB
}

func NewSQLiteRepository(dbPath string) *SQLiteRepository {
	return &SQLiteRepository{dbPath: dbPath}
}

func (r *SQLiteRepository) Init() error {
	if dir := filepath.Dir(r.dbPath); dir != "" && dir != "." && !strings.HasPrefix(r.dbPath, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return persistenceErr("init", err)
		}
	}
	db, err := sql.Open("sqlite3", r.dbPath)
	if err != nil {
		return persistenceErr("init", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return persistenceErr("init", err)
	}
	r.db = db

	migs := []migration{
		{1, migrateV1HistorySQLite},
	}
	if err := applyMigrations(r.db, migs, func(int) string { return "?" }); err != nil {
		return persistenceErr("migrate", err)
	}
	return nil
}

func (r *SQLiteRepository) DB() *sql.DB { return r.db }

func migrateV1HistorySQLite(db *sql.DB) error {
	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS execution_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		table_name TEXT NOT NULL,
		deleted_count INTEGER NOT NULL,
		log_file_path TEXT NOT NULL,
		executed_at TEXT NOT NULL
	)`); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_execution_history_table_time ON execution_history(table_name, executed_at)`)
	return err
}

func (r *SQLiteRepository) Save(ctx context.Context, h *domain.ExecutionHistory) error {
	if h == nil {
		return persistenceErr("save", errors.New("nil history"))
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO execution_history (table_name, deleted_count, log_file_path, executed_at)
		VALUES (?, ?, ?, ?)`,
		h.TableName, h.DeletedCount, h.LogFilePath, h.ExecutedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return persistenceErr("save", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return persistenceErr("save", err)
	}
	h.ID = id
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*domain.ExecutionHistory, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, table_name, deleted_count, log_file_path, executed_at
		FROM execution_history WHERE id = ?`, id)
	h, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistenceErr("get", err)
	}
	return h, nil
}

func (r *SQLiteRepository) List(ctx context.Context, f Filter) ([]*domain.ExecutionHistory, error) {
	query := `
		SELECT id, table_name, deleted_count, log_file_path, executed_at
		FROM execution_history
	`

	var where []string
	args := make([]interface{}, 0)
	if f.TableName != "" {
		where = append(where, "table_name = ?")
		args = append(args, f.TableName)
	}
	if !f.Since.IsZero() {
		where = append(where, "executed_at >= ?")
		args = append(args, f.Since.UTC().Format(sqliteTimeLayout))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY executed_at DESC, id DESC LIMIT " + strconv.Itoa(normalizeLimit(f.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr("list", err)
	}
	defer rows.Close()

	out := make([]*domain.ExecutionHistory, 0)
	for rows.Next() {
		h, err := scanSQLite(rows)
		if err != nil {
			return nil, persistenceErr("list", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(s scanner) (*domain.ExecutionHistory, error) {
	var h domain.ExecutionHistory
	var executedAt string
	if err := s.Scan(&h.ID, &h.TableName, &h.DeletedCount, &h.LogFilePath, &executedAt); err != nil {
		return nil, err
	}
	t, err := time.ParseInLocation(sqliteTimeLayout, executedAt, time.UTC)
	if err != nil {
		return nil, err
	}
	h.ExecutedAt = t
	return &h, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
