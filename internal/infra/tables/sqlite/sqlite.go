package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mmrzaf/datasanitizer/internal/domain"
	"github.com/mmrzaf/datasanitizer/internal/validation"
)

type Source struct {
	path   string
	create bool
	db     *sql.DB
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

// AllowCreate lets Connect create a database file that does not exist yet.
// Without it a missing file is reported as unavailable.
func (s *Source) AllowCreate() *Source {
	s.create = true
	return s
}

func (s *Source) Connect(ctx context.Context) error {
	if !s.create {
		if file := localFile(s.path); file != "" {
			if _, err := os.Stat(file); err != nil {
				return domain.NewError(domain.SourceUnavailable, "connect", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return domain.NewError(domain.SourceUnavailable, "connect", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return domain.NewError(domain.SourceUnavailable, "connect", err)
	}
	s.db = db
	return nil
}

// localFile returns the on-disk file a DSN refers to, or "" for in-memory
// databases.
func localFile(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	query := ""
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p, query = p[:i], p[i+1:]
	}
	if p == "" || p == ":memory:" || strings.Contains(query, "mode=memory") {
		return ""
	}
	return p
}

func (s *Source) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Source) FetchAll(ctx context.Context, tableName string) ([]domain.Row, error) {
	ident, err := s.prepare("fetch", tableName)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+ident)
	if err != nil {
		return nil, domain.NewError(domain.QueryFailed, "fetch", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, domain.NewError(domain.QueryFailed, "fetch", err)
	}

	out := make([]domain.Row, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, domain.NewError(domain.QueryFailed, "fetch", err)
		}
		row := make(domain.Row, len(cols))
		for i, c := range cols {
			row[c] = domain.ValueOf(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewError(domain.QueryFailed, "fetch", err)
	}
	return out, nil
}

func (s *Source) DeleteAll(ctx context.Context, tableName string) (int64, error) {
	ident, err := s.prepare("delete", tableName)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+ident)
	if err != nil {
		return 0, domain.NewError(domain.QueryFailed, "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.NewError(domain.QueryFailed, "delete", err)
	}
	return n, nil
}

func (s *Source) CreateTableIfNotExists(ctx context.Context, tableName string, columns []domain.Column) error {
	ident, err := s.prepare("create", tableName)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return domain.Errorf(domain.InvalidArgument, "create", "table %q has no columns", tableName)
	}

	columnDefs := make([]string, len(columns))
	for i, col := range columns {
		if !validation.IsValidIdentifier(col.Name) {
			return domain.Errorf(domain.InvalidArgument, "create", "invalid column name %q", col.Name)
		}
		nullable := ""
		if !col.Nullable {
			nullable = " NOT NULL"
		}
		columnDefs[i] = fmt.Sprintf("%s %s%s", validation.QuoteIdentifier(col.Name), mapColumnType(col.Type), nullable)
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ident, strings.Join(columnDefs, ", "))
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return domain.NewError(domain.QueryFailed, "create", err)
	}
	return nil
}

// Declared types drive go-sqlite3's decoding: BOOLEAN comes back as bool,
// TIMESTAMP as time.Time.
func mapColumnType(colType domain.ColumnType) string {
	switch colType {
	case domain.ColumnTypeInt, domain.ColumnTypeBigInt:
		return "INTEGER"
	case domain.ColumnTypeFloat, domain.ColumnTypeDouble:
		return "REAL"
	case domain.ColumnTypeBool:
		return "BOOLEAN"
	case domain.ColumnTypeTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func (s *Source) InsertBatch(ctx context.Context, tableName string, columns []string, rows [][]any) error {
	ident, err := s.prepare("insert", tableName)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewError(domain.QueryFailed, "insert", err)
	}
	defer tx.Rollback()

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = validation.QuoteIdentifier(c)
		placeholders[i] = "?"
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ident, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return domain.NewError(domain.QueryFailed, "insert", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]any, len(row))
		for i, val := range row {
			if t, ok := val.(time.Time); ok {
				args[i] = t.UTC().Format(time.RFC3339Nano)
			} else if b, ok := val.(bool); ok {
				if b {
					args[i] = 1
				} else {
					args[i] = 0
				}
			} else {
				args[i] = val
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return domain.NewError(domain.QueryFailed, "insert", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.NewError(domain.QueryFailed, "insert", err)
	}
	return nil
}

func (s *Source) prepare(op, tableName string) (string, error) {
	if strings.TrimSpace(tableName) == "" {
		return "", domain.ErrEmptyTableName
	}
	if !validation.IsValidTableName(tableName) {
		return "", domain.Errorf(domain.InvalidArgument, op, "invalid table name %q", tableName)
	}
	if s.db == nil {
		return "", domain.Errorf(domain.SourceUnavailable, op, "sqlite source %s is not connected", s.path)
	}
	return validation.QuoteIdentifier(tableName), nil
}
