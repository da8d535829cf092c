package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mmrzaf/datasanitizer/internal/domain"
	"github.com/mmrzaf/datasanitizer/internal/validation"
)

type Source struct {
	dsn  string
	pool *pgxpool.Pool
}

func NewSource(dsn string) *Source {
	return &Source{dsn: strings.TrimSpace(dsn)}
}

func (s *Source) Connect(ctx context.Context) error {
	cfg, err := pgxpool.ParseConfig(s.dsn)
	if err != nil {
		return domain.NewError(domain.SourceUnavailable, "connect", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return domain.NewError(domain.SourceUnavailable, "connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return domain.NewError(domain.SourceUnavailable, "connect", err)
	}
	s.pool = pool
	return nil
}

func (s *Source) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Source) FetchAll(ctx context.Context, tableName string) ([]domain.Row, error) {
	ident, err := s.prepare("fetch", tableName)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, "SELECT * FROM "+ident.Sanitize())
	if err != nil {
		return nil, classify("fetch", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]domain.Row, 0)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, classify("fetch", err)
		}
		row := make(domain.Row, len(fields))
		for i, f := range fields {
			row[f.Name] = domain.ValueOf(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("fetch", err)
	}
	return out, nil
}

func (s *Source) DeleteAll(ctx context.Context, tableName string) (int64, error) {
	ident, err := s.prepare("delete", tableName)
	if err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, "DELETE FROM "+ident.Sanitize())
	if err != nil {
		return 0, classify("delete", err)
	}
	return tag.RowsAffected(), nil
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
		columnDefs[i] = fmt.Sprintf("%s %s%s", pgx.Identifier{col.Name}.Sanitize(), mapColumnType(col.Type), nullable)
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ident.Sanitize(), strings.Join(columnDefs, ", "))
	if _, err := s.pool.Exec(ctx, createSQL); err != nil {
		return classify("create", err)
	}
	return nil
}

func mapColumnType(colType domain.ColumnType) string {
	switch colType {
	case domain.ColumnTypeInt:
		return "INTEGER"
	case domain.ColumnTypeBigInt:
		return "BIGINT"
	case domain.ColumnTypeFloat:
		return "REAL"
	case domain.ColumnTypeDouble:
		return "DOUBLE PRECISION"
	case domain.ColumnTypeString:
		return "VARCHAR(255)"
	case domain.ColumnTypeText:
		return "TEXT"
	case domain.ColumnTypeBool:
		return "BOOLEAN"
	case domain.ColumnTypeTimestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// InsertBatch loads rows with the COPY protocol.
func (s *Source) InsertBatch(ctx context.Context, tableName string, columns []string, rows [][]any) error {
	ident, err := s.prepare("insert", tableName)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := s.pool.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rows)); err != nil {
		return classify("insert", err)
	}
	return nil
}

func (s *Source) prepare(op, tableName string) (pgx.Identifier, error) {
	if strings.TrimSpace(tableName) == "" {
		return nil, domain.ErrEmptyTableName
	}
	if !validation.IsValidTableName(tableName) {
		return nil, domain.Errorf(domain.InvalidArgument, op, "invalid table name %q", tableName)
	}
	if s.pool == nil {
		return nil, domain.Errorf(domain.SourceUnavailable, op, "postgres source is not connected")
	}
	return identifier(tableName), nil
}

func identifier(tableName string) pgx.Identifier {
	schema, table := validation.SplitTableName(tableName)
	if schema == "" {
		return pgx.Identifier{table}
	}
	return pgx.Identifier{schema, table}
}

// classify maps driver errors onto domain kinds. Server-reported errors are
// query failures; anything that never reached the server is an outage.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return domain.NewError(domain.QueryFailed, op, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.SafeToRetry(err) {
		return domain.NewError(domain.SourceUnavailable, op, err)
	}
	return domain.NewError(domain.QueryFailed, op, err)
}
