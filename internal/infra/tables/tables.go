// Package tables opens the row source a sanitizer process reads from.
package tables

import (
	"context"

	"github.com/mmrzaf/datasanitizer/internal/domain"
	"github.com/mmrzaf/datasanitizer/internal/infra/tables/postgres"
	"github.com/mmrzaf/datasanitizer/internal/infra/tables/sqlite"
)

// Source is a connected table store. Besides the snapshot/delete pair used by
// the sanitation run it can create and fill tables for seeding.
type Source interface {
	Connect(ctx context.Context) error
	Close() error
	FetchAll(ctx context.Context, tableName string) ([]domain.Row, error)
	DeleteAll(ctx context.Context, tableName string) (int64, error)
	CreateTableIfNotExists(ctx context.Context, tableName string, columns []domain.Column) error
	InsertBatch(ctx context.Context, tableName string, columns []string, rows [][]any) error
}

func New(kind, dsn string) (Source, error) {
	return newSource(kind, dsn, false)
}

func newSource(kind, dsn string, create bool) (Source, error) {
	switch kind {
	case domain.KindPostgres:
		return postgres.NewSource(dsn), nil
	case domain.KindSQLite:
		src := sqlite.NewSource(dsn)
		if create {
			src.AllowCreate()
		}
		return src, nil
	default:
		return nil, domain.Errorf(domain.InvalidArgument, "open source", "unsupported source kind: %s", kind)
	}
}

// Open builds and connects a source. A SQLite file must already exist.
func Open(ctx context.Context, kind, dsn string) (Source, error) {
	return open(ctx, kind, dsn, false)
}

// OpenOrCreate is Open for callers that populate the store, such as seeding.
// A missing SQLite file is created.
func OpenOrCreate(ctx context.Context, kind, dsn string) (Source, error) {
	return open(ctx, kind, dsn, true)
}

func open(ctx context.Context, kind, dsn string, create bool) (Source, error) {
	src, err := newSource(kind, dsn, create)
	if err != nil {
		return nil, err
	}
	if err := src.Connect(ctx); err != nil {
		return nil, err
	}
	return src, nil
}
