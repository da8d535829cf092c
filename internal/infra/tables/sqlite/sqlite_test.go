package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmrzaf/datasanitizer/internal/domain"
)

func newSource(t *testing.T) *Source {
	t.Helper()
	src := NewSource(filepath.Join(t.TempDir(), "source.db")).AllowCreate()
	if err := src.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

var logColumns = []domain.Column{
	{Name: "id", Type: domain.ColumnTypeBigInt},
	{Name: "message", Type: domain.ColumnTypeText},
	{Name: "ok", Type: domain.ColumnTypeBool},
	{Name: "created_at", Type: domain.ColumnTypeTimestamp},
	{Name: "ratio", Type: domain.ColumnTypeDouble, Nullable: true},
}

func TestFetchAllThenDeleteAll(t *testing.T) {
	src := newSource(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	if err := src.CreateTableIfNotExists(ctx, "sample_logs", logColumns); err != nil {
		t.Fatal(err)
	}
	err := src.InsertBatch(ctx, "sample_logs",
		[]string{"id", "message", "ok", "created_at", "ratio"},
		[][]any{
			{int64(1), "teste", true, at, 0.5},
			{int64(2), "outro", false, at.Add(time.Minute), nil},
		})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := src.FetchAll(ctx, "sample_logs")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	first := rows[0]
	if first["id"].Kind() != domain.ValueInt || first["id"].Interface() != int64(1) {
		t.Fatalf("unexpected id %v", first["id"])
	}
	if first["message"].String() != "teste" {
		t.Fatalf("unexpected message %v", first["message"])
	}
	if first["ok"].Kind() != domain.ValueBool || first["ok"].Interface() != true {
		t.Fatalf("expected boolean ok, got %v (%s)", first["ok"], first["ok"].Kind())
	}
	if first["created_at"].Kind() != domain.ValueTime {
		t.Fatalf("expected timestamp, got %s", first["created_at"].Kind())
	}
	if got := first["created_at"].Interface().(time.Time); !got.Equal(at) {
		t.Fatalf("unexpected created_at %v", got)
	}
	if !rows[1]["ratio"].IsNull() {
		t.Fatalf("expected null ratio, got %v", rows[1]["ratio"])
	}

	n, err := src.DeleteAll(ctx, "sample_logs")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}

	rows, err = src.FetchAll(ctx, "sample_logs")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty table, got %d rows", len(rows))
	}
	n, err = src.DeleteAll(ctx, "sample_logs")
	if err != nil || n != 0 {
		t.Fatalf("expected 0 deleted on empty table, got %d, %v", n, err)
	}
}

func TestErrorsAreClassified(t *testing.T) {
	src := newSource(t)
	ctx := context.Background()

	if _, err := src.FetchAll(ctx, "missing_table"); !domain.IsKind(err, domain.QueryFailed) {
		t.Fatalf("expected query failure, got %v", err)
	}
	if _, err := src.DeleteAll(ctx, "missing_table"); !domain.IsKind(err, domain.QueryFailed) {
		t.Fatalf("expected query failure, got %v", err)
	}
	if _, err := src.FetchAll(ctx, "logs; DROP TABLE x"); !domain.IsKind(err, domain.InvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := src.FetchAll(ctx, "  "); !domain.IsKind(err, domain.InvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}

	unconnected := NewSource(filepath.Join(t.TempDir(), "x.db"))
	if _, err := unconnected.FetchAll(ctx, "logs"); !domain.IsKind(err, domain.SourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
}

func TestConnectFailureIsSourceUnavailable(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "no", "such", "dir", "x.db")).AllowCreate()
	err := src.Connect(context.Background())
	if !domain.IsKind(err, domain.SourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
}

func TestConnectDoesNotCreateMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.db")
	err := NewSource(path).Connect(context.Background())
	if !domain.IsKind(err, domain.SourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s to stay absent, stat err=%v", path, err)
	}
}

func TestConnectOpensExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	src := NewSource(path)
	if err := src.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = src.Close()
}

func TestLocalFile(t *testing.T) {
	cases := map[string]string{
		"data/app.db":                   "data/app.db",
		"file:data/app.db?_busy=5000":   "data/app.db",
		":memory:":                      "",
		"file::memory:?cache=shared":    "",
		"file:mem.db?mode=memory&cache": "",
	}
	for dsn, want := range cases {
		if got := localFile(dsn); got != want {
			t.Fatalf("localFile(%q) = %q, want %q", dsn, got, want)
		}
	}
}
