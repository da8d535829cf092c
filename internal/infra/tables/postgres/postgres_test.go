package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mmrzaf/datasanitizer/internal/domain"
)

func TestIdentifierQuoting(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"sample_logs", `"sample_logs"`},
		{"audit.sample_logs", `"audit"."sample_logs"`},
	}
	for _, tc := range cases {
		if got := identifier(tc.in).Sanitize(); got != tc.want {
			t.Fatalf("identifier(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestPrepareRejectsBadInput(t *testing.T) {
	src := NewSource("postgres://localhost/db")

	if _, err := src.FetchAll(context.Background(), ""); !errors.Is(err, domain.ErrEmptyTableName) {
		t.Fatalf("expected empty table name error, got %v", err)
	}
	if _, err := src.DeleteAll(context.Background(), "a.b.c"); !domain.IsKind(err, domain.InvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := src.FetchAll(context.Background(), "sample_logs"); !domain.IsKind(err, domain.SourceUnavailable) {
		t.Fatalf("expected source unavailable before connect, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01", Message: `relation "x" does not exist`}
	err := classify("fetch", fmt.Errorf("query: %w", pgErr))
	if !domain.IsKind(err, domain.QueryFailed) {
		t.Fatalf("expected query failure, got %v", err)
	}
	var got *pgconn.PgError
	if !errors.As(err, &got) || got.Code != "42P01" {
		t.Fatal("expected driver cause to stay reachable")
	}

	if !domain.IsKind(classify("fetch", errors.New("boom")), domain.QueryFailed) {
		t.Fatal("expected unknown errors to be query failures")
	}
}

func TestConnectBadDSN(t *testing.T) {
	src := NewSource("postgres://%zz")
	if err := src.Connect(context.Background()); !domain.IsKind(err, domain.SourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
}

func TestMapColumnType(t *testing.T) {
	if mapColumnType(domain.ColumnTypeTimestamp) != "TIMESTAMPTZ" || mapColumnType("weird") != "TEXT" {
		t.Fatal("unexpected column type mapping")
	}
}
