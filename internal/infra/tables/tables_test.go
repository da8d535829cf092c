package tables

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmrzaf/datasanitizer/internal/domain"
)

func TestNewRejectsUnknownKind(t *testing.T) {
	if _, err := New("elasticsearch", "http://x"); !domain.IsKind(err, domain.InvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestOpenSQLite(t *testing.T) {
	src, err := OpenOrCreate(context.Background(), domain.KindSQLite, filepath.Join(t.TempDir(), "t.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if err := src.CreateTableIfNotExists(context.Background(), "t", []domain.Column{{Name: "id", Type: domain.ColumnTypeInt}}); err != nil {
		t.Fatal(err)
	}
}

func TestOpenSQLiteRequiresExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	if _, err := Open(context.Background(), domain.KindSQLite, path); !domain.IsKind(err, domain.SourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file to be created, stat err=%v", err)
	}
}
