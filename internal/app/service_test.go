package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmrzaf/datasanitizer/internal/config"
	"github.com/mmrzaf/datasanitizer/internal/domain"
	"github.com/mmrzaf/datasanitizer/internal/infra/repos/history"
	"github.com/mmrzaf/datasanitizer/internal/logging"
	"github.com/mmrzaf/datasanitizer/internal/seed"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	// An empty file is a valid SQLite database.
	if err := os.WriteFile(filepath.Join(dir, "app.db"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		SourceKind:  domain.KindSQLite,
		SourceDSN:   filepath.Join(dir, "app.db"),
		HistoryKind: domain.KindSQLite,
		HistoryDSN:  filepath.Join(dir, "state", "history.db"),
		Tables:      []string{"sample_logs"},
		Interval:    time.Minute,
		ExportKind:  domain.ExportKindFile,
		ExportDir:   filepath.Join(dir, "logs"),
		LogLevel:    "error",
	}
}

func TestEndToEndCycle_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	logger := logging.NewLoggerWithWriter("error", &bytes.Buffer{})

	svc, err := New(ctx, cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	if _, err := seed.Seed(ctx, svc.Source(), "sample_logs", seed.Options{Rows: 12, Seed: 3}); err != nil {
		t.Fatal(err)
	}

	sched, err := svc.Scheduler(false)
	if err != nil {
		t.Fatal(err)
	}
	report, err := sched.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Failed() != 0 || len(report.Outcomes) != 1 {
		t.Fatalf("unexpected report %#v", report)
	}
	res := report.Outcomes[0].Result
	if res.DeletedCount != 12 {
		t.Fatalf("expected 12 deleted, got %d", res.DeletedCount)
	}

	data, err := os.ReadFile(res.ExportPath)
	if err != nil {
		t.Fatal(err)
	}
	var exported []map[string]any
	if err := json.Unmarshal(data, &exported); err != nil {
		t.Fatal(err)
	}
	if len(exported) != 12 {
		t.Fatalf("expected 12 exported rows, got %d", len(exported))
	}

	remaining, err := svc.Source().FetchAll(ctx, "sample_logs")
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected table to be empty, got %d rows", len(remaining))
	}

	records, err := svc.History().List(ctx, history.Filter{TableName: "sample_logs"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].DeletedCount != 12 || records[0].LogFilePath != res.ExportPath {
		t.Fatalf("unexpected history %#v", records)
	}

	n, err := testutil.GatherAndCount(svc.Metrics().Registry(), "sanitizer_runs_total")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected one runs_total series, got %d", n)
	}
}

func TestMissingTableFailsWithoutHistory(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	cfg.Tables = []string{"never_created"}

	svc, err := New(ctx, cfg, logging.NewLoggerWithWriter("error", &bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	_, err = svc.Manager().Execute(ctx, "never_created")
	if !domain.IsKind(err, domain.QueryFailed) {
		t.Fatalf("expected query failure, got %v", err)
	}
	records, err := svc.History().List(ctx, history.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no history for failed run, got %d", len(records))
	}
	if entries, _ := os.ReadDir(cfg.ExportDir); len(entries) != 0 {
		t.Fatalf("expected no export for failed fetch, got %d files", len(entries))
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Tables = nil
	if _, err := New(context.Background(), cfg, nil); !domain.IsKind(err, domain.InvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestOpenHistoryUnknownKind(t *testing.T) {
	if _, err := OpenHistory("mongodb", "x"); !domain.IsKind(err, domain.InvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestCheckStores_SQLite(t *testing.T) {
	cfg := sqliteConfig(t)
	if err := os.MkdirAll(filepath.Dir(cfg.HistoryDSN), 0o755); err != nil {
		t.Fatal(err)
	}
	checks := CheckStores(context.Background(), cfg)
	if len(checks) != 2 {
		t.Fatalf("expected two checks, got %d", len(checks))
	}
	for _, c := range checks {
		if !c.OK || c.ServerVer == "" {
			t.Fatalf("expected OK check with version, got %#v", c)
		}
	}
	if checks[0].DSN != "…/app.db" {
		t.Fatalf("expected redacted dsn, got %s", checks[0].DSN)
	}
}

func TestMissingSQLiteSourceIsNotCreated(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.SourceDSN = filepath.Join(filepath.Dir(cfg.SourceDSN), "ap.db")
	cfg.HistoryDSN = cfg.SourceDSN

	_, err := New(context.Background(), cfg, logging.NewLoggerWithWriter("error", &bytes.Buffer{}))
	if !domain.IsKind(err, domain.SourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
	if _, err := os.Stat(cfg.SourceDSN); !os.IsNotExist(err) {
		t.Fatalf("mistyped source path should not be created, stat err=%v", err)
	}

	checks := CheckStores(context.Background(), cfg)
	if checks[0].OK {
		t.Fatalf("expected failed source check, got %#v", checks[0])
	}
}
