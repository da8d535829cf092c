package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mmrzaf/datasanitizer/internal/config"
	"github.com/mmrzaf/datasanitizer/internal/domain"
	"github.com/mmrzaf/datasanitizer/internal/infra/tables"
)

// StoreCheck is the outcome of probing one configured store.
type StoreCheck struct {
	ID        string    `json:"id" yaml:"id"`
	Role      string    `json:"role" yaml:"role"`
	Kind      string    `json:"kind" yaml:"kind"`
	DSN       string    `json:"dsn" yaml:"dsn"`
	OK        bool      `json:"ok" yaml:"ok"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	LatencyMS int64     `json:"latency_ms" yaml:"latency_ms"`
	ServerVer string    `json:"server_version,omitempty" yaml:"server_version,omitempty"`
	CheckedAt time.Time `json:"checked_at" yaml:"checked_at"`
}

// CheckStores connects to the source and history stores and reports
// reachability and server version.
func CheckStores(ctx context.Context, cfg *config.Config) []StoreCheck {
	return []StoreCheck{
		checkSource(ctx, cfg.SourceKind, cfg.SourceDSN),
		checkHistory(ctx, cfg.HistoryKind, cfg.HistoryDSN),
	}
}

func newCheck(role, kind, dsn string) StoreCheck {
	return StoreCheck{
		ID:        uuid.NewString(),
		Role:      role,
		Kind:      kind,
		DSN:       config.RedactDSN(dsn),
		CheckedAt: time.Now().UTC(),
	}
}

func checkSource(ctx context.Context, kind, dsn string) StoreCheck {
	check := newCheck("source", kind, dsn)
	start := time.Now()
	src, err := tables.Open(ctx, kind, dsn)
	check.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		check.Error = err.Error()
		return check
	}
	defer src.Close()

	check.OK = true
	if ver, err := serverVersion(ctx, kind, dsn); err == nil {
		check.ServerVer = ver
	}
	return check
}

func checkHistory(ctx context.Context, kind, dsn string) StoreCheck {
	check := newCheck("history", kind, dsn)
	start := time.Now()
	ver, err := serverVersion(ctx, kind, dsn)
	check.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		check.Error = err.Error()
		return check
	}
	check.OK = true
	check.ServerVer = ver
	return check
}

func serverVersion(ctx context.Context, kind, dsn string) (string, error) {
	var driver, query string
	switch kind {
	case domain.KindPostgres:
		driver, query = "postgres", "SHOW server_version"
	case domain.KindSQLite:
		driver, query = "sqlite3", "SELECT sqlite_version()"
	default:
		return "", domain.Errorf(domain.InvalidArgument, "check", "unsupported store kind: %s", kind)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return "", domain.NewError(domain.SourceUnavailable, "check", err)
	}
	defer db.Close()
	var version string
	if err := db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return "", domain.NewError(domain.SourceUnavailable, "check", err)
	}
	return version, nil
}
