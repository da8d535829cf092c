package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmrzaf/datasanitizer/internal/domain"
)

// Filter narrows List results. Zero values mean "no restriction".
type Filter struct {
	TableName string
	Since     time.Time
	Limit     int
}

const defaultListLimit = 50

// Repository stores execution history for the sanitizer audit trail.
type Repository interface {
	Init() error
	Save(ctx context.Context, h *domain.ExecutionHistory) error
	Get(ctx context.Context, id int64) (*domain.ExecutionHistory, error)
	List(ctx context.Context, f Filter) ([]*domain.ExecutionHistory, error)
	DB() *sql.DB
	Close() error
}

type migration struct {
	v  int
	up func(*sql.DB) error
}

// applyMigrations runs every migration above the recorded schema version.
// bind renders the positional placeholder for the dialect.
func applyMigrations(db *sql.DB, migs []migration, bind func(int) string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return err
	}
	var cur int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&cur); err != nil {
		return err
	}

	for _, m := range migs {
		if cur >= m.v {
			continue
		}
		if err := m.up(db); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.v, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_migrations(version) VALUES (`+bind(1)+`)`, m.v); err != nil {
			return err
		}
		cur = m.v
	}
	return nil
}

func persistenceErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return domain.NewError(domain.PersistenceFailed, op, err)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
