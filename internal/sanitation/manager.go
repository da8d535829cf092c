package sanitation

import (
	"context"
	"strings"
	"time"

	"github.com/mmrzaf/datasanitizer/internal/domain"
)

// RowSource reads and purges a table.
type RowSource interface {
	FetchAll(ctx context.Context, tableName string) ([]domain.Row, error)
	DeleteAll(ctx context.Context, tableName string) (int64, error)
}

// Exporter durably stores a snapshot and returns where it went.
type Exporter interface {
	Export(ctx context.Context, tableName string, rows []domain.Row) (string, error)
}

// HistorySink appends audit records.
type HistorySink interface {
	Save(ctx context.Context, history *domain.ExecutionHistory) error
}

// Observer is told about every run that got past input validation.
type Observer interface {
	RunFinished(tableName string, elapsed time.Duration, result *domain.ExecutionResult, err error)
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// Manager runs the snapshot, export, delete and record steps for one table.
// It is not safe to call Execute concurrently for the same table.
type Manager struct {
	source   RowSource
	exporter Exporter
	history  HistorySink
	now      func() time.Time
	observer Observer
}

func NewManager(source RowSource, exporter Exporter, history HistorySink, opts ...Option) *Manager {
	m := &Manager{
		source:   source,
		exporter: exporter,
		history:  history,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Execute purges tableName. Rows are deleted only after the snapshot export
// succeeded, and a history record is written only after the delete succeeded.
// Collaborator errors are returned as-is.
func (m *Manager) Execute(ctx context.Context, tableName string) (result *domain.ExecutionResult, err error) {
	if strings.TrimSpace(tableName) == "" {
		return nil, domain.ErrEmptyTableName
	}

	if m.observer != nil {
		started := m.now()
		defer func() {
			m.observer.RunFinished(tableName, m.now().Sub(started), result, err)
		}()
	}

	rows, err := m.source.FetchAll(ctx, tableName)
	if err != nil {
		return nil, err
	}

	exportPath, err := m.exporter.Export(ctx, tableName, rows)
	if err != nil {
		return nil, err
	}

	deleted, err := m.source.DeleteAll(ctx, tableName)
	if err != nil {
		return nil, err
	}

	history := &domain.ExecutionHistory{
		TableName:    tableName,
		DeletedCount: deleted,
		LogFilePath:  exportPath,
		ExecutedAt:   m.now().UTC(),
	}
	if err := m.history.Save(ctx, history); err != nil {
		return nil, err
	}

	return &domain.ExecutionResult{DeletedCount: deleted, ExportPath: exportPath}, nil
}
