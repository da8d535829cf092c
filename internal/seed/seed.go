// Package seed fills a table with synthetic log rows for local runs.
package seed

import (
	"context"
	"math/rand"
	"time"

	"github.com/mmrzaf/datasanitizer/internal/domain"
)

const DefaultBatchSize = 500

// Target is where seeded rows go.
type Target interface {
	CreateTableIfNotExists(ctx context.Context, tableName string, columns []domain.Column) error
	InsertBatch(ctx context.Context, tableName string, columns []string, rows [][]any) error
}

type Field struct {
	Column domain.Column
	Gen    Generator
}

type Options struct {
	Rows      int
	BatchSize int
	// Seed makes non-faker columns repeatable. Zero picks a time based seed.
	Seed int64
	// Start is the created_at of the first row; rows are Step apart.
	Start time.Time
	Step  time.Duration
}

// LogFields describes the demo application log table.
func LogFields(start time.Time, step time.Duration) []Field {
	return []Field{
		{domain.Column{Name: "id", Type: domain.ColumnTypeBigInt}, Serial{Start: 1}},
		{domain.Column{Name: "request_id", Type: domain.ColumnTypeString}, UUID4{}},
		{domain.Column{Name: "level", Type: domain.ColumnTypeString}, Choice{
			Values:  []string{"debug", "info", "warn", "error"},
			Weights: []float64{0.2, 0.6, 0.15, 0.05},
		}},
		{domain.Column{Name: "message", Type: domain.ColumnTypeText}, FakerSentence},
		{domain.Column{Name: "username", Type: domain.ColumnTypeString, Nullable: true}, FakerUsername},
		{domain.Column{Name: "client_ip", Type: domain.ColumnTypeString, Nullable: true}, FakerIPv4},
		{domain.Column{Name: "path", Type: domain.ColumnTypeString}, FakerURLPath},
		{domain.Column{Name: "duration_ms", Type: domain.ColumnTypeDouble}, UniformFloat{Min: 0.5, Max: 1500}},
		{domain.Column{Name: "success", Type: domain.ColumnTypeBool}, Ratio{P: 0.95}},
		{domain.Column{Name: "created_at", Type: domain.ColumnTypeTimestamp}, TimeSeries{Start: start, Step: step}},
	}
}

// Seed creates tableName if needed and appends opts.Rows demo log rows.
// It returns the number of rows inserted.
func Seed(ctx context.Context, target Target, tableName string, opts Options) (int, error) {
	if opts.Rows < 0 {
		return 0, domain.Errorf(domain.InvalidArgument, "seed", "rows must not be negative, got %d", opts.Rows)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Step <= 0 {
		opts.Step = time.Second
	}
	if opts.Start.IsZero() {
		opts.Start = time.Now().Add(-time.Duration(opts.Rows) * opts.Step)
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	fields := LogFields(opts.Start, opts.Step)
	columns := make([]domain.Column, len(fields))
	names := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Column
		names[i] = f.Column.Name
	}

	if err := target.CreateTableIfNotExists(ctx, tableName, columns); err != nil {
		return 0, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	inserted := 0
	batch := make([][]any, 0, opts.BatchSize)
	for i := 0; i < opts.Rows; i++ {
		row := make([]any, len(fields))
		for j, f := range fields {
			row[j] = f.Gen.Generate(rng, int64(i))
		}
		batch = append(batch, row)

		if len(batch) == opts.BatchSize || i == opts.Rows-1 {
			if err := target.InsertBatch(ctx, tableName, names, batch); err != nil {
				return inserted, err
			}
			inserted += len(batch)
			batch = make([][]any, 0, opts.BatchSize)
		}
	}
	return inserted, nil
}
