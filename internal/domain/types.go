package domain

import "time"

// ExecutionResult is what a single sanitation run hands back to its caller.
type ExecutionResult struct {
	DeletedCount int64  `json:"deleted_count"`
	ExportPath   string `json:"export_path"`
}

// ExecutionHistory is the audit entry persisted after a completed run.
// ID is assigned by the history store on insert.
type ExecutionHistory struct {
	ID           int64     `json:"id" yaml:"id"`
	TableName    string    `json:"table_name" yaml:"table_name"`
	DeletedCount int64     `json:"deleted_count" yaml:"deleted_count"`
	LogFilePath  string    `json:"log_file_path" yaml:"log_file_path"`
	ExecutedAt   time.Time `json:"executed_at" yaml:"executed_at"`
}

// Row is one source record keyed by column name.
type Row map[string]Value

type Column struct {
	Name     string     `json:"name" yaml:"name"`
	Type     ColumnType `json:"type" yaml:"type"`
	Nullable bool       `json:"nullable,omitempty" yaml:"nullable,omitempty"`
}

type ColumnType string

const (
	ColumnTypeInt       ColumnType = "int"
	ColumnTypeBigInt    ColumnType = "bigint"
	ColumnTypeFloat     ColumnType = "float"
	ColumnTypeDouble    ColumnType = "double"
	ColumnTypeString    ColumnType = "string"
	ColumnTypeText      ColumnType = "text"
	ColumnTypeBool      ColumnType = "bool"
	ColumnTypeTimestamp ColumnType = "timestamp"
)

const (
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"

	ExportKindFile = "file"
	ExportKindS3   = "s3"
)
