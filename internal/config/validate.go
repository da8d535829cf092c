package config

import (
	"github.com/mmrzaf/datasanitizer/internal/domain"
	"github.com/mmrzaf/datasanitizer/internal/validation"
	"github.com/robfig/cron/v3"
)

// Validate reports static misconfiguration as InvalidArgument errors.
func (c *Config) Validate() error {
	const op = "config"

	if len(c.Tables) == 0 {
		return domain.Errorf(domain.InvalidArgument, op, "at least one table is required")
	}
	seen := make(map[string]bool, len(c.Tables))
	for _, t := range c.Tables {
		if !validation.IsValidTableName(t) {
			return domain.Errorf(domain.InvalidArgument, op, "invalid table name: %q", t)
		}
		if seen[t] {
			return domain.Errorf(domain.InvalidArgument, op, "duplicate table name: %q", t)
		}
		seen[t] = true
	}

	if err := checkStore(op, "source", c.SourceKind, c.SourceDSN); err != nil {
		return err
	}
	if err := checkStore(op, "history", c.HistoryKind, c.HistoryDSN); err != nil {
		return err
	}

	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return domain.Errorf(domain.InvalidArgument, op, "invalid cron schedule %q: %w", c.Schedule, err)
		}
	} else if c.Interval <= 0 {
		return domain.Errorf(domain.InvalidArgument, op, "interval must be positive, got %s", c.Interval)
	}
	if c.RunTimeout < 0 {
		return domain.Errorf(domain.InvalidArgument, op, "run timeout must not be negative")
	}

	switch c.ExportKind {
	case domain.ExportKindFile:
		if c.ExportDir == "" {
			return domain.Errorf(domain.InvalidArgument, op, "export dir is required")
		}
	case domain.ExportKindS3:
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return domain.Errorf(domain.InvalidArgument, op, "s3 export needs endpoint and bucket")
		}
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return domain.Errorf(domain.InvalidArgument, op, "s3 export needs credentials")
		}
	default:
		return domain.Errorf(domain.InvalidArgument, op, "unsupported export kind: %q", c.ExportKind)
	}
	return nil
}

func checkStore(op, role, kind, dsn string) error {
	switch kind {
	case domain.KindPostgres, domain.KindSQLite:
	default:
		return domain.Errorf(domain.InvalidArgument, op, "unsupported %s kind: %q", role, kind)
	}
	if dsn == "" {
		return domain.Errorf(domain.InvalidArgument, op, "%s dsn is required", role)
	}
	return nil
}

// LogFields summarizes the configuration with secrets redacted.
func (c *Config) LogFields() map[string]any {
	return map[string]any{
		"source_kind":  c.SourceKind,
		"source_dsn":   RedactDSN(c.SourceDSN),
		"history_kind": c.HistoryKind,
		"history_dsn":  RedactDSN(c.HistoryDSN),
		"tables":       c.Tables,
		"interval":     c.Interval.String(),
		"schedule":     c.Schedule,
		"export_kind":  c.ExportKind,
		"export_dir":   c.ExportDir,
	}
}
