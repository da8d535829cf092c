// Package app wires configuration to the sanitizer's stores, exporter and scheduler.
package app

import (
	"context"
	"errors"

	"github.com/mmrzaf/datasanitizer/internal/config"
	"github.com/mmrzaf/datasanitizer/internal/domain"
	"github.com/mmrzaf/datasanitizer/internal/infra/export"
	"github.com/mmrzaf/datasanitizer/internal/infra/repos/history"
	"github.com/mmrzaf/datasanitizer/internal/infra/tables"
	"github.com/mmrzaf/datasanitizer/internal/logging"
	"github.com/mmrzaf/datasanitizer/internal/metrics"
	"github.com/mmrzaf/datasanitizer/internal/sanitation"
	"github.com/mmrzaf/datasanitizer/internal/schedule"
)

type Service struct {
	cfg      *config.Config
	logger   *logging.Logger
	source   tables.Source
	history  history.Repository
	exporter sanitation.Exporter
	metrics  *metrics.Collector
	manager  *sanitation.Manager
}

// New validates cfg, then connects the row source and the history store and
// builds the exporter. The caller must Close the service.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewLogger(cfg.LogLevel)
	}

	exporter, err := NewExporter(cfg)
	if err != nil {
		return nil, err
	}

	// The source goes first: history may share its SQLite file and would
	// otherwise create it.
	src, err := tables.Open(ctx, cfg.SourceKind, cfg.SourceDSN)
	if err != nil {
		return nil, err
	}

	hist, err := OpenHistory(cfg.HistoryKind, cfg.HistoryDSN)
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	collector := metrics.NewCollector(nil)
	s := &Service{
		cfg:      cfg,
		logger:   logger,
		source:   src,
		history:  hist,
		exporter: exporter,
		metrics:  collector,
		manager:  sanitation.NewManager(src, exporter, hist, sanitation.WithObserver(collector)),
	}
	logger.WithComponent("app").Infow("sanitizer configured", cfg.LogFields())
	return s, nil
}

// OpenHistory opens and migrates the history store.
func OpenHistory(kind, dsn string) (history.Repository, error) {
	var repo history.Repository
	switch kind {
	case domain.KindSQLite:
		repo = history.NewSQLiteRepository(dsn)
	case domain.KindPostgres:
		repo = history.NewPostgresRepository(dsn)
	default:
		return nil, domain.Errorf(domain.InvalidArgument, "open history", "unsupported history kind: %s", kind)
	}
	if err := repo.Init(); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

func NewExporter(cfg *config.Config) (sanitation.Exporter, error) {
	switch cfg.ExportKind {
	case domain.ExportKindFile:
		return export.NewFileExporter(cfg.ExportDir), nil
	case domain.ExportKindS3:
		exp, err := export.NewS3Exporter(export.S3Options{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			Region:    cfg.S3.Region,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return exp, nil
	default:
		return nil, domain.Errorf(domain.InvalidArgument, "exporter", "unsupported export kind: %s", cfg.ExportKind)
	}
}

// Scheduler builds a scheduler over the configured tables and cadence.
func (s *Service) Scheduler(runImmediately bool) (*schedule.Scheduler, error) {
	return schedule.New(s.manager, schedule.Config{
		Tables:         s.cfg.Tables,
		Interval:       s.cfg.Interval,
		Schedule:       s.cfg.Schedule,
		RunImmediately: runImmediately,
		RunTimeout:     s.cfg.RunTimeout,
	}, s.logger)
}

func (s *Service) Manager() *sanitation.Manager { return s.manager }
func (s *Service) Source() tables.Source        { return s.source }
func (s *Service) History() history.Repository  { return s.history }
func (s *Service) Metrics() *metrics.Collector  { return s.metrics }

func (s *Service) Close() error {
	return errors.Join(s.source.Close(), s.history.Close())
}
