// Package schedule drives sanitation runs on a fixed interval or cron cadence.
package schedule

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmrzaf/datasanitizer/internal/domain"
	"github.com/mmrzaf/datasanitizer/internal/logging"
	"github.com/robfig/cron/v3"
)

// Runner executes one sanitation run for a table.
type Runner interface {
	Execute(ctx context.Context, tableName string) (*domain.ExecutionResult, error)
}

type Config struct {
	Tables   []string
	Interval time.Duration
	// Schedule is a standard five-field cron expression. When set it takes
	// precedence over Interval.
	Schedule       string
	RunImmediately bool
	// RunTimeout bounds a single table run. Zero means no limit.
	RunTimeout time.Duration
}

// TableOutcome is the result of one table's run within a cycle.
type TableOutcome struct {
	Table    string
	Result   *domain.ExecutionResult
	Err      error
	Duration time.Duration
}

type CycleReport struct {
	ID        string
	StartedAt time.Time
	Outcomes  []TableOutcome
	// Skipped lists tables that never started because the cycle was
	// cancelled.
	Skipped []string
}

// Interrupted reports whether cancellation left tables unrun.
func (r *CycleReport) Interrupted() bool { return len(r.Skipped) > 0 }

// Failed counts the tables whose run returned an error.
func (r *CycleReport) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

type Scheduler struct {
	runner Runner
	cfg    Config
	sched  cron.Schedule
	logger *logging.Logger
	now    func() time.Time

	// serializes cycles started from Run and from direct RunCycle calls
	mu sync.Mutex
}

// every is a cron.Schedule firing a fixed duration after the previous
// activation. Unlike cron.Every it keeps sub-second precision.
type every time.Duration

func (e every) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

func New(runner Runner, cfg Config, logger *logging.Logger) (*Scheduler, error) {
	const op = "schedule"
	if runner == nil {
		return nil, domain.Errorf(domain.InvalidArgument, op, "runner is required")
	}
	if len(cfg.Tables) == 0 {
		return nil, domain.Errorf(domain.InvalidArgument, op, "at least one table is required")
	}
	for _, t := range cfg.Tables {
		if strings.TrimSpace(t) == "" {
			return nil, domain.ErrEmptyTableName
		}
	}
	if cfg.RunTimeout < 0 {
		return nil, domain.Errorf(domain.InvalidArgument, op, "run timeout must not be negative")
	}

	var sched cron.Schedule
	if cfg.Schedule != "" {
		parsed, err := cron.ParseStandard(cfg.Schedule)
		if err != nil {
			return nil, domain.Errorf(domain.InvalidArgument, op, "invalid cron schedule %q: %w", cfg.Schedule, err)
		}
		sched = parsed
	} else {
		if cfg.Interval <= 0 {
			return nil, domain.Errorf(domain.InvalidArgument, op, "interval must be positive, got %s", cfg.Interval)
		}
		sched = every(cfg.Interval)
	}

	if logger == nil {
		logger = logging.NewLogger("info")
	}
	return &Scheduler{
		runner: runner,
		cfg:    cfg,
		sched:  sched,
		logger: logger.WithComponent("scheduler"),
		now:    time.Now,
	}, nil
}

// Next returns the activation time following t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.sched.Next(t)
}

// Run loops until ctx is cancelled. Failed runs are logged and the loop
// continues; only a caller error, which no later cycle could fix, ends it
// with an error.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Infow("scheduler started", map[string]any{
		"tables":   s.cfg.Tables,
		"interval": s.cfg.Interval.String(),
		"schedule": s.cfg.Schedule,
	})
	defer s.logger.Info("scheduler stopped")

	if s.cfg.RunImmediately {
		if _, err := s.RunCycle(ctx); err != nil {
			return err
		}
	}

	for {
		next := s.sched.Next(s.now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if _, err := s.RunCycle(ctx); err != nil {
			return err
		}
	}
}

// RunCycle runs every configured table once.
func (s *Scheduler) RunCycle(ctx context.Context) (*CycleReport, error) {
	return s.RunTables(ctx, s.cfg.Tables)
}

// RunTables runs the given tables sequentially. Cancelling ctx stops tables
// that have not started yet; a run already in progress finishes. The
// returned error is non-nil only for caller errors.
func (s *Scheduler) RunTables(ctx context.Context, tables []string) (*CycleReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &CycleReport{ID: uuid.NewString(), StartedAt: s.now().UTC()}
	log := s.logger.With(map[string]any{"cycle_id": report.ID})
	log.Debugw("cycle started", map[string]any{"tables": tables})

	for i, table := range tables {
		if ctx.Err() != nil {
			report.Skipped = append([]string(nil), tables[i:]...)
			log.Infow("cycle interrupted", map[string]any{"remaining_from": table, "skipped": len(report.Skipped)})
			break
		}

		outcome := s.runOne(ctx, table)
		report.Outcomes = append(report.Outcomes, outcome)

		fields := map[string]any{
			"table":       table,
			"duration_ms": outcome.Duration.Milliseconds(),
		}
		if outcome.Err != nil {
			fields["error"] = outcome.Err
			fields["error_kind"] = string(domain.KindOf(outcome.Err))
			if domain.IsCallerError(outcome.Err) {
				log.Errorw("sanitation run rejected", fields)
				return report, outcome.Err
			}
			if isCancellation(ctx, outcome.Err) {
				log.Infow("sanitation run cancelled", fields)
				report.Skipped = append([]string(nil), tables[i+1:]...)
				break
			}
			log.Errorw("sanitation run failed", fields)
			continue
		}
		fields["deleted_count"] = outcome.Result.DeletedCount
		fields["export_path"] = outcome.Result.ExportPath
		log.Infow("sanitation run completed", fields)
	}
	return report, nil
}

func (s *Scheduler) runOne(ctx context.Context, table string) TableOutcome {
	runCtx := context.WithoutCancel(ctx)
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, s.cfg.RunTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.runner.Execute(runCtx, table)
	return TableOutcome{Table: table, Result: res, Err: err, Duration: time.Since(start)}
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
