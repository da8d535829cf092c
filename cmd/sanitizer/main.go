package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/mmrzaf/datasanitizer/internal/app"
	"github.com/mmrzaf/datasanitizer/internal/config"
	"github.com/mmrzaf/datasanitizer/internal/logging"
	"github.com/mmrzaf/datasanitizer/internal/schedule"
	"github.com/mmrzaf/datasanitizer/internal/validation"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *logging.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "sanitizer",
		Short:         "Export and purge log tables on a schedule",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				loaded.LogLevel = logLevel
			}
			cfg = loaded
			logger = logging.NewLogger(cfg.LogLevel)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default $SANITIZER_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(onceCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(checkCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runCmd() *cobra.Command {
	var (
		interval string
		now      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sanitizer until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval != "" {
				if err := cfg.OverrideInterval(interval); err != nil {
					return err
				}
			}

			ctx, stop := signalContext()
			defer stop()

			svc, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			sched, err := svc.Scheduler(now)
			if err != nil {
				return err
			}

			if cfg.MetricsAddr != "" {
				srv := serveMetrics(cfg.MetricsAddr, svc)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			return sched.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&interval, "interval", "", "Override the run interval (e.g. 5m, 1h, 1d)")
	cmd.Flags().BoolVar(&now, "now", false, "Run a cycle immediately on start")
	return cmd
}

func serveMetrics(addr string, svc *app.Service) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", svc.Metrics().Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	log := logger.WithComponent("metrics")
	go func() {
		log.Infow("metrics server listening", map[string]any{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("metrics server failed", map[string]any{"error": err})
		}
	}()
	return srv
}

func onceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once [table...]",
		Short: "Run one sanitation cycle now",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables := cfg.Tables
			if len(args) > 0 {
				for _, t := range args {
					if !validation.IsValidTableName(t) {
						return fmt.Errorf("invalid table name: %q", t)
					}
				}
				tables = args
				cfg.Tables = args
			}

			ctx, stop := signalContext()
			defer stop()

			svc, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			sched, err := svc.Scheduler(false)
			if err != nil {
				return err
			}
			report, err := sched.RunTables(ctx, tables)
			if report != nil {
				printReport(report)
			}
			if err != nil {
				return err
			}
			if n := report.Failed(); n > 0 {
				return fmt.Errorf("%d of %d table runs failed", n, len(report.Outcomes))
			}
			if report.Interrupted() {
				return fmt.Errorf("interrupted: %d of %d tables not run", len(report.Skipped), len(tables))
			}
			return nil
		},
	}
}

func printReport(report *schedule.CycleReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tSTATUS\tDELETED\tEXPORT\tDURATION")
	for _, o := range report.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "%s\tfailed\t-\t%s\t%s\n", o.Table, o.Err, o.Duration.Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(w, "%s\tok\t%d\t%s\t%s\n", o.Table, o.Result.DeletedCount, o.Result.ExportPath, o.Duration.Round(time.Millisecond))
	}
	for _, table := range report.Skipped {
		fmt.Fprintf(w, "%s\tskipped\t-\t-\t-\n", table)
	}
	w.Flush()
}
