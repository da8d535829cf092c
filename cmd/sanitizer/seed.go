package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mmrzaf/datasanitizer/internal/app"
	"github.com/mmrzaf/datasanitizer/internal/infra/tables"
	"github.com/mmrzaf/datasanitizer/internal/seed"
	"github.com/mmrzaf/datasanitizer/internal/validation"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	var opts seed.Options

	cmd := &cobra.Command{
		Use:   "seed <table>",
		Short: "Create a demo log table and fill it with fake rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			if !validation.IsValidTableName(table) {
				return fmt.Errorf("invalid table name: %q", table)
			}

			ctx, stop := signalContext()
			defer stop()

			src, err := tables.OpenOrCreate(ctx, cfg.SourceKind, cfg.SourceDSN)
			if err != nil {
				return err
			}
			defer src.Close()

			n, err := seed.Seed(ctx, src, table, opts)
			if err != nil {
				return err
			}
			fmt.Printf("Inserted %d rows into %s\n", n, table)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Rows, "rows", 100, "Number of rows to insert")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", seed.DefaultBatchSize, "Rows per insert batch")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Random seed (0 = time based)")
	cmd.Flags().DurationVar(&opts.Step, "step", 0, "Time between consecutive rows' created_at (default 1s)")
	return cmd
}

func checkCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check connectivity to the source and history stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			checks := app.CheckStores(ctx, cfg)

			if format == "json" {
				data, _ := json.MarshalIndent(checks, "", "  ")
				fmt.Println(string(data))
			} else {
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ROLE\tKIND\tDSN\tOK\tLATENCY\tVERSION\tERROR")
				for _, c := range checks {
					fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%dms\t%s\t%s\n", c.Role, c.Kind, c.DSN, c.OK, c.LatencyMS, c.ServerVer, c.Error)
				}
				w.Flush()
			}

			for _, c := range checks {
				if !c.OK {
					return fmt.Errorf("%s store is not reachable", c.Role)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table|json)")
	return cmd
}
