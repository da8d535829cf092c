package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/mmrzaf/datasanitizer/internal/app"
	"github.com/mmrzaf/datasanitizer/internal/infra/repos/history"
	"github.com/mmrzaf/datasanitizer/internal/timeutil"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past sanitation runs",
	}

	var (
		table  string
		since  string
		limit  int
		format string
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := history.Filter{TableName: table, Limit: limit}
			if since != "" {
				t, err := timeutil.ParseRelativeTime(since, time.Now())
				if err != nil {
					return fmt.Errorf("invalid --since: %w", err)
				}
				f.Since = t
			}

			repo, err := app.OpenHistory(cfg.HistoryKind, cfg.HistoryDSN)
			if err != nil {
				return err
			}
			defer repo.Close()

			list, err := repo.List(context.Background(), f)
			if err != nil {
				return err
			}

			if format == "json" {
				data, _ := json.MarshalIndent(list, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTABLE\tDELETED\tEXECUTED AT\tEXPORT")
			for _, h := range list {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", h.ID, h.TableName, h.DeletedCount, h.ExecutedAt.Format(time.RFC3339), h.LogFilePath)
			}
			w.Flush()
			return nil
		},
	}
	listCmd.Flags().StringVar(&table, "table", "", "Only runs for this table")
	listCmd.Flags().StringVar(&since, "since", "", "Only runs at or after this time (RFC3339 or relative, e.g. -7d)")
	listCmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of runs")
	listCmd.Flags().StringVar(&format, "format", "table", "Output format (table|json)")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}

			repo, err := app.OpenHistory(cfg.HistoryKind, cfg.HistoryDSN)
			if err != nil {
				return err
			}
			defer repo.Close()

			h, err := repo.Get(context.Background(), id)
			if errors.Is(err, history.ErrNotFound) {
				return fmt.Errorf("run %d not found", id)
			}
			if err != nil {
				return err
			}

			data, _ := yaml.Marshal(h)
			fmt.Print(string(data))
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}
