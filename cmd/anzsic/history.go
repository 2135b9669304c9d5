package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/business-anzsic-locator/internal/cli"
	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/config"
	"github.com/Veraticus/business-anzsic-locator/internal/storage"
)

func historyCmd() *cobra.Command {
	var (
		limit  int
		status string
		code   string
		since  time.Duration
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent lookups",
		Example: `  anzsic history --limit 50
  anzsic history --code 4511 --since 168h
  anzsic history --status error`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistoryStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter := storage.HistoryFilter{Limit: limit, Status: status, Code: code}
			if since > 0 {
				cutoff := time.Now().Add(-since)
				filter.Since = &cutoff
			}

			records, err := store.RecentLookups(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if asJSON {
				if records == nil {
					records = []storage.LookupRecord{}
				}
				return writeJSON(cmd.OutOrStdout(), records)
			}
			return renderHistory(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of lookups")
	cmd.Flags().StringVar(&status, "status", "", "only lookups with this status (single, multiple, error)")
	cmd.Flags().StringVar(&code, "code", "", "only lookups where a candidate got this ANZSIC code")
	cmd.Flags().DurationVar(&since, "since", 0, "only lookups newer than this (e.g. 24h)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print lookups as JSON")

	cmd.AddCommand(historyPruneCmd())
	return cmd
}

func historyPruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete lookups older than a given age",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return common.NewUserError("--older-than must be positive", common.ErrInvalidConfig)
			}

			store, err := openHistoryStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := store.DeleteLookupsBefore(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %d lookups", n)))
			return err
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age cutoff")
	return cmd
}

func openHistoryStore(cmd *cobra.Command) (*storage.SQLiteStorage, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if !settings.HistoryEnabled() {
		return nil, common.NewUserError("History is disabled (database.path is empty or --no-history is set)", common.ErrMissingConfig)
	}
	return openHistory(cmd.Context(), settings.DatabasePath)
}

func renderHistory(w io.Writer, records []storage.LookupRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, cli.FormatInfo("No lookups recorded yet"))
		return err
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		summary := r.Error
		if summary == "" {
			results := r.Outcome.Results()
			if len(results) > 0 {
				c := results[0].EffectiveClassification()
				summary = fmt.Sprintf("%s %s (%s)", c.Code, c.Title, results[0].BusinessName)
			}
			if len(results) > 1 {
				summary += fmt.Sprintf(" +%d more", len(results)-1)
			}
		}
		rows = append(rows, []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Address,
			r.Status,
			summary,
		})
	}

	_, err := fmt.Fprintln(w, cli.RenderTable([]string{"When", "Address", "Status", "Result"}, rows))
	return err
}
