package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Veraticus/business-anzsic-locator/internal/cli"
	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/engine"
	"github.com/Veraticus/business-anzsic-locator/internal/export"
	"github.com/Veraticus/business-anzsic-locator/internal/sheets"
)

func batchCmd() *cobra.Command {
	var (
		output    string
		format    string
		toSheets  bool
		sheetsCfg sheets.Config
	)

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Identify every address in a file and export the classifications",
		Long: `Batch reads one address per line (blank lines and lines starting with # are
skipped; use - for stdin), identifies each one and writes a CSV or XLSX report,
or publishes it to Google Sheets with --sheets.
The AI classification cache is shared across the whole batch.`,
		Example: `  anzsic batch addresses.txt --output report.xlsx
  cat addresses.txt | anzsic batch - --format csv > report.csv
  anzsic batch addresses.txt --sheets`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addresses, err := readAddresses(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if len(addresses) == 0 {
				return common.NewUserError("No addresses found in "+args[0], common.ErrEmptyAddress)
			}

			exportFormat := export.Format(strings.ToLower(format))
			if exportFormat == "" {
				exportFormat = export.FormatFromPath(output)
			}

			a, err := newApp(cmd.Context(), appOptions{requireLookup: true, history: true})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if toSheets {
				sheetsCfg = sheetsConfig(a.settings.Sheets)
				if err := checkSheets(sheetsCfg); err != nil {
					return err
				}
			}

			interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := interrupts.HandleInterrupts(cmd.Context(), "Addresses finished so far will still be exported.")

			items, runErr := runBatch(ctx, a, addresses, cmd.ErrOrStderr())
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}

			if !toSheets || output != "" {
				if err := writeReport(cmd.OutOrStdout(), output, exportFormat, items); err != nil {
					return err
				}
			}
			if toSheets {
				// Interrupted runs still publish what finished.
				if err := publishSheets(context.WithoutCancel(ctx), sheetsCfg, a.logger, items, cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			failed := 0
			for _, item := range items {
				if item.Outcome.Failed() {
					failed++
				}
			}
			summary := fmt.Sprintf("Identified %d of %d addresses (%d failed)", len(items)-failed, len(addresses), failed)
			if output != "" {
				summary += ", report written to " + output
			}
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(summary))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "report file (default: stdout)")
	cmd.Flags().BoolVar(&toSheets, "sheets", false, "publish the report to Google Sheets (stdout report is skipped unless --output is set)")
	cmd.Flags().StringVar(&format, "format", "", "report format: csv or xlsx (default: from --output extension, else csv)")
	return cmd
}

func runBatch(ctx context.Context, a *app, addresses []string, progressOut io.Writer) ([]engine.BatchItem, error) {
	progress := cli.NewProgress(progressOut, len(addresses))
	defer progress.Finish()

	return a.resolver.IdentifyAll(ctx, addresses, func(item engine.BatchItem) {
		a.record(ctx, uuid.NewString(), item.Address, item.Outcome)
		progress.Step()
	})
}

func writeReport(stdout io.Writer, path string, format export.Format, items []engine.BatchItem) error {
	if path == "" {
		return export.Write(stdout, format, items)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := export.Write(f, format, items); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}

// readAddresses reads one address per line from path, or from stdin when path is "-".
func readAddresses(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open address file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var addresses []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		addresses = append(addresses, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read addresses: %w", err)
	}
	return addresses, nil
}
