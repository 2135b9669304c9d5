package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/business-anzsic-locator/internal/cli"
	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/config"
	"github.com/Veraticus/business-anzsic-locator/internal/engine"
	"github.com/Veraticus/business-anzsic-locator/internal/resilience"
	"github.com/Veraticus/business-anzsic-locator/internal/sheets"
)

func sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Manage Google Sheets publishing for batch reports",
	}
	cmd.AddCommand(sheetsAuthCmd())
	return cmd
}

func sheetsAuthCmd() *cobra.Command {
	var callback string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Sheets access and save the refresh token",
		Long: `Auth opens the Google consent flow for sheets.client_id and waits for the browser
to return to a loopback callback. The token is saved to sheets.token_file and used
by "batch --sheets" from then on.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			s := settings.Sheets
			if s.ClientID == "" || s.ClientSecret == "" {
				return common.NewUserError("Set sheets.client_id and sheets.client_secret (or "+
					config.EnvSheetsClientID+" and "+config.EnvSheetsClientSecret+") first", common.ErrMissingConfig)
			}

			out := cmd.OutOrStdout()
			_, err = sheets.Authenticate(cmd.Context(), sheets.OAuth2Config{
				ClientID:     s.ClientID,
				ClientSecret: s.ClientSecret,
				TokenFile:    s.TokenFile,
				CallbackAddr: callback,
				Logger:       slog.Default(),
				Prompt: func(authURL string) {
					_, _ = fmt.Fprintln(out, cli.FormatInfo("Open this URL to authorize Google Sheets access:"))
					_, _ = fmt.Fprintln(out, authURL)
				},
			})
			if err != nil {
				return common.NewUserError("Google Sheets authorization failed", err)
			}

			_, err = fmt.Fprintln(out, cli.FormatSuccess("Token saved to "+s.TokenFile))
			return err
		},
	}

	cmd.Flags().StringVar(&callback, "callback", "127.0.0.1:8080", "loopback address for the OAuth redirect")
	return cmd
}

func sheetsConfig(s config.SheetsSettings) sheets.Config {
	cfg := sheets.DefaultConfig()
	cfg.ClientID = s.ClientID
	cfg.ClientSecret = s.ClientSecret
	cfg.RefreshToken = s.RefreshToken
	cfg.ServiceAccountPath = s.ServiceAccountPath
	if s.ServiceAccountPath == "" {
		cfg.TokenFile = s.TokenFile
	}
	cfg.SpreadsheetID = s.SpreadsheetID
	if s.SpreadsheetName != "" {
		cfg.SpreadsheetName = s.SpreadsheetName
	}
	if s.SheetTitle != "" {
		cfg.SheetTitle = s.SheetTitle
	}
	if s.TimeZone != "" {
		cfg.TimeZone = s.TimeZone
	}
	cfg.BatchSize = s.BatchSize
	cfg.Executor = resilience.NewExecutor(resilience.Config{RetryMaxAttempts: 3})
	return cfg
}

// checkSheets fails fast, before any lookups run, when publishing cannot work.
func checkSheets(cfg sheets.Config) error {
	if err := cfg.Validate(); err != nil {
		return common.NewUserError("Google Sheets is not configured: "+err.Error(), common.ErrMissingConfig)
	}
	return nil
}

func publishSheets(ctx context.Context, cfg sheets.Config, logger *slog.Logger, items []engine.BatchItem, out io.Writer) error {
	writer, err := sheets.NewWriter(ctx, cfg, logger)
	if err != nil {
		return common.NewUserError("Failed to connect to Google Sheets", err)
	}

	result, err := writer.Write(ctx, items)
	if err != nil {
		return common.NewUserError("Failed to publish report to Google Sheets", err)
	}

	location := result.URL
	if location == "" {
		location = result.SpreadsheetID
	}
	_, err = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Published %d rows to %s", result.Rows, location)))
	return err
}
