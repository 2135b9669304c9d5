package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/config"
	"github.com/Veraticus/business-anzsic-locator/internal/export"
	"github.com/Veraticus/business-anzsic-locator/internal/model"
	"github.com/Veraticus/business-anzsic-locator/internal/storage"
)

// setupViper resets global config to defaults with the AI tier and history off.
func setupViper(t *testing.T) {
	t.Helper()

	t.Setenv(config.EnvGoogleAPIKey, "")
	t.Setenv(config.EnvGeminiAPIKey, "")
	for _, key := range []string{config.EnvSheetsClientID, config.EnvSheetsClientSecret, config.EnvSheetsRefreshToken, config.EnvSheetsServiceAccount} {
		t.Setenv(key, "")
	}

	viper.Reset()
	config.SetDefaults(viper.GetViper())
	viper.Set("llm.disabled", true)
	viper.Set("database.disabled", true)
	t.Cleanup(viper.Reset)
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestIdentifyCommand(t *testing.T) {
	t.Run("demo lookup", func(t *testing.T) {
		setupViper(t)

		out, _, err := execute(t, identifyCmd(), "", "--json", "12 Fitness Lane,", "Sydney")
		require.NoError(t, err)

		var outcome model.Outcome
		require.NoError(t, json.Unmarshal([]byte(out), &outcome))
		require.NotNil(t, outcome.Result)
		assert.Equal(t, model.StatusSingle, outcome.Status)
		assert.Equal(t, "Demo Fitness Centre (MOCK DATA)", outcome.Result.BusinessName)
		assert.Equal(t, "12 Fitness Lane, Sydney", outcome.Result.Address)
		assert.Equal(t, model.MatchDirectMap, outcome.Result.MatchMethod)
		assert.Equal(t, "9111", outcome.Result.RecommendedClassification.Code)
	})

	t.Run("rendered output", func(t *testing.T) {
		setupViper(t)

		out, _, err := execute(t, identifyCmd(), "", "1 Harbour St")
		require.NoError(t, err)
		assert.Contains(t, out, "The Demo Cafe (MOCK DATA)")
		assert.Contains(t, out, "4511")
	})

	t.Run("blank address", func(t *testing.T) {
		setupViper(t)

		_, _, err := execute(t, identifyCmd(), "", "   ")
		require.ErrorIs(t, err, common.ErrEmptyAddress)
	})

	t.Run("no key and demo off", func(t *testing.T) {
		setupViper(t)
		viper.Set("places.demo", false)

		_, _, err := execute(t, identifyCmd(), "", "1 Harbour St")
		require.ErrorIs(t, err, common.ErrMissingConfig)

		var userErr *common.UserError
		require.ErrorAs(t, err, &userErr)
	})
}

func TestBatchCommand(t *testing.T) {
	setupViper(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "addresses.txt")
	require.NoError(t, os.WriteFile(input, []byte("# office list\n1 Bank St\n\n2 Hotel Rd\n"), 0o600))
	report := filepath.Join(dir, "report.csv")

	_, stderr, err := execute(t, batchCmd(), "", input, "--output", report)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Identified 2 of 2 addresses (0 failed)")

	f, err := os.Open(report)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, export.Header, records[0])
	assert.Equal(t, "1 Bank St", records[1][0])
	assert.Equal(t, "Demo Bank Branch (MOCK DATA)", records[1][3])
	assert.Equal(t, "6221", records[1][6])
	assert.Equal(t, "2 Hotel Rd", records[2][0])
}

func TestBatchCommandStdin(t *testing.T) {
	setupViper(t)

	out, _, err := execute(t, batchCmd(), "1 School Ave\n", "-", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Demo Primary School (MOCK DATA)")

	_, _, err = execute(t, batchCmd(), "\n# nothing\n", "-")
	require.ErrorIs(t, err, common.ErrEmptyAddress)
}

func TestBatchCommandSheetsNotConfigured(t *testing.T) {
	setupViper(t)

	_, stderr, err := execute(t, batchCmd(), "1 Bank St\n", "-", "--sheets")
	require.ErrorIs(t, err, common.ErrMissingConfig)
	assert.NotContains(t, stderr, "Identified", "no lookups run before the check")
}

func TestSheetsAuthNotConfigured(t *testing.T) {
	setupViper(t)

	_, _, err := execute(t, sheetsAuthCmd(), "")
	require.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestSheetsConfig(t *testing.T) {
	cfg := sheetsConfig(config.SheetsSettings{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenFile:    "/tmp/token.json",
		SheetTitle:   "Audit",
		BatchSize:    50,
	})
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Audit", cfg.SheetTitle)
	assert.Equal(t, "ANZSIC Classifications", cfg.SpreadsheetName)
	assert.Equal(t, "/tmp/token.json", cfg.TokenFile)
	assert.NotNil(t, cfg.Executor)

	cfg = sheetsConfig(config.SheetsSettings{ServiceAccountPath: "/keys/sa.json", TokenFile: "/tmp/token.json", BatchSize: 50})
	require.NoError(t, cfg.Validate(), "the default token file does not conflict with a service account")
	assert.Empty(t, cfg.TokenFile)
}

func TestHistoryCommands(t *testing.T) {
	setupViper(t)
	viper.Set("database.disabled", false)
	viper.Set("database.path", filepath.Join(t.TempDir(), "history.db"))

	_, _, err := execute(t, identifyCmd(), "", "1 Harbour St")
	require.NoError(t, err)
	_, _, err = execute(t, identifyCmd(), "", "9 Medical Pde")
	require.NoError(t, err)

	out, _, err := execute(t, historyCmd(), "", "--json")
	require.NoError(t, err)

	var records []storage.LookupRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "9 Medical Pde", records[0].Address)
	assert.NotEmpty(t, records[0].RequestID)

	out, _, err = execute(t, historyCmd(), "", "--code", "4511")
	require.NoError(t, err)
	assert.Contains(t, out, "1 Harbour St")
	assert.NotContains(t, out, "9 Medical Pde")

	out, _, err = execute(t, historyCmd(), "", "prune", "--older-than", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 0 lookups")
}

func TestHistoryDisabled(t *testing.T) {
	setupViper(t)

	_, _, err := execute(t, historyCmd(), "")
	require.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestTaxonomyCommands(t *testing.T) {
	setupViper(t)

	out, _, err := execute(t, taxonomyShowCmd(), "", "--json", "4511")
	require.NoError(t, err)
	var entry model.TaxonomyEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, "4511", entry.Code)
	assert.Equal(t, "H", entry.Division)

	_, _, err = execute(t, taxonomyShowCmd(), "", "0000")
	require.Error(t, err)

	out, _, err = execute(t, taxonomySearchCmd(), "", "--json", "zzzz-no-match")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	out, _, err = execute(t, taxonomySearchCmd(), "", "cafes")
	require.NoError(t, err)
	assert.Contains(t, out, "4511")
}

func TestReadAddresses(t *testing.T) {
	got, err := readAddresses(strings.NewReader("  a  \n#skip\n\nb\n"), "-")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = readAddresses(nil, filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderHistory(&buf, nil))
	assert.Contains(t, buf.String(), "No lookups recorded yet")

	buf.Reset()
	failed := model.ClassificationResult{
		BusinessName:              "Zephyr Holdings",
		MatchMethod:               model.MatchFailed,
		RecommendedClassification: model.UnknownClassification(),
		AIClassification:          &model.Classification{Code: "6932", Title: "Accounting Services"},
	}
	records := []storage.LookupRecord{
		{CreatedAt: time.Now(), Address: "1 Tower Rd", Status: "multiple", Outcome: model.Outcome{
			Status:     model.StatusMultiple,
			Candidates: []model.ClassificationResult{failed, failed},
		}},
		{CreatedAt: time.Now(), Address: "Nowhere", Status: storage.StatusError, Error: "No business found at this address."},
	}
	require.NoError(t, renderHistory(&buf, records))
	assert.Contains(t, buf.String(), "6932 Accounting Services (Zephyr Holdings) +1 more")
	assert.Contains(t, buf.String(), "No business found at this address.")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, versionCmd(), "")
	require.NoError(t, err)
	assert.Equal(t, "anzsic dev\n", out)
}
