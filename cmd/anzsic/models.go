package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/business-anzsic-locator/internal/cli"
	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/config"
	"github.com/Veraticus/business-anzsic-locator/internal/llm"
)

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List Gemini models that can serve AI classification",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			cfg := llmConfig(settings.LLM)
			if cfg.Provider != llm.ProviderGemini && cfg.Provider != "" {
				cfg.APIKey = os.Getenv(config.EnvGeminiAPIKey)
				cfg.Endpoint = ""
			}

			models, err := llm.ListGeminiModels(cmd.Context(), cfg)
			if err != nil {
				return common.NewUserError("Failed to list Gemini models", err)
			}
			if len(models) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No models support generateContent"))
				return err
			}

			rows := make([][]string, 0, len(models))
			for _, m := range models {
				rows = append(rows, []string{m.Name, m.DisplayName})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"Model", "Name"}, rows))
			return err
		},
	}
}
