package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Veraticus/business-anzsic-locator/internal/cli"
	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/engine"
	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

func identifyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "identify <address>",
		Short: "Identify the business at an address and recommend an ANZSIC class",
		Long: `Identify looks up the business at an address and classifies it. Addresses that
resolve to a street, premise or locality are expanded into the businesses found
nearby, each classified separately.`,
		Example: `  anzsic identify "1 Martin Place, Sydney NSW"
  anzsic identify --json "Westfield Bondi Junction"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := strings.TrimSpace(strings.Join(args, " "))
			if address == "" {
				return common.NewUserError(engine.MsgAddressRequired, common.ErrEmptyAddress)
			}

			a, err := newApp(cmd.Context(), appOptions{requireLookup: true, history: true})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			outcome := a.resolver.Identify(cmd.Context(), address)
			a.record(cmd.Context(), uuid.NewString(), address, outcome)

			if err := writeOutcome(cmd.OutOrStdout(), address, outcome, asJSON); err != nil {
				return err
			}
			if outcome.Failed() {
				return common.NewUserError(outcome.Error, nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outcome as JSON")
	return cmd
}

func writeOutcome(w io.Writer, address string, outcome model.Outcome, asJSON bool) error {
	if asJSON {
		return writeJSON(w, outcome)
	}
	if outcome.Failed() {
		return nil
	}
	_, err := fmt.Fprintln(w, cli.RenderOutcome(address, outcome))
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
