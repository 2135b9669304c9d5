package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/business-anzsic-locator/internal/cli"
	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/config"
	"github.com/Veraticus/business-anzsic-locator/internal/taxonomy"
)

func taxonomyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Inspect or update the ANZSIC reference taxonomy",
	}
	cmd.AddCommand(taxonomyShowCmd())
	cmd.AddCommand(taxonomySearchCmd())
	cmd.AddCommand(taxonomyUpdateCmd())
	return cmd
}

func loadTaxonomy() (*taxonomy.Taxonomy, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	t, err := taxonomy.Load(settings.TaxonomyPath)
	if err != nil {
		return nil, common.NewUserError("Failed to load taxonomy", err)
	}
	return t, nil
}

func taxonomyShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <code>",
		Short: "Show one ANZSIC class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTaxonomy()
			if err != nil {
				return err
			}
			entry, ok := t.Lookup(args[0])
			if !ok {
				return common.NewUserError(fmt.Sprintf("No ANZSIC class %q", args[0]), nil)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entry)
			}

			body := fmt.Sprintf("%s %s\n%s %s\n%s %s\n%s %s",
				cli.BoldStyle.Render("Division   "), entry.Division+" "+entry.DivisionTitle,
				cli.BoldStyle.Render("Subdivision"), entry.Subdivision+" "+entry.SubdivisionTitle,
				cli.BoldStyle.Render("Group      "), entry.Group+" "+entry.GroupTitle,
				cli.BoldStyle.Render("Class      "), entry.Code+" "+entry.Title)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(entry.Code+" "+entry.Title, body))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the entry as JSON")
	return cmd
}

func taxonomySearchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search classes by code prefix or title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTaxonomy()
			if err != nil {
				return err
			}
			entries := t.Search(args[0])
			if asJSON {
				if entries == nil {
					return writeJSON(cmd.OutOrStdout(), []any{})
				}
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTaxonomy(entries))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print matches as JSON")
	return cmd
}

func taxonomyUpdateCmd() *cobra.Command {
	var (
		output string
		url    string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Rebuild the taxonomy file from the ABS codelist",
		Long: `Update downloads the ANZSIC 2006 codelist from the ABS data API, builds the
four-digit classes with their division, subdivision and group, and writes them as
JSON. Point taxonomy.path at the written file to use it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := &http.Client{Timeout: 60 * time.Second}
			raw, err := taxonomy.FetchCodelist(cmd.Context(), client, url)
			if err != nil {
				return common.NewUserError("Failed to download the ABS codelist", err)
			}

			codes, err := taxonomy.ParseCodelist(bytes.NewReader(raw))
			if err != nil {
				return err
			}
			entries := taxonomy.BuildHierarchy(codes)
			if len(entries) == 0 {
				return common.NewUserError("The ABS codelist contained no four-digit classes", nil)
			}

			path := config.ExpandPath(output)
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create taxonomy file: %w", err)
			}
			if err := taxonomy.WriteJSON(f, entries); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close taxonomy file: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(),
				cli.FormatSuccess(fmt.Sprintf("Wrote %d ANZSIC classes to %s", len(entries), path)))
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "anzsic_codes.json", "file to write")
	cmd.Flags().StringVar(&url, "url", taxonomy.ABSCodelistURL, "SDMX codelist URL")
	return cmd
}
