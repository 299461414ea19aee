package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bisa-app/factcheck/internal/pipeline"
	"github.com/bisa-app/factcheck/internal/sources"
	"github.com/spf13/cobra"
)

var (
	sourcesJSON  bool
	auditTimeout time.Duration
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect the reference source catalog",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog sources with their authority tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		resolver, authority, err := sources.Build(cfg.Sources.CatalogPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		list := resolver.Sources()
		if sourcesJSON {
			return pipeline.RenderJSON(out, list)
		}
		for _, s := range list {
			fmt.Fprintf(out, "%-28s %-10s %.2f  %s\n", s.Title, authority.Classify(s.URL), s.Reliability, s.URL)
		}
		return nil
	},
}

var sourcesAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check that every catalog source is reachable",
	Long: `Audit sends a HEAD request to every catalog URL, honouring robots.txt,
and reports which sources are accessible, dead (404/410) or disallowed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		resolver, authority, err := sources.Build(cfg.Sources.CatalogPath)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()

		list := resolver.Sources()
		fmt.Fprintf(os.Stderr, "Auditing %d sources with %d workers...\n", len(list), cfg.Sources.AuditWorkers)
		results := sources.NewAuditor(cfg.Sources, authority).Audit(ctx, list)

		out := cmd.OutOrStdout()
		if sourcesJSON {
			return pipeline.RenderJSON(out, results)
		}
		for _, r := range results {
			mark := "✓"
			switch {
			case r.Disallowed:
				mark = "⊘"
			case !r.Accessible:
				mark = "✗"
			}
			fmt.Fprintf(out, "%s %-28s %-10s %3d  %s", mark, r.Source.Title, r.Authority, r.StatusCode, r.Source.URL)
			if r.Error != "" {
				fmt.Fprintf(out, "  (%s)", r.Error)
			}
			fmt.Fprintln(out)
		}

		accessible, dead, disallowed := sources.Summary(results)
		fmt.Fprintf(os.Stderr, "\n%d accessible, %d dead, %d disallowed\n", accessible, dead, disallowed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesAuditCmd)

	sourcesCmd.PersistentFlags().BoolVar(&sourcesJSON, "json", false, "print JSON")
	sourcesAuditCmd.Flags().DurationVar(&auditTimeout, "timeout", 5*time.Minute, "overall audit timeout")
}
