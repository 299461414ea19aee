package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/bisa-app/factcheck/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	historyPage int
	historySize int
	historyJSON bool
)

var historyCmd = &cobra.Command{
	Use:   "history <post-id>",
	Short: "Show a post's fact-check runs, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

var statusCmd = &cobra.Command{
	Use:   "status <post-id>",
	Short: "Show a post's current fact-check status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statusCmd)

	historyCmd.Flags().IntVar(&historyPage, "page", 0, "page number, starting at 0")
	historyCmd.Flags().IntVar(&historySize, "size", 20, "runs per page (max 100)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print JSON")
	statusCmd.Flags().BoolVar(&historyJSON, "json", false, "print JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := newApp(ctx, cfg, appOptions{readOnly: true})
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.orchestrator.GetHistory(ctx, args[0], historyPage, historySize)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		return pipeline.RenderJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintf(out, "No fact-check runs for post %s\n", args[0])
		return nil
	}
	for _, r := range runs {
		pipeline.RenderResult(out, r)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := newApp(ctx, cfg, appOptions{readOnly: true})
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.orchestrator.GetStatus(ctx, args[0])
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		return pipeline.RenderJSON(out, status)
	}
	fmt.Fprintf(out, "Post:        %s\n", status.PostID)
	fmt.Fprintf(out, "Last run:    %s\n", status.RunStatus)
	fmt.Fprintf(out, "Validity:    %s\n", status.ValidityStatus)
	if status.HasFactCheck {
		fmt.Fprintf(out, "Accuracy:    %.2f (%s)\n", *status.AccuracyScore, status.ConfidenceLevel)
		fmt.Fprintf(out, "Checked at:  %s\n", status.LastChecked.Format(time.RFC3339))
	}
	return nil
}
