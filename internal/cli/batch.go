package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/bisa-app/factcheck/internal/pipeline"
	"github.com/bisa-app/factcheck/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency    int
	batchTimeout   time.Duration
	batchCheckedBy string
	batchJSON      bool
	batchRate      float64
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Fact-check many posts from a file in parallel",
	Long: `Batch reads post ids from a file (one per line, # comments allowed),
fact-checks them concurrently and records every run in the result store.

A post that already has a run in flight is reported and skipped.

Example:
  factcheck batch ids.txt
  factcheck batch ids.txt --concurrency 8 --timeout 30m
  factcheck batch ids.txt --rate 0.5      # at most one check every 2s`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for the batch")
	batchCmd.Flags().StringVar(&batchCheckedBy, "checked-by", "batch", "actor recorded on each run")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print results as JSON")
	batchCmd.Flags().Float64Var(&batchRate, "rate", 0, "maximum checks per second across workers (0 = unlimited)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Store:        %s\n", cfg.Store.Driver)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if batchRate > 0 {
		fmt.Fprintf(os.Stderr, "  Rate:         %.2f checks/s\n", batchRate)
	}
	fmt.Fprintf(os.Stderr, "\n")

	a, err := newApp(ctx, cfg, appOptions{withPosts: true, withAI: true})
	if err != nil {
		return err
	}
	defer a.Close()

	processor := worker.NewBatchProcessor(a.orchestrator, concurrency, batchCheckedBy).
		WithRateLimit(batchRate, 1)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	if batchJSON {
		return pipeline.RenderJSON(cmd.OutOrStdout(), results)
	}

	for _, r := range results {
		switch {
		case r.Result != nil:
			fmt.Fprintf(os.Stderr, "%s  ", r.PostID)
			pipeline.RenderResult(os.Stderr, r.Result)
		default:
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.PostID, r.Error)
		}
	}

	completed, failed, errored := worker.Summarize(results)
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:      %d posts\n", len(results))
	fmt.Fprintf(os.Stderr, "  Completed:  %d\n", completed)
	fmt.Fprintf(os.Stderr, "  Failed:     %d\n", failed)
	fmt.Fprintf(os.Stderr, "  Skipped:    %d\n", errored)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
