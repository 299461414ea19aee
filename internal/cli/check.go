package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bisa-app/factcheck/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	checkContent string
	checkFile    string
	checkTags    []string
	checkedBy    string
	checkJSON    bool
	checkTimeout time.Duration
	checkNoAI    bool
)

var checkCmd = &cobra.Command{
	Use:   "check [post-id]",
	Short: "Fact-check a stored post, or analyze text without saving",
	Long: `With a post id, check loads the post from the configured post source,
runs a full fact-check and records it in the result store.

Without a post id, check analyzes --content, --file or standard input
and prints the outcome. Nothing is persisted.

Example:
  factcheck check etna-2024
  factcheck check --content "Mount Etna erupted in 2024." --tags volcano
  echo "NASA said 3 launches slipped." | factcheck check --tags space --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkContent, "content", "", "text to analyze")
	checkCmd.Flags().StringVar(&checkFile, "file", "", "read text to analyze from a file")
	checkCmd.Flags().StringSliceVar(&checkTags, "tags", nil, "post tags used to pick reference sources")
	checkCmd.Flags().StringVar(&checkedBy, "checked-by", "cli", "actor recorded on the run")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print JSON instead of a summary")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall timeout")
	checkCmd.Flags().BoolVar(&checkNoAI, "no-ai", false, "skip AI verification even when configured")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, appOptions{withPosts: len(args) == 1, withAI: !checkNoAI})
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		if verbose {
			fmt.Fprintf(os.Stderr, "Checking post %s...\n", args[0])
		}
		result, err := a.orchestrator.CheckPost(ctx, args[0], checkedBy)
		if result == nil {
			return fmt.Errorf("check failed: %w", err)
		}
		if checkJSON {
			if renderErr := pipeline.RenderJSON(out, result); renderErr != nil {
				return renderErr
			}
		} else {
			pipeline.RenderResult(out, result)
		}
		return err
	}

	content, err := readContent(cmd.InOrStdin())
	if err != nil {
		return err
	}
	analysis, err := a.orchestrator.Analyze(ctx, pipeline.Input{Content: content, Tags: checkTags})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if checkJSON {
		return pipeline.RenderJSON(out, analysis)
	}
	pipeline.RenderSummary(out, analysis)
	return nil
}

func readContent(stdin io.Reader) (string, error) {
	switch {
	case checkContent != "" && checkFile != "":
		return "", errors.New("use either --content or --file, not both")
	case checkContent != "":
		return checkContent, nil
	case checkFile != "":
		data, err := os.ReadFile(checkFile)
		if err != nil {
			return "", fmt.Errorf("read content file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(io.LimitReader(stdin, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("nothing to analyze: pass a post id, --content, --file or pipe text on stdin")
	}
	return string(data), nil
}
