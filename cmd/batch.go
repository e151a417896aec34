package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"billtools/internal/batch"
	"billtools/internal/logger"
	"billtools/pkg/models"
)

var batchCmd = &cobra.Command{
	Use:   "batch [folder|image-files...]",
	Short: "Extract every bill image in a folder and write the facts to a sink",
	Long: `Process bill and receipt images one at a time, in name order, and write
the extracted facts to a JSON-lines file, an XLSX workbook or a Google Sheet.

Every document of one run shares the billing period given by --month and
--year. Interrupting the run (Ctrl+C) keeps the documents that finished and
still writes them. Only accepted facts are written; facts that need review
or are degraded are listed on stderr and written with their status only
when --include-review is set.`,
	Example: `  # All images of a folder to a workbook
  billtools batch ./june --month 6 --year 2024 --sink xlsx -o scope12.xlsx

  # Accepted facts to a Google Sheet, tagged with a tenant
  billtools batch ./june --sink sheets --sheet-url "$GOOGLE_SHEET_URL" --tenant acme

  # Also write facts that need review, status column included
  billtools batch ./june --sink xlsx -o scope12.xlsx --include-review

  # Dry run over explicit files
  billtools batch a.jpg b.jpg --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addPeriodFlags(batchCmd)
	addSinkFlags(batchCmd)
	batchCmd.Flags().Bool("include-review", false, "Also write facts that need review or are degraded")
	batchCmd.Flags().Int("timeout", 1800, "Processing timeout in seconds for the whole batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("batch")

	includeReview, _ := cmd.Flags().GetBool("include-review")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	period, err := readPeriod(cmd)
	if err != nil {
		return err
	}

	paths, err := collectImages(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no image files found")
	}

	cfg := loadConfig(log)
	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	var sink batch.Sink
	if !dryRun {
		s, closeSink, err := createSink(ctx, cmd, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeSink(); err != nil {
				log.Warn().Err(err).Msg("Failed to close sink")
			}
		}()
		sink = s
	}

	sel, closeRecognizer, err := createSelector(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRecognizer(); err != nil {
			log.Warn().Err(err).Msg("Failed to close OCR client")
		}
	}()

	engine, err := createEngine(cmd, cfg, sel)
	if err != nil {
		return err
	}

	log.Info().
		Int("files", len(paths)).
		Str("period", period.String()).
		Bool("dry_run", dryRun).
		Msg("Starting batch")

	results, runErr := batch.NewRunner(engine).Run(ctx, paths, period, func(p batch.Progress) {
		r := p.Result
		event := log.Info()
		if r.Err != nil {
			event = log.Warn().Err(r.Err)
		}
		event.
			Int("done", p.Done).
			Int("total", p.Total).
			Str("file", r.FileName).
			Str("status", r.Status()).
			Msg("Document processed")
	})
	if runErr != nil && !errors.Is(runErr, batch.ErrCanceled) {
		return handleOCRError(runErr, log)
	}

	printSummary(results, len(paths))

	facts, review := batch.Partition(results)
	printReview(review, includeReview)
	if includeReview {
		facts = append(facts, review...)
	}
	if sink != nil && len(facts) > 0 {
		// The run context may already be canceled; completed facts are still written.
		writeCtx, writeCancel := createContextWithTimeout(120, log)
		defer writeCancel()
		if err := sink.Write(writeCtx, facts); err != nil {
			log.Error().Err(err).Msg("Failed to write facts")
			return fmt.Errorf("failed to write facts: %w", err)
		}
		log.Info().Int("facts", len(facts)).Msg("Facts written")
	}

	if runErr != nil {
		return handleOCRError(runErr, log)
	}
	return nil
}

// collectImages expands folder arguments; file arguments are kept as given.
func collectImages(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		images, err := batch.FindImages(arg)
		if err != nil {
			return nil, err
		}
		paths = append(paths, images...)
	}
	return paths, nil
}

func printSummary(results []batch.Result, total int) {
	summary := batch.Summary(results)
	fmt.Fprintf(os.Stderr, "\nProcessed %d of %d documents\n", len(results), total)
	for _, status := range []string{models.StatusExtracted, models.StatusNeedsReview, models.StatusDegraded, batch.StatusError} {
		if n := summary[status]; n > 0 {
			fmt.Fprintf(os.Stderr, "  %-13s %d\n", status, n)
		}
	}
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "  ! %s: %v\n", filepath.Base(r.Path), r.Err)
		}
	}
}

func printReview(review []*models.ExtractedFact, written bool) {
	if len(review) == 0 {
		return
	}
	if written {
		fmt.Fprintf(os.Stderr, "\nWriting %d facts that need review:\n", len(review))
	} else {
		fmt.Fprintf(os.Stderr, "\nHeld back %d facts that need review (use --include-review to write them):\n", len(review))
	}
	for _, f := range review {
		fmt.Fprintf(os.Stderr, "  ? %s: %s, confidence %d\n", f.FileName, f.Status, f.Confidence)
	}
}
