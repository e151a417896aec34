package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"billtools/internal/logger"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text-file|-]",
	Short: "Extract billing facts from text that was already recognized",
	Long: `Run the extraction pipeline on a plain-text file (or stdin with "-") and
print the resulting fact as JSON. No OCR provider or credentials are needed,
which makes this the command to tune the lexicon and factor files against
saved OCR output.`,
	Example: `  # Analyze text saved by the ocr command
  billtools ocr bill.jpg -o bill.txt
  billtools analyze bill.txt --month 6 --year 2024

  # Read from stdin
  cat receipt.txt | billtools analyze - --reference-cache`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	addPeriodFlags(analyzeCmd)
	analyzeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("analyze")

	outputPath, _ := cmd.Flags().GetString("output")

	period, err := readPeriod(cmd)
	if err != nil {
		return err
	}

	name := args[0]
	var text []byte
	if name == "-" {
		name = "stdin"
		text, err = io.ReadAll(os.Stdin)
	} else {
		text, err = os.ReadFile(name)
		name = filepath.Base(name)
	}
	if err != nil {
		return fmt.Errorf("failed to read text: %w", err)
	}

	engine, err := createEngine(cmd, loadConfig(log), nil)
	if err != nil {
		return err
	}

	fact := engine.ProcessText(name, period, string(text))

	log.Info().
		Str("file", name).
		Str("type", string(fact.UtilityType)).
		Int("confidence", fact.Confidence).
		Str("status", fact.Status).
		Msg("Analysis completed")

	return writeJSON(fact, outputPath, log)
}
