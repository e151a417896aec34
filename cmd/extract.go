package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"billtools/internal/logger"
	"billtools/pkg/models"
)

var extractCmd = &cobra.Command{
	Use:   "extract [image-file]",
	Short: "Extract billing facts and emissions from one bill or receipt image",
	Long: `Recognize the text of one bill or fuel receipt image, extract its billing
facts and compute its emissions. The fact is printed as JSON.

The OCR provider is chosen with OCR_PROVIDER (vision, documentai or tesseract).
When the original image yields too little text a contrast-enhanced copy is
recognized as well and the richer text wins.`,
	Example: `  # Extract a June 2024 electricity bill
  billtools extract tnb-june.jpg --month 6 --year 2024

  # Include the OCR attempts and save to a file
  billtools extract receipt.png --debug -o receipt.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	addPeriodFlags(extractCmd)
	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Bool("debug", false, "Include the OCR strategy attempts in the output")
	extractCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	outputPath, _ := cmd.Flags().GetString("output")
	debug, _ := cmd.Flags().GetBool("debug")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	period, err := readPeriod(cmd)
	if err != nil {
		return err
	}

	path := args[0]
	image, err := readImage(path, log)
	if err != nil {
		return err
	}

	cfg := loadConfig(log)
	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

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
		Str("file", path).
		Str("period", period.String()).
		Str("provider", cfg.OCRProvider).
		Msg("Extracting document")

	fact, err := engine.ProcessWithProgress(ctx, models.RawDocument{
		Name:   filepath.Base(path),
		Image:  image,
		Period: period,
	}, func(percent int) {
		log.Debug().Int("progress", percent).Msg("OCR progress")
	})
	if err != nil {
		return handleOCRError(err, log)
	}

	if !debug {
		fact.OCR = nil
	}

	log.Info().
		Str("type", string(fact.UtilityType)).
		Float64("amount", fact.Amount).
		Float64("emissions", fact.Emissions.Total).
		Int("confidence", fact.Confidence).
		Str("status", fact.Status).
		Msg("Extraction completed")

	return writeJSON(fact, outputPath, log)
}
