package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"billtools/internal/logger"
	"billtools/pkg/models"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [image-file]",
	Short: "Recognize the text of an image without extracting fields",
	Long: `Run only the OCR acquisition strategies on one image and print the chosen
text. With --json the output lists every attempted strategy, its text length
and a sample.

Required environment variables for the cloud providers:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # Print the recognized text
  billtools ocr bill.jpg

  # Show the strategy attempts
  billtools ocr bill.jpg --json

  # Recognize locally with tesseract
  OCR_PROVIDER=tesseract billtools ocr receipt.png -o receipt.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput is the --json output of the ocr command.
type OCROutput struct {
	FileName string `json:"file_name"`
	Provider string `json:"provider"`
	Text     string `json:"text"`
	*models.OCRDebug
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().Bool("json", false, "Output the strategy attempts as JSON")
	ocrCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

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

	acq, err := sel.Acquire(ctx, image, nil)
	if err != nil {
		return handleOCRError(err, log)
	}

	log.Info().
		Str("strategy", acq.Strategy).
		Int("attempts", len(acq.Attempts)).
		Bool("degraded", acq.Degraded).
		Msg("OCR acquisition completed")

	if jsonOutput {
		return writeJSON(OCROutput{
			FileName: filepath.Base(path),
			Provider: cfg.OCRProvider,
			Text:     acq.Text,
			OCRDebug: acq.Debug(),
		}, outputPath, log)
	}

	return writeOutput([]byte(acq.Text+"\n"), outputPath, log)
}
