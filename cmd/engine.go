package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"billtools/internal/batch"
	"billtools/internal/config"
	"billtools/internal/emissions"
	"billtools/internal/export"
	"billtools/internal/extract"
	"billtools/internal/lexicon"
	"billtools/internal/ocr"
	"billtools/internal/ocr/tesseract"
	"billtools/internal/pipeline"
	"billtools/internal/sheets"
	"billtools/pkg/models"
)

// Sink names accepted by --sink.
const (
	sinkXLSX   = "xlsx"
	sinkJSONL  = "jsonl"
	sinkSheets = "sheets"
)

// loadConfig reads the environment, falling back to defaults so that
// commands without cloud settings still run.
func loadConfig(log zerolog.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Invalid configuration, using defaults")
		return config.Default()
	}
	return cfg
}

// loadTables loads the lexicon and emission factors named in cfg.
func loadTables(cfg *config.Config) (*lexicon.Lexicon, *emissions.Table, error) {
	lex, err := lexicon.Load(cfg.LexiconFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load lexicon: %w", err)
	}
	table, err := emissions.Load(cfg.EmissionFactorsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load emission factors: %w", err)
	}
	return lex, table, nil
}

// createRecognizer builds the OCR provider selected by OCR_PROVIDER. The
// returned close function is never nil.
func createRecognizer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ocr.Recognizer, func() error, error) {
	noop := func() error { return nil }

	switch cfg.OCRProvider {
	case config.ProviderTesseract:
		rec, err := tesseract.New()
		if err != nil {
			return nil, noop, err
		}
		log.Debug().Msg("Using local tesseract recognizer")
		return rec, noop, nil
	case config.ProviderDocumentAI:
		rec, err := ocr.NewDocumentAIRecognizer(ctx, ocr.DocumentAIConfig{
			ProjectID:        cfg.GoogleCloudProject,
			Location:         cfg.GoogleCloudLocation,
			ProcessorID:      cfg.DocumentAIProcessorID,
			ProcessorVersion: cfg.DocumentAIProcessorVersion,
			Timeout:          time.Duration(cfg.OCRTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, noop, credentialsError(err, log)
		}
		log.Debug().Str("processor", rec.ProcessorName()).Msg("Using Document AI recognizer")
		return rec, rec.Close, nil
	default:
		rec, err := ocr.NewVisionRecognizer(ctx)
		if err != nil {
			return nil, noop, credentialsError(err, log)
		}
		log.Debug().Msg("Using Cloud Vision recognizer")
		return rec, rec.Close, nil
	}
}

func credentialsError(err error, log zerolog.Logger) error {
	if errors.Is(err, ocr.ErrMissingCredentials) {
		log.Error().Err(err).Msg("Google Cloud credentials validation failed")
		return fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
			"1. GOOGLE_APPLICATION_CREDENTIALS with the path to a service account JSON file\n" +
			"2. GOOGLE_CREDENTIALS with inline JSON\n" +
			"3. OCR_PROVIDER=tesseract to recognize locally\n\n" +
			"Original error: %w", err)
	}
	log.Error().Err(err).Msg("Failed to create OCR recognizer")
	return fmt.Errorf("failed to create OCR recognizer: %w", err)
}

// createSelector wraps the configured recognizer in the two-strategy selector.
func createSelector(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*ocr.Selector, func() error, error) {
	rec, closeFn, err := createRecognizer(ctx, cfg, log)
	if err != nil {
		return nil, closeFn, err
	}
	sel := ocr.NewSelector(rec, cfg.OCRLanguages,
		ocr.WithMinUsableLength(cfg.OCRMinContent),
		ocr.WithEnhancement(ocr.Enhancement{Contrast: cfg.OCRContrast, Threshold: uint8(cfg.OCRThreshold)}),
	)
	return sel, closeFn, nil
}

// createEngine builds the extraction engine. A nil acquirer is allowed for
// text-only commands.
func createEngine(cmd *cobra.Command, cfg *config.Config, acquirer pipeline.Acquirer) (*pipeline.Engine, error) {
	lex, table, err := loadTables(cfg)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithLexicon(lex),
		pipeline.WithFactors(table),
		pipeline.WithReviewThreshold(cfg.ReviewThreshold),
	}
	useCache := cfg.ReferenceCache
	if cmd.Flags().Lookup("reference-cache") != nil && cmd.Flags().Changed("reference-cache") {
		useCache, _ = cmd.Flags().GetBool("reference-cache")
	}
	if useCache {
		opts = append(opts, pipeline.WithReferenceCache(extract.DefaultReferenceCache()))
	}
	return pipeline.New(acquirer, opts...), nil
}

func addPeriodFlags(cmd *cobra.Command) {
	now := time.Now()
	cmd.Flags().Int("month", int(now.Month()), "Billing month (1-12)")
	cmd.Flags().Int("year", now.Year(), "Billing year")
	cmd.Flags().Bool("reference-cache", false, "Match known reference values before the extraction rules")
}

func readPeriod(cmd *cobra.Command) (models.BillingPeriod, error) {
	month, _ := cmd.Flags().GetInt("month")
	year, _ := cmd.Flags().GetInt("year")
	p := models.BillingPeriod{Month: time.Month(month), Year: year}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func addSinkFlags(cmd *cobra.Command) {
	cmd.Flags().String("sink", sinkJSONL, "Where to write facts: jsonl, xlsx or sheets")
	cmd.Flags().StringP("output", "o", "", "Output file for the jsonl or xlsx sink (jsonl default: stdout)")
	cmd.Flags().String("sheet-url", "", "Google Sheets URL (default: GOOGLE_SHEET_URL)")
	cmd.Flags().String("sheet-name", "", "Worksheet name (default: GOOGLE_SHEET_WORKSHEET)")
	cmd.Flags().String("tenant", "", "Tenant written in the first column of every row")
	cmd.Flags().Bool("dry-run", false, "Process documents without writing to the sink")
}

// createSink builds the sink selected by --sink. The returned close function
// is never nil.
func createSink(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log zerolog.Logger) (batch.Sink, func() error, error) {
	noop := func() error { return nil }

	kind, _ := cmd.Flags().GetString("sink")
	output, _ := cmd.Flags().GetString("output")
	tenant, _ := cmd.Flags().GetString("tenant")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	sheetName, _ := cmd.Flags().GetString("sheet-name")
	if sheetURL == "" {
		sheetURL = cfg.GoogleSheetURL
	}
	if sheetName == "" {
		sheetName = cfg.GoogleSheetWorksheet
	}

	switch strings.ToLower(kind) {
	case sinkJSONL:
		if output == "" {
			return export.NewJSONLSink(os.Stdout, tenant), noop, nil
		}
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open output file: %w", err)
		}
		return export.NewJSONLSink(f, tenant), f.Close, nil
	case sinkXLSX:
		if output == "" {
			return nil, noop, fmt.Errorf("--output is required for the xlsx sink")
		}
		return export.NewXLSXSink(output, sheetName, tenant), noop, nil
	case sinkSheets:
		if sheetURL == "" {
			return nil, noop, fmt.Errorf("--sheet-url or GOOGLE_SHEET_URL is required for the sheets sink")
		}
		svc, err := sheets.NewSheetsService(ctx, sheetURL, sheetName, tenant)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create Google Sheets service")
			return nil, noop, err
		}
		return svc, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown sink %q (use jsonl, xlsx or sheets)", kind)
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// handleOCRError provides user-friendly error messages for OCR failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Document processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("processing timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled), errors.Is(err, ocr.ErrContextCanceled), errors.Is(err, batch.ErrCanceled):
		return fmt.Errorf("processing was canceled")
	case errors.Is(err, ocr.ErrEmptyImage):
		return fmt.Errorf("the image file is empty")
	case errors.Is(err, ocr.ErrImageTooLarge):
		return fmt.Errorf("image is too large (maximum 20MB). Try resizing or compressing it")
	case errors.Is(err, ocr.ErrInvalidImage):
		return fmt.Errorf("unsupported or corrupted image. Use JPEG, PNG, GIF, BMP, WEBP, TIFF or PDF")
	case errors.Is(err, pipeline.ErrInvalidPeriod):
		return fmt.Errorf("invalid billing period: %w", err)
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "auth:") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Check GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.\n\nOriginal error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return fmt.Errorf("permission denied. Please ensure the service account can call the selected OCR API")
	case strings.Contains(errStr, "QUOTA_EXCEEDED") || strings.Contains(errStr, "quota"):
		return fmt.Errorf("OCR API quota exceeded. Check your project quotas in the Google Cloud Console")
	case errors.Is(err, pipeline.ErrAcquisitionFailed), errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("text recognition failed. This may be due to network issues, API quota limits, or service unavailability: %w", err)
	default:
		return fmt.Errorf("processing failed: %w", err)
	}
}

// writeJSON writes v as indented JSON to path, or stdout when path is empty.
func writeJSON(v interface{}, path string, log zerolog.Logger) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(append(data, '\n'), path, log)
}

func writeOutput(data []byte, path string, log zerolog.Logger) error {
	if path == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Error().Err(err).Str("output_file", path).Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Info().Str("output_file", path).Int("bytes", len(data)).Msg("Results written to file")
	return nil
}

// readImage checks and reads one image file.
func readImage(path string, log zerolog.Logger) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("error accessing image file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", path)
	}
	if !batch.IsImage(path) {
		log.Warn().Str("file", path).Msg("File does not have an image extension")
	}
	if info.Size() > ocr.MaxImageBytes {
		return nil, fmt.Errorf("image file too large (%d bytes). Maximum size is %d bytes (20MB)", info.Size(), ocr.MaxImageBytes)
	}
	return os.ReadFile(path)
}
