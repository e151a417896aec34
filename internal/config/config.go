package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"billtools/internal/logger"
)

// OCR provider names accepted by OCR_PROVIDER.
const (
	ProviderVision     = "vision"
	ProviderDocumentAI = "documentai"
	ProviderTesseract  = "tesseract"
)

type Config struct {
	// OCR Configuration
	OCRProvider       string
	OCRLanguages      []string
	OCRMinContent     int
	OCRThreshold      int
	OCRContrast       float64
	OCRTimeoutSeconds int

	// Google Cloud Configuration
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string
	ManualEntriesSheet   string

	// Reference tables
	EmissionFactorsFile string
	LexiconFile         string
	ReferenceCache      bool

	// Result review
	ReviewThreshold int

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OCRProvider:                strings.ToLower(getEnv("OCR_PROVIDER", ProviderVision)),
		OCRLanguages:               splitList(getEnv("OCR_LANGUAGES", "en,ms")),
		OCRMinContent:              getEnvInt("OCR_MIN_CONTENT", 50),
		OCRThreshold:               getEnvInt("OCR_THRESHOLD", 160),
		OCRContrast:                getEnvFloat("OCR_CONTRAST", 40),
		OCRTimeoutSeconds:          getEnvInt("OCR_TIMEOUT", 120),
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		GoogleSheetURL:             getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:       getEnv("GOOGLE_SHEET_WORKSHEET", "Scope1_2"),
		ManualEntriesSheet:         getEnv("MANUAL_ENTRIES_SHEET", "Manual"),
		EmissionFactorsFile:        getEnv("EMISSION_FACTORS_FILE", ""),
		LexiconFile:                getEnv("LEXICON_FILE", ""),
		ReferenceCache:             getEnvBool("REFERENCE_CACHE", false),
		ReviewThreshold:            getEnvInt("REVIEW_THRESHOLD", 60),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Default returns the configuration used when the environment cannot be loaded.
func Default() *Config {
	return &Config{
		OCRProvider:          ProviderVision,
		OCRLanguages:         []string{"en", "ms"},
		OCRMinContent:        50,
		OCRThreshold:         160,
		OCRContrast:          40,
		OCRTimeoutSeconds:    120,
		GoogleCloudLocation:  "us",
		GoogleSheetWorksheet: "Scope1_2",
		ManualEntriesSheet:   "Manual",
		ReviewThreshold:      60,
		LogLevel:             "info",
		LogFormat:            "console",
		LogTimeFormat:        "2006-01-02T15:04:05Z07:00",
		LogOutput:            "stderr",
	}
}

func (c *Config) validate() error {
	switch c.OCRProvider {
	case ProviderVision, ProviderDocumentAI, ProviderTesseract:
	default:
		return fmt.Errorf("OCR_PROVIDER must be one of %s, %s, %s (got %q)",
			ProviderVision, ProviderDocumentAI, ProviderTesseract, c.OCRProvider)
	}
	if c.OCRProvider == ProviderDocumentAI {
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required for the documentai provider")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required for the documentai provider")
		}
	}
	if len(c.OCRLanguages) == 0 {
		return fmt.Errorf("OCR_LANGUAGES must list at least one language")
	}
	if c.OCRMinContent < 0 {
		return fmt.Errorf("OCR_MIN_CONTENT must not be negative")
	}
	if c.OCRThreshold < 0 || c.OCRThreshold > 255 {
		return fmt.Errorf("OCR_THRESHOLD must be between 0 and 255")
	}
	if c.ReviewThreshold < 0 || c.ReviewThreshold > 100 {
		return fmt.Errorf("REVIEW_THRESHOLD must be between 0 and 100")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
