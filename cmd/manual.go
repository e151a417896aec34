package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"billtools/internal/logger"
	"billtools/internal/manual"
	"billtools/internal/sheets"
)

var manualCmd = &cobra.Command{
	Use:   "manual",
	Short: "Convert manually entered bills into facts with emissions",
	Long: `Read manual bill entries from an XLSX workbook or a Google Sheet tab and
convert them into facts. Fuel volume is the amount divided by the price per
liter (2.05 when empty); the fuel grade is taken from the fuel type label.

Expected columns, with an optional header row:
  ` + strings.Join(manual.Columns, " | "),
	Example: `  # From a workbook, printed as JSON lines
  billtools manual --xlsx entries.xlsx

  # From the "Manual" tab of the configured sheet into the results tab
  billtools manual --sheet-range "Manual!A1:J" --sink sheets --tenant acme`,
	Args: cobra.NoArgs,
	RunE: runManual,
}

func init() {
	rootCmd.AddCommand(manualCmd)

	addSinkFlags(manualCmd)
	manualCmd.Flags().String("xlsx", "", "Workbook with manual entries")
	manualCmd.Flags().String("xlsx-sheet", "", "Worksheet of --xlsx (default: first sheet)")
	manualCmd.Flags().String("sheet-range", "", "Sheet range with manual entries (default: MANUAL_ENTRIES_SHEET!A1:J)")
	manualCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runManual(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("manual")

	xlsxPath, _ := cmd.Flags().GetString("xlsx")
	xlsxSheet, _ := cmd.Flags().GetString("xlsx-sheet")
	sheetRange, _ := cmd.Flags().GetString("sheet-range")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg := loadConfig(log)
	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	var entries []manual.Entry
	var err error
	if xlsxPath != "" {
		entries, err = manual.ReadXLSX(xlsxPath, xlsxSheet)
	} else {
		if sheetURL == "" {
			sheetURL = cfg.GoogleSheetURL
		}
		if sheetURL == "" {
			return fmt.Errorf("either --xlsx or a sheet URL (--sheet-url or GOOGLE_SHEET_URL) is required")
		}
		if sheetRange == "" {
			sheetRange = cfg.ManualEntriesSheet + "!A1:J"
		}
		var svc *sheets.Service
		svc, err = sheets.NewSheetsService(ctx, sheetURL, cfg.GoogleSheetWorksheet, "")
		if err != nil {
			return err
		}
		entries, err = manual.ReadSheet(ctx, svc, sheetRange)
	}
	if err != nil {
		return fmt.Errorf("failed to read manual entries: %w", err)
	}

	_, table, err := loadTables(cfg)
	if err != nil {
		return err
	}

	results := manual.NewConverter(table).ConvertAll(entries)
	facts := manual.Facts(results)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "  ! %v\n", r.Err)
		}
	}
	fmt.Fprintf(os.Stderr, "Converted %d of %d manual entries\n", len(facts), len(results))

	if dryRun || len(facts) == 0 {
		return nil
	}

	sink, closeSink, err := createSink(ctx, cmd, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSink(); err != nil {
			log.Warn().Err(err).Msg("Failed to close sink")
		}
	}()

	if err := sink.Write(ctx, facts); err != nil {
		return fmt.Errorf("failed to write facts: %w", err)
	}
	log.Info().Int("facts", len(facts)).Msg("Manual facts written")
	return nil
}
