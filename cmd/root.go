package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"billtools/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "billtools",
	Short: "billtools - utility bill and fuel receipt extraction with Scope 1/2 emissions",
	Long: `billtools reads photographed or scanned Malaysian utility bills and fuel
receipts, recovers their text with OCR, extracts the billing facts (utility
type, amount, usage, price per unit, dates, meter number, provider) and
computes kg CO2e from a documented emission-factor table.

Facts can be printed, or written to a JSON-lines file, an XLSX workbook or a
Google Sheet. Manual entries from a sheet tab or workbook go through the same
emissions calculation.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			logger.Discard()
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("billtools executed")

		fmt.Println("Welcome to billtools!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Silence log output; results and errors are still printed")
}
