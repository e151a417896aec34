package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"billtools/internal/emissions"
	"billtools/internal/logger"
)

var factorsCmd = &cobra.Command{
	Use:   "factors",
	Short: "Print the emission-factor table in use",
	Long: `Print the emission factors the extraction uses: the built-in table, or
the file named by EMISSION_FACTORS_FILE layered over it.`,
	Example: `  billtools factors
  EMISSION_FACTORS_FILE=factors-2025.yaml billtools factors --json`,
	Args: cobra.NoArgs,
	RunE: runFactors,
}

func init() {
	rootCmd.AddCommand(factorsCmd)

	factorsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runFactors(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("factors")

	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := loadConfig(log)
	table, err := emissions.Load(cfg.EmissionFactorsFile)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(table, "", log)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Table version\t%s\n\n", table.Version)
	fmt.Fprintf(w, "electricity\t%g kg CO2e/%s\n", table.Electricity.Value, table.Electricity.Unit)
	for _, grade := range table.FuelGrades() {
		f := table.Fuel[grade]
		fmt.Fprintf(w, "fuel %s\t%g kg CO2e/%s\n", grade, f.Value, f.Unit)
	}
	fmt.Fprintf(w, "natural gas\t%g kg CO2e/%s\n", table.NaturalGas.Value, table.NaturalGas.Unit)
	fmt.Fprintf(w, "water\telectricity × %g per m3\n", table.WaterFraction)

	units := make([]string, 0, len(table.GasToKWh))
	for u := range table.GasToKWh {
		units = append(units, u)
	}
	sort.Strings(units)
	for _, u := range units {
		fmt.Fprintf(w, "gas %s to kWh\t× %g\n", u, table.GasToKWh[u])
	}
	fmt.Fprintf(w, "scf to m3\t× %g\n", table.SCFToM3)
	return w.Flush()
}
