// Package emissions converts resolved usage into kg CO2e using a versioned,
// read-only emission-factor table.
package emissions

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"billtools/internal/lexicon"
)

// DefaultVersion identifies the built-in factor table.
const DefaultVersion = "MY-2024.1"

// ErrInvalidTable is returned when a factor file fails validation.
var ErrInvalidTable = errors.New("invalid emission factor table")

// Factor is kg CO2e per Unit.
type Factor struct {
	Value float64 `yaml:"value" json:"value"`
	Unit  string  `yaml:"unit" json:"unit"`
}

// Table holds every factor and conversion the calculator needs.
type Table struct {
	Version     string            `yaml:"version" json:"version"`
	Electricity Factor            `yaml:"electricity" json:"electricity"`
	Fuel        map[string]Factor `yaml:"fuel" json:"fuel"`
	NaturalGas  Factor            `yaml:"natural_gas" json:"natural_gas"`

	// WaterFraction scales the electricity factor per m3 of water supplied.
	WaterFraction float64 `yaml:"water_fraction" json:"water_fraction"`

	// GasToKWh converts a gas volume or energy unit to kWh.
	GasToKWh map[string]float64 `yaml:"gas_to_kwh" json:"gas_to_kwh"`

	// SCFToM3 converts standard cubic feet to cubic meters.
	SCFToM3 float64 `yaml:"scf_to_m3" json:"scf_to_m3"`
}

// Default returns a fresh copy of the built-in table.
func Default() *Table {
	return &Table{
		Version:     DefaultVersion,
		Electricity: Factor{Value: 0.774, Unit: "kWh"},
		Fuel: map[string]Factor{
			lexicon.GradeDiesel: {Value: 2.86, Unit: "L"},
			lexicon.GradeRON95:  {Value: 2.37, Unit: "L"},
			lexicon.GradeRON97:  {Value: 2.40, Unit: "L"},
			lexicon.GradePetrol: {Value: 2.31439, Unit: "L"},
		},
		NaturalGas:    Factor{Value: 0.18404, Unit: "kWh"},
		WaterFraction: 0.1,
		GasToKWh: map[string]float64{
			"mmbtu": 293.07,
			"m3":    11.7,
			"kwh":   1,
		},
		SCFToM3: 0.0283168,
	}
}

// Load reads a YAML factor table from path, layered over the defaults. An
// empty path returns the defaults.
func Load(path string) (*Table, error) {
	const op = "Load"

	table := Default()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read emission factor file: %w", op, err)
	}
	if err := yaml.Unmarshal(data, table); err != nil {
		return nil, fmt.Errorf("%s: failed to parse emission factor file %s: %w", op, path, err)
	}
	if err := table.validate(); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}
	return table, nil
}

func (t *Table) validate() error {
	if t.Version == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidTable)
	}
	if t.Electricity.Value <= 0 {
		return fmt.Errorf("%w: electricity factor must be positive", ErrInvalidTable)
	}
	if t.NaturalGas.Value <= 0 {
		return fmt.Errorf("%w: natural gas factor must be positive", ErrInvalidTable)
	}
	if _, ok := t.Fuel[lexicon.GradePetrol]; !ok {
		return fmt.Errorf("%w: a %s fuel factor is required", ErrInvalidTable, lexicon.GradePetrol)
	}
	for grade, f := range t.Fuel {
		if f.Value <= 0 {
			return fmt.Errorf("%w: fuel factor %s must be positive", ErrInvalidTable, grade)
		}
	}
	if t.WaterFraction < 0 || t.WaterFraction > 1 {
		return fmt.Errorf("%w: water fraction must be within 0-1", ErrInvalidTable)
	}
	return nil
}

// FuelGrades returns the fuel grades of the table in sorted order.
func (t *Table) FuelGrades() []string {
	grades := make([]string, 0, len(t.Fuel))
	for g := range t.Fuel {
		grades = append(grades, g)
	}
	sort.Strings(grades)
	return grades
}
