package emissions

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"billtools/internal/lexicon"
	"billtools/internal/logger"
	"billtools/pkg/models"
)

const massUnit = "kg CO2e"

// Calculator applies a factor table. It holds no state besides the table.
type Calculator struct {
	table *Table
	log   zerolog.Logger
}

// NewCalculator creates a calculator over table; nil means Default().
func NewCalculator(table *Table) *Calculator {
	if table == nil {
		table = Default()
	}
	return &Calculator{
		table: table,
		log:   logger.WithComponent("emissions"),
	}
}

// Table returns the factor table in use.
func (c *Calculator) Table() *Table {
	return c.table
}

// Calculate returns the emissions of value (in unit) for a document of type t.
// subtype selects the fuel grade and falls back to petrol. Totals are rounded
// to 2 decimals and the breakdown always carries the formula and the literal
// calculation.
func (c *Calculator) Calculate(t models.UtilityType, subtype string, value float64, unit string) models.EmissionsResult {
	var res models.EmissionsResult
	switch t {
	case models.Electricity:
		res = c.simple(t, "", value, "kWh", decimal.NewFromFloat(c.table.Electricity.Value),
			"Electricity usage (kWh) × grid emission factor")
	case models.Fuel:
		grade := subtype
		f, ok := c.table.Fuel[grade]
		if !ok {
			grade = lexicon.GradePetrol
			f = c.table.Fuel[grade]
		}
		res = c.simple(t, grade, value, "L", decimal.NewFromFloat(f.Value),
			fmt.Sprintf("Fuel volume (L) × %s emission factor", grade))
	case models.Water:
		factor := decimal.NewFromFloat(c.table.Electricity.Value).Mul(decimal.NewFromFloat(c.table.WaterFraction))
		res = c.simple(t, "", value, "m3", factor,
			"Water usage (m3) × electricity factor × treatment fraction")
	case models.Gas:
		res = c.gas(value, unit)
	default:
		res = models.EmissionsResult{
			Breakdown: models.EmissionsBreakdown{
				Type:        models.Unknown,
				Usage:       value,
				Unit:        unit,
				Formula:     "No emission factor for unknown utility type",
				Calculation: "0 " + massUnit,
			},
		}
	}

	c.log.Debug().
		Str("type", string(t)).
		Str("subtype", res.Breakdown.Subtype).
		Float64("usage", value).
		Float64("factor", res.Breakdown.Factor).
		Float64("total", res.Total).
		Msg("Emissions calculated")

	return res
}

func (c *Calculator) simple(t models.UtilityType, subtype string, value float64, unit string, factor decimal.Decimal, formula string) models.EmissionsResult {
	usage := decimal.NewFromFloat(value)
	total := usage.Mul(factor).Round(2)
	return models.EmissionsResult{
		Total: total.InexactFloat64(),
		Breakdown: models.EmissionsBreakdown{
			Type:        t,
			Subtype:     subtype,
			Usage:       value,
			Unit:        unit,
			Factor:      factor.InexactFloat64(),
			Formula:     formula,
			Calculation: fmt.Sprintf("%s %s × %s = %s %s", usage.String(), unit, factor.String(), total.StringFixed(2), massUnit),
		},
	}
}

// gas converts the usage to kWh first; scf goes through m3.
func (c *Calculator) gas(value float64, unit string) models.EmissionsResult {
	key := strings.ToLower(unit)
	if key == "" {
		key = "kwh"
	}
	usage := decimal.NewFromFloat(value)
	factor := decimal.NewFromFloat(c.table.NaturalGas.Value)

	var steps []string
	volume := usage
	if key == "scf" {
		conv := decimal.NewFromFloat(c.table.SCFToM3)
		volume = usage.Mul(conv)
		steps = append(steps, fmt.Sprintf("%s scf × %s = %s m3", usage.String(), conv.String(), volume.String()))
		key = "m3"
	}

	toKWh, ok := c.table.GasToKWh[key]
	if !ok {
		return models.EmissionsResult{
			Breakdown: models.EmissionsBreakdown{
				Type:        models.Gas,
				Usage:       value,
				Unit:        unit,
				Formula:     fmt.Sprintf("No kWh conversion for gas unit %q", unit),
				Calculation: "0 " + massUnit,
			},
		}
	}
	conv := decimal.NewFromFloat(toKWh)
	energy := volume.Mul(conv)
	if key != "kwh" {
		steps = append(steps, fmt.Sprintf("%s %s × %s = %s kWh", volume.String(), key, conv.String(), energy.String()))
	}

	total := energy.Mul(factor).Round(2)
	steps = append(steps, fmt.Sprintf("%s kWh × %s = %s %s", energy.String(), factor.String(), total.StringFixed(2), massUnit))

	return models.EmissionsResult{
		Total: total.InexactFloat64(),
		Breakdown: models.EmissionsBreakdown{
			Type:        models.Gas,
			Subtype:     "natural_gas",
			Usage:       value,
			Unit:        unit,
			Factor:      factor.InexactFloat64(),
			Formula:     "Gas usage converted to kWh × natural gas emission factor",
			Calculation: strings.Join(steps, "; "),
		},
	}
}
