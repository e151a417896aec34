// Package export writes extracted facts to local files: an XLSX workbook
// with one row per fact and a JSON-lines stream validated against the fact
// schema. The column layout is shared with the Google Sheets sink.
package export

import (
	"strings"
	"time"

	"billtools/pkg/models"
)

// Columns is the row layout of every tabular sink.
var Columns = []string{
	"Tenant",
	"Document ID",
	"File",
	"Bill Period",
	"Utility Type",
	"Provider",
	"Amount (RM)",
	"Usage",
	"Unit",
	"Price per Unit",
	"Date",
	"Meter No",
	"Fuel Type",
	"Emissions (kg CO2e)",
	"Emission Factor",
	"Calculation",
	"Confidence",
	"Status",
	"Warnings",
	"Processed At",
}

// TimeFormat is used for the bill period and processing time cells.
const TimeFormat = "2006-01-02 15:04:05"

// Values returns the cells of f in Columns order. tenant is attached by the
// caller; the engine itself never routes facts.
func Values(f *models.ExtractedFact, tenant string, processedAt time.Time) []interface{} {
	fuelType := ""
	if f.Fuel != nil {
		fuelType = f.Fuel.Grade
	}
	return []interface{}{
		tenant,
		f.DocumentID,
		f.FileName,
		f.BillingPeriod.Format("2006-01"),
		string(f.UtilityType),
		f.Provider,
		f.Amount,
		f.Usage.Value,
		f.Usage.Unit,
		f.PricePerUnit,
		f.Date,
		f.MeterNumber,
		fuelType,
		f.Emissions.Total,
		f.Emissions.Breakdown.Factor,
		f.Emissions.Breakdown.Calculation,
		f.Confidence,
		f.Status,
		strings.Join(f.Warnings, "; "),
		processedAt.Format(TimeFormat),
	}
}
