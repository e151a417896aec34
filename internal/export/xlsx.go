package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"billtools/internal/logger"
	"billtools/pkg/models"
)

// DefaultSheet is the worksheet facts are appended to.
const DefaultSheet = "Scope1_2"

// XLSXSink appends facts to a workbook on disk, creating it when missing.
type XLSXSink struct {
	path   string
	sheet  string
	tenant string
	now    func() time.Time
	log    zerolog.Logger
}

// NewXLSXSink creates a sink writing to sheet of the workbook at path.
func NewXLSXSink(path, sheet, tenant string) *XLSXSink {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &XLSXSink{
		path:   path,
		sheet:  sheet,
		tenant: tenant,
		now:    time.Now,
		log:    logger.WithComponent("export.xlsx"),
	}
}

// Write appends one row per fact below the existing rows.
func (s *XLSXSink) Write(ctx context.Context, facts []*models.ExtractedFact) error {
	const op = "Write"

	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := s.open()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return fmt.Errorf("%s: failed to read sheet %s: %w", op, s.sheet, err)
	}

	next := len(rows) + 1
	if len(rows) == 0 {
		if err := s.writeHeader(f); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		next = 2
	}

	processedAt := s.now()
	for _, fact := range facts {
		cell, _ := excelize.CoordinatesToCellName(1, next)
		values := Values(fact, s.tenant, processedAt)
		if err := f.SetSheetRow(s.sheet, cell, &values); err != nil {
			return fmt.Errorf("%s: failed to write row %d: %w", op, next, err)
		}
		next++
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("%s: failed to save workbook %s: %w", op, s.path, err)
	}

	s.log.Info().
		Str("path", s.path).
		Str("sheet", s.sheet).
		Int("rows_written", len(facts)).
		Msg("Facts written to workbook")
	return nil
}

func (s *XLSXSink) open() (*excelize.File, error) {
	if _, err := os.Stat(s.path); err == nil {
		f, err := excelize.OpenFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook %s: %w", s.path, err)
		}
		if index, _ := f.GetSheetIndex(s.sheet); index == -1 {
			if _, err := f.NewSheet(s.sheet); err != nil {
				f.Close()
				return nil, err
			}
		}
		return f, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(s.sheet)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(index)
	if s.sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}
	return f, nil
}

func (s *XLSXSink) writeHeader(f *excelize.File) error {
	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(s.sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	})
	if err == nil {
		_ = f.SetRowStyle(s.sheet, 1, 1, style)
	}

	_ = f.SetColWidth(s.sheet, "A", "C", 22) // tenant, id, file
	_ = f.SetColWidth(s.sheet, "F", "F", 28) // provider
	_ = f.SetColWidth(s.sheet, "P", "P", 60) // calculation
	_ = f.SetColWidth(s.sheet, "S", "S", 48) // warnings
	return nil
}
