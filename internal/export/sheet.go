package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is an output file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const (
	headerFill  = "DDEBF7"
	columnWidth = 22
)

// ParseFormat reads a format name, defaulting to xlsx.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(FormatXLSX):
		return FormatXLSX, nil
	case string(FormatCSV):
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Sheet is a header row plus data rows, laid out exactly like an import file.
type Sheet struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Write renders the sheet to w.
func (s Sheet) Write(w io.Writer, format Format) error {
	switch format {
	case FormatCSV:
		return s.writeCSV(w)
	case FormatXLSX:
		return s.writeXLSX(w)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func (s Sheet) writeCSV(w io.Writer) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(s.Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := csvWriter.WriteAll(s.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

func (s Sheet) writeXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	name := s.Title
	if name == "" {
		name = "Sheet1"
	}
	if name != "Sheet1" {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	if err := f.SetSheetRow(name, "A1", toCells(s.Headers)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, toCells(row)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if len(s.Headers) > 0 {
		if err := styleHeader(f, name, len(s.Headers)); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", last, columnWidth); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

// toCells keeps every value as text so dates and codes survive a round trip.
func toCells(values []string) *[]any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return &cells
}
