package ingestion

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Format is a supported upload format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

const maxXLSRows = 1 << 16

var (
	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE    = []byte{0xFF, 0xFE}
	bomUTF16BE    = []byte{0xFE, 0xFF}
)

// Row is one line of the uploaded sheet. Number is the 1-based line in the
// source, so the header is row 1.
type Row struct {
	Number int
	Cells  []string
}

// Table is the parsed content of an upload.
type Table struct {
	Format Format
	Rows   []Row
	// NativeDates is set when the source stores dates as spreadsheet serials.
	NativeDates bool
}

// DetectFormat picks the parser from the file extension and falls back to
// content sniffing when the extension is missing or unknown.
func DetectFormat(fileName string, payload []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	}

	mime := mimetype.Detect(payload)
	switch {
	case mime.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return FormatXLSX, nil
	case mime.Is("application/vnd.ms-excel"):
		return FormatXLS, nil
	case mime.Is("text/csv"), mime.Is("text/plain"):
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime.String())
}

// ParseTable reads payload into rows. Decoding failures are wrapped in
// FileFormatError.
func ParseTable(fileName string, payload []byte) (Table, error) {
	format, err := DetectFormat(fileName, payload)
	if err != nil {
		return Table{}, &FileFormatError{FileName: fileName, Err: err}
	}

	var table Table
	switch format {
	case FormatCSV:
		table, err = parseCSV(payload)
	case FormatXLSX:
		table, err = parseExcel(payload)
	case FormatXLS:
		table, err = parseXLS(payload)
	}
	if err != nil {
		return Table{}, &FileFormatError{FileName: fileName, Err: fmt.Errorf("%w: %v", ErrUnreadableFile, err)}
	}
	table.Format = format
	return table, nil
}

// decodeText returns UTF-8 text. A UTF-8 BOM is dropped, UTF-16 with a BOM is
// transcoded, and anything else that is not valid UTF-8 is read as Windows-1252.
func decodeText(payload []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(payload, byteOrderMark):
		return payload[len(byteOrderMark):], nil
	case bytes.HasPrefix(payload, bomUTF16LE), bytes.HasPrefix(payload, bomUTF16BE):
		decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(payload)
		if err != nil {
			return nil, fmt.Errorf("utf-16 decode failed: %w", err)
		}
		return decoded, nil
	case utf8.Valid(payload):
		return payload, nil
	default:
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(payload)
		if err != nil {
			return nil, fmt.Errorf("windows-1252 decode failed: %w", err)
		}
		return decoded, nil
	}
}

func parseCSV(payload []byte) (Table, error) {
	text, err := decodeText(payload)
	if err != nil {
		return Table{}, err
	}

	csvReader := csv.NewReader(bytes.NewReader(text))
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	var rows []Row
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := csvReader.FieldPos(0)
		rows = append(rows, Row{Number: line, Cells: record})
	}
	return Table{Rows: rows}, nil
}

func parseExcel(payload []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return Table{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, errors.New("excel file has no sheets")
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return Table{Rows: rectangular(records), NativeDates: true}, nil
}

func parseXLS(payload []byte) (table Table, err error) {
	// the xls reader panics on some malformed compound documents
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("failed to open xls: %v", p)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(payload), "utf-8")
	if err != nil {
		return Table{}, fmt.Errorf("failed to open xls: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return Table{}, errors.New("xls file has no sheets")
	}

	maxRow := int(sheet.MaxRow)
	if maxRow >= maxXLSRows {
		maxRow = maxXLSRows - 1
	}
	records := make([][]string, 0, maxRow+1)
	for i := 0; i <= maxRow; i++ {
		row := sheet.Row(i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		records = append(records, cells)
	}
	return Table{Rows: rectangular(records), NativeDates: true}, nil
}

// rectangular numbers the records and pads them to the widest row, since
// spreadsheet readers drop trailing empty cells.
func rectangular(records [][]string) []Row {
	width := 0
	for _, record := range records {
		if len(record) > width {
			width = len(record)
		}
	}
	rows := make([]Row, 0, len(records))
	for idx, record := range records {
		rows = append(rows, Row{Number: idx + 1, Cells: padRow(record, width)})
	}
	return trimTrailingEmpty(rows)
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}

func trimTrailingEmpty(rows []Row) []Row {
	end := len(rows)
	for end > 0 && isEmptyRow(rows[end-1].Cells) {
		end--
	}
	return rows[:end]
}

func isEmptyRow(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
