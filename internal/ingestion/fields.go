package ingestion

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/staffing/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// blankMarker is written by exports for empty optional values.
const blankMarker = "-"

// day/month/year first, month/day/year as fallback
var dateLayouts = []string{"2/1/2006", "1/2/2006"}

// maxExcelSerial is 9999-12-31.
const maxExcelSerial = 2958465

var (
	npwpDigits  = regexp.MustCompile(`^\d{15}$`)
	npwpPattern = regexp.MustCompile(`^(\d{2})(\d{3})(\d{3})(\d)(\d{3})(\d{3})$`)
)

// ParseDate accepts D/M/YYYY, then M/D/YYYY. With allowSerial it also accepts
// a spreadsheet date serial. The result is midnight UTC.
func ParseDate(raw string, allowSerial bool) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	if allowSerial {
		if serial, err := strconv.ParseFloat(value, 64); err == nil && serial >= 1 && serial <= maxExcelSerial {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
			}
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ParseFlag reports whether raw equals keyword, ignoring case. Any other
// value, including an empty one, is false.
func ParseFlag(raw, keyword string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), keyword)
}

// SplitList splits on commas, trims every item and drops the empty ones.
func SplitList(raw string) []string {
	items := []string{}
	for _, part := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(part); item != "" && item != blankMarker {
			items = append(items, item)
		}
	}
	return items
}

// ParseNumber strips thousands separators and parses a decimal. Empty input is zero.
func ParseNumber(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" || cleaned == blankMarker {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrInvalidNumber
	}
	return value, nil
}

// FormatNPWP renders a 15 digit tax number as 99.999.999.9-999.999. Values
// that do not have 15 digits once punctuation is removed are returned trimmed.
func FormatNPWP(raw string) string {
	value := strings.TrimSpace(raw)
	if value == blankMarker {
		return ""
	}
	digits := strings.NewReplacer(".", "", "-", "", " ", "").Replace(value)
	if !npwpDigits.MatchString(digits) {
		return value
	}
	return npwpPattern.ReplaceAllString(digits, "$1.$2.$3.$4-$5.$6")
}

// rowReader pulls typed values out of a row and collects every problem.
type rowReader struct {
	schema      Schema
	row         Row
	nativeDates bool
	errs        []error
	fatal       error
}

func newRowReader(schema Schema, row Row, nativeDates bool) *rowReader {
	return &rowReader{schema: schema, row: row, nativeDates: nativeDates}
}

func (r *rowReader) label(col int) string {
	if col < len(r.schema.Headers) {
		return r.schema.Headers[col]
	}
	return fmt.Sprintf("Column %d", col+1)
}

func (r *rowReader) fail(err error) {
	r.errs = append(r.errs, err)
}

func (r *rowReader) failField(col int, kind error, format string, args ...any) {
	r.fail(&FieldError{Field: r.label(col), Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// text returns the trimmed cell.
func (r *rowReader) text(col int) string {
	if col >= len(r.row.Cells) {
		return ""
	}
	return strings.TrimSpace(r.row.Cells[col])
}

// optional is text with the blank marker read as empty.
func (r *rowReader) optional(col int) string {
	value := r.text(col)
	if value == blankMarker {
		return ""
	}
	return value
}

// check runs the tag rules of input and records each failure.
func (r *rowReader) check(v *validator.RecordValidator, input any) {
	for _, ve := range v.Validate(input).Errors {
		kind := ErrInvalidValue
		if ve.Rule == "required" {
			kind = ErrRequired
		}
		r.fail(&FieldError{Field: ve.Field, Kind: kind, Message: ve.Message})
	}
}

// abort records a failure that is not the row's fault, such as a broken lookup.
func (r *rowReader) abort(err error) {
	if r.fatal == nil {
		r.fatal = err
	}
}

// date parses a date column. Empty optional dates return nil without error.
func (r *rowReader) date(col int, required bool) *time.Time {
	raw := r.optional(col)
	if raw == "" {
		if required {
			r.failField(col, ErrRequired, "%s is required", r.label(col))
		}
		return nil
	}
	t, err := ParseDate(raw, r.nativeDates)
	if err != nil {
		r.failField(col, ErrInvalidDate, "Invalid %s format: %s. Use DD/MM/YYYY format.", strings.ToLower(r.label(col)), raw)
		return nil
	}
	return &t
}

func (r *rowReader) flag(col int, keyword string) bool {
	return ParseFlag(r.text(col), keyword)
}

func (r *rowReader) list(col int) []string {
	return SplitList(r.text(col))
}

func (r *rowReader) number(col int) decimal.Decimal {
	value, err := ParseNumber(r.text(col))
	if err != nil {
		r.failField(col, ErrInvalidNumber, "%s must be a number", r.label(col))
	}
	return value
}

func (r *rowReader) errors() []error {
	return r.errs
}
