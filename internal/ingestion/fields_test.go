package ingestion

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		allowSerial bool
		want        time.Time
		wantErr     bool
	}{
		{name: "day first", raw: "21/07/2024", want: time.Date(2024, 7, 21, 0, 0, 0, 0, time.UTC)},
		{name: "single digits", raw: " 1/8/2024 ", want: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)},
		{name: "month first fallback", raw: "07/21/2024", want: time.Date(2024, 7, 21, 0, 0, 0, 0, time.UTC)},
		{name: "iso rejected", raw: "2024-07-21", wantErr: true},
		{name: "impossible day", raw: "31/02/2024", wantErr: true},
		{name: "serial in csv", raw: "45494", wantErr: true},
		{name: "serial in spreadsheet", raw: "45494", allowSerial: true, want: time.Date(2024, 7, 21, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", raw: "soon", allowSerial: true, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDate(tc.raw, tc.allowSerial)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Fatalf("expected ErrInvalidDate, got %v (%v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestParseFlag(t *testing.T) {
	if !ParseFlag(" ACTIVE ", "active") {
		t.Fatalf("expected case-insensitive match")
	}
	for _, raw := range []string{"", "Non-Active", "yes", "1"} {
		if ParseFlag(raw, "active") {
			t.Fatalf("expected %q to be false", raw)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" Go, SQL ,, - ,Docker ")
	want := []string{"Go", "SQL", "Docker"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if items := SplitList(""); len(items) != 0 {
		t.Fatalf("expected empty list, got %v", items)
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]string{
		"1,500,000":  "1500000",
		" 2 500.75 ": "2500.75",
		"":           "0",
		"-":          "0",
		"-12":        "-12",
	}
	for raw, want := range cases {
		got, err := ParseNumber(raw)
		if err != nil {
			t.Fatalf("ParseNumber(%q) returned error: %v", raw, err)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("ParseNumber(%q) = %s, want %s", raw, got, want)
		}
	}

	if _, err := ParseNumber("abc"); !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
}

func TestFormatNPWP(t *testing.T) {
	cases := map[string]string{
		"123456789012345":      "12.345.678.9-012.345",
		"12.345.678.9-012.345": "12.345.678.9-012.345",
		" 12345 ":              "12345",
		"-":                    "",
		"":                     "",
	}
	for raw, want := range cases {
		if got := FormatNPWP(raw); got != want {
			t.Fatalf("FormatNPWP(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestRowReaderCollectsEveryProblem(t *testing.T) {
	row := Row{Number: 5, Cells: []string{"", "2024-01-01", "abc"}}
	schema := Schema{Headers: []string{"Name", "Start Date", "Cost"}}
	r := newRowReader(schema, row, false)

	r.date(1, true)
	r.number(2)
	if start := r.date(0, true); start != nil {
		t.Fatalf("expected nil date for empty cell")
	}

	errs := r.errors()
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %v", errs)
	}
	if errs[0].Error() != "Invalid start date format: 2024-01-01. Use DD/MM/YYYY format." {
		t.Fatalf("unexpected message %q", errs[0])
	}
	if errs[1].Error() != "Cost must be a number" {
		t.Fatalf("unexpected message %q", errs[1])
	}
	if errs[2].Error() != "Name is required" || !errors.Is(errs[2], ErrRequired) {
		t.Fatalf("unexpected error %v", errs[2])
	}
}
