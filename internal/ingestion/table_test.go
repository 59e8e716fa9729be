package ingestion

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestParseTableCSVTracksSourceLines(t *testing.T) {
	payload := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Name,Notes\nAna,\"two\nlines\"\nBudi,ok\n")...)

	table, err := ParseTable("people.csv", payload)
	require.NoError(t, err)
	require.Equal(t, FormatCSV, table.Format)
	require.False(t, table.NativeDates)
	require.Len(t, table.Rows, 3)
	require.Equal(t, []string{"Name", "Notes"}, table.Rows[0].Cells)
	require.Equal(t, 2, table.Rows[1].Number)
	require.Equal(t, "two\nlines", table.Rows[1].Cells[1])
	require.Equal(t, 4, table.Rows[2].Number)
}

func TestParseTableCSVDecodesWindows1252(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("Name\nJosé\n")
	require.NoError(t, err)

	table, err := ParseTable("people.csv", []byte(encoded))
	require.NoError(t, err)
	require.Equal(t, "José", table.Rows[1].Cells[0])
}

func TestParseTableXLSXPadsRowsAndKeepsSerials(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Employee Name", "Start Date", "End Date", "Notes"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Budi Santoso", 45494}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"Citra Lestari", "01/08/2024"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := ParseTable("assignments.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, table.Format)
	require.True(t, table.NativeDates)
	require.Len(t, table.Rows, 4)
	require.Equal(t, []string{"Budi Santoso", "45494", "", ""}, table.Rows[1].Cells)
	require.Equal(t, 4, table.Rows[3].Number)
	require.Len(t, table.Rows[3].Cells, 4)
}

func TestParseTableDetectsFormatWithoutExtension(t *testing.T) {
	format, err := DetectFormat("upload", []byte("Name,Email\nAna,ana@x.com\n"))
	require.NoError(t, err)
	require.Equal(t, FormatCSV, format)

	format, err = DetectFormat("REPORT.XLSX", nil)
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, format)
}

func TestParseTableRejectsUnreadableFiles(t *testing.T) {
	_, err := ParseTable("broken.xlsx", []byte("definitely not a zip"))
	var format *FileFormatError
	require.True(t, errors.As(err, &format))
	require.ErrorIs(t, err, ErrUnreadableFile)

	_, err = ParseTable("broken.xls", []byte("not a compound document"))
	require.ErrorIs(t, err, ErrUnreadableFile)

	_, err = ParseTable("image", []byte("\x89PNG\r\n\x1a\n0000"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}
