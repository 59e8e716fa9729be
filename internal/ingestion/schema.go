package ingestion

import (
	"strings"

	"github.com/rpattn/staffing/internal/domain"
)

// Schema is the fixed column layout of one importable entity.
type Schema struct {
	Entity  domain.EntityType
	Headers []string
	// Significant lists the columns that, when all empty, mark a row as blank.
	Significant []int
}

var (
	ClientSchema = Schema{
		Entity:      domain.EntityClient,
		Headers:     []string{"Name", "Email", "Company Name", "NPWP", "Bidang", "Status"},
		Significant: []int{0, 1},
	}
	EmployeeSchema = Schema{
		Entity:      domain.EntityEmployee,
		Headers:     []string{"No", "Name", "Email", "Phone", "Skillset", "Availability"},
		Significant: []int{1, 2},
	}
	ProjectSchema = Schema{
		Entity:      domain.EntityProject,
		Headers:     []string{"Project Name", "Client Company", "Start Date", "Status", "Lokasi", "Cost"},
		Significant: []int{0, 1},
	}
	AssignmentSchema = Schema{
		Entity:      domain.EntityAssignment,
		Headers:     []string{"Employee Name", "Start Date", "End Date", "Notes"},
		Significant: []int{0},
	}
)

// ValidateHeader matches header position by position, ignoring case and
// surrounding whitespace. Columns after the expected ones are ignored.
func (s Schema) ValidateHeader(header []string) error {
	mismatch := &SchemaMismatchError{Entity: s.Entity, Expected: s.Headers, Got: header}
	if len(header) < len(s.Headers) {
		return mismatch
	}
	for i, expected := range s.Headers {
		if !strings.EqualFold(strings.TrimSpace(header[i]), expected) {
			return mismatch
		}
	}
	return nil
}

// IsBlank reports whether every significant column of cells is empty.
func (s Schema) IsBlank(cells []string) bool {
	for _, col := range s.Significant {
		if col < len(cells) && strings.TrimSpace(cells[col]) != "" {
			return false
		}
	}
	return true
}

// Check applies the file level rules: enough rows and a matching header.
func (s Schema) Check(table Table) error {
	if len(table.Rows) < 2 {
		return ErrEmptyFile
	}
	return s.ValidateHeader(table.Rows[0].Cells)
}
