package export

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rpattn/staffing/internal/ingestion"
	"github.com/stretchr/testify/require"
)

func newExportRouter(t *testing.T) (*mux.Router, fixture) {
	t.Helper()
	f := newFixture(t)
	router := mux.NewRouter()
	NewHTTPHandler(f.exporter).RegisterRoutes(router)
	return router, f
}

func TestHandlerServesCSVExport(t *testing.T) {
	router, _ := newExportRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients/export?format=csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="clients-20240721.csv"`, rec.Header().Get("Content-Disposition"))

	table, err := ingestion.ParseTable("clients.csv", rec.Body.Bytes())
	require.NoError(t, err)
	require.NoError(t, ingestion.ClientSchema.Check(table))
	require.Len(t, table.Rows, 3)
}

func TestHandlerServesAssignmentExport(t *testing.T) {
	router, f := newExportRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/"+f.project.String()+"/assignments/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `attachment; filename="assignments-pr240001ac-20240721.xlsx"`, rec.Header().Get("Content-Disposition"))

	table, err := ingestion.ParseTable("assignments.xlsx", rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/"+uuid.NewString()+"/assignments/export", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerServesTemplatesAndRejectsBadFormat(t *testing.T) {
	router, _ := newExportRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assignments/import/template", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	table, err := ingestion.ParseTable("template.xlsx", rec.Body.Bytes())
	require.NoError(t, err)
	require.Equal(t, ingestion.AssignmentSchema.Headers, table.Rows[0].Cells)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/export?format=pdf", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
