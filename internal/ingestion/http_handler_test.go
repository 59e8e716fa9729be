package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rpattn/staffing/internal/auth"
	"github.com/rpattn/staffing/internal/repository/memstore"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestRouter(t *testing.T, opts ...Option) (*mux.Router, *memstore.Store) {
	t.Helper()
	svc, store := newTestService(t, opts...)
	router := mux.NewRouter()
	router.Use(auth.HeaderMiddleware("X-User-ID"))
	NewHTTPHandler(svc, DefaultMaxUploadBytes).RegisterRoutes(router)
	return router, store
}

func uploadRequest(t *testing.T, path, fileName string, content []byte, user string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandlerImportsClients(t *testing.T) {
	router, _ := newTestRouter(t)
	csv := clientHeader + "\nJane Doe,jane@x.com,Acme Co,123456789012345,IT,Active\n"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "/api/clients/import", "clients.csv", []byte(csv), "admin-1"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	require.Equal(t, "Client", body["entity"])
	require.EqualValues(t, 1, body["inserted"])
}

func TestHandlerRejectsAnonymousUpload(t *testing.T) {
	router, store := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "/api/clients/import", "clients.csv", []byte(clientHeader+"\n"), ""))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, store.Runs())
}

func TestHandlerReportsRowErrors(t *testing.T) {
	router, _ := newTestRouter(t)
	csv := clientHeader + "\nJane Doe,jane@x.com,Acme Co,,IT,Active\n,bad,Beta,,,\n"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "/api/clients/import", "clients.csv", []byte(csv), "admin-1"))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, rowErrorsMessage, body["error"])
	rowErrors, ok := body["rowErrors"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, []any{"Name is required", "Email must be a valid email address"}, rowErrors["3"])
}

func TestHandlerReportsExpectedHeaders(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "/api/employees/import", "employees.csv", []byte("Name,Email\nAna,ana@x.com\n"), "admin-1"))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, []any{"No", "Name", "Email", "Phone", "Skillset", "Availability"}, body["expectedHeaders"])
	require.True(t, strings.HasPrefix(body["error"].(string), "invalid file format"))
}

func TestHandlerReportsPersistenceFailure(t *testing.T) {
	router, store := newTestRouter(t)
	store.FailOn("clients.create", errors.New("disk full"))
	csv := clientHeader + "\nJane Doe,jane@x.com,Acme Co,,IT,Active\n"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "/api/clients/import", "clients.csv", []byte(csv), "admin-1"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "An error occurred while importing clients: row 2: disk full", decodeBody(t, rec)["error"])
}

func TestHandlerImportsAssignmentsFromSpreadsheet(t *testing.T) {
	router, store := newTestRouter(t)
	project := assignmentFixture(t, store)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Employee Name", "Start Date", "End Date", "Notes"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Budi Santoso", 45494, "31/12/2024", "Onsite"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	path := "/api/projects/" + project.ID.String() + "/assignments/import"
	router.ServeHTTP(rec, uploadRequest(t, path, "assignments.xlsx", buf.Bytes(), "admin-1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assignments, err := store.Repositories().Assignments.ListByProject(context.Background(), project.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	require.Equal(t, "21/07/2024", assignments[0].StartDate.Format("02/01/2006"))

	rec = httptest.NewRecorder()
	missing := "/api/projects/" + uuid.NewString() + "/assignments/import"
	router.ServeHTTP(rec, uploadRequest(t, missing, "assignments.xlsx", buf.Bytes(), "admin-1"))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerListsRuns(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "/api/clients/import", "clients.csv", []byte(clientHeader+"\n"), "admin-1"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/imports?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	runs, ok := decodeBody(t, rec)["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 1)
}
