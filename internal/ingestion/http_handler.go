package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rpattn/staffing/internal/auth"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/logging"
)

const (
	rowErrorsMessage = "There were errors in the file. Please fix them and try again."
	// multipartOverhead is allowed on top of the file limit for boundaries and headers.
	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 20
)

// Handler exposes the importers over HTTP.
type Handler struct {
	service  *Service
	maxBytes int64
}

// NewHTTPHandler wraps service. maxBytes bounds the request body.
func NewHTTPHandler(service *Service, maxBytes int64) *Handler {
	return &Handler{service: service, maxBytes: maxBytes}
}

// RegisterRoutes mounts the import endpoints on r. mw wraps the upload routes only.
func (h *Handler) RegisterRoutes(r *mux.Router, mw ...mux.MiddlewareFunc) {
	h.RegisterUploadRoutes(r, mw...)
	h.RegisterHistoryRoutes(r)
}

// RegisterUploadRoutes mounts the four upload endpoints, each wrapped in mw.
func (h *Handler) RegisterUploadRoutes(r *mux.Router, mw ...mux.MiddlewareFunc) {
	upload := func(entity domain.EntityType) http.Handler {
		return chain(h.importEntity(entity), mw)
	}

	r.Handle("/api/clients/import", upload(domain.EntityClient)).Methods(http.MethodPost)
	r.Handle("/api/employees/import", upload(domain.EntityEmployee)).Methods(http.MethodPost)
	r.Handle("/api/projects/import", upload(domain.EntityProject)).Methods(http.MethodPost)
	r.Handle("/api/projects/{projectID}/assignments/import", upload(domain.EntityAssignment)).Methods(http.MethodPost)
}

// RegisterHistoryRoutes mounts the import run listing.
func (h *Handler) RegisterHistoryRoutes(r *mux.Router, mw ...mux.MiddlewareFunc) {
	r.Handle("/api/imports", chain(http.HandlerFunc(h.listRuns), mw)).Methods(http.MethodGet)
}

func chain(handler http.Handler, mw []mux.MiddlewareFunc) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

func (h *Handler) importEntity(entity domain.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.RequireUser(r.Context()); err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}

		var projectID uuid.UUID
		if entity == domain.EntityAssignment {
			id, err := uuid.Parse(mux.Vars(r)["projectID"])
			if err != nil {
				writeError(w, http.StatusNotFound, "Project not found.")
				return
			}
			projectID = id
		}

		if h.maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
		}
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("The file may not be greater than %d kilobytes.", h.maxBytes>>10))
				return
			}
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid form data: %v", err))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "The file field is required.")
			return
		}
		defer file.Close()

		dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dryRun"))
		summary, err := h.service.Import(r.Context(), entity, Request{
			FileName:  header.Filename,
			Data:      file,
			ProjectID: projectID,
			DryRun:    dryRun,
		})
		if err != nil {
			h.writeImportError(w, r, entity, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func (h *Handler) writeImportError(w http.ResponseWriter, r *http.Request, entity domain.EntityType, err error) {
	var (
		rows        *RowValidationError
		mismatch    *SchemaMismatchError
		format      *FileFormatError
		persistence *PersistenceError
	)
	expected := h.expectedHeaders(entity)

	switch {
	case errors.Is(err, auth.ErrNoUser):
		writeError(w, http.StatusUnauthorized, "Unauthenticated.")
	case errors.Is(err, ErrTargetNotFound):
		writeError(w, http.StatusNotFound, "Project not found.")
	case errors.As(err, &rows):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":     rowErrorsMessage,
			"rowErrors": rows.Messages(),
		})
	case errors.As(err, &mismatch):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":           mismatch.Error(),
			"expectedHeaders": mismatch.Expected,
		})
	case errors.As(err, &format), errors.Is(err, ErrEmptyFile):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":           err.Error(),
			"expectedHeaders": expected,
		})
	case errors.As(err, &persistence):
		writeError(w, http.StatusInternalServerError,
			fmt.Sprintf("An error occurred while importing %s: %v", persistence.Entity.Plural(), persistence.Err))
	default:
		logging.FromContext(r.Context()).WithError(err).Error("unexpected import failure")
		writeError(w, http.StatusInternalServerError,
			fmt.Sprintf("An error occurred while importing %s: %v", entity.Plural(), err))
	}
}

func (h *Handler) expectedHeaders(entity domain.EntityType) []string {
	if imp, ok := h.service.Importer(entity); ok {
		return imp.Schema().Headers
	}
	return nil
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	runs, err := h.service.RecentRuns(r.Context(), limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Error("failed to list import runs")
		writeError(w, http.StatusInternalServerError, "failed to list import runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
