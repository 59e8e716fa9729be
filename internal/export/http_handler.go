package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/logging"
)

// Handler serves exports and import templates.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps service.
func NewHTTPHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the download endpoints on r. mw wraps every route.
func (h *Handler) RegisterRoutes(r *mux.Router, mw ...mux.MiddlewareFunc) {
	wrap := func(fn http.HandlerFunc) http.Handler {
		var handler http.Handler = fn
		for i := len(mw) - 1; i >= 0; i-- {
			handler = mw[i](handler)
		}
		return handler
	}

	r.Handle("/api/projects/{projectID}/assignments/export", wrap(h.handleAssignmentExport)).Methods(http.MethodGet)
	r.Handle("/api/{entity:clients|employees|projects}/export", wrap(h.handleExport)).Methods(http.MethodGet)
	r.Handle("/api/{entity:clients|employees|projects|assignments}/import/template", wrap(h.handleTemplate)).Methods(http.MethodGet)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	entity, ok := domain.ParseEntityType(mux.Vars(r)["entity"])
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sheet, err := h.service.Export(r.Context(), entity, uuid.Nil)
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).WithField("entity", entity).Error("export failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("failed to export %s", entity.Plural())})
		return
	}
	h.serveSheet(w, r, sheet, format, h.service.FileName(entity, "", format))
}

func (h *Handler) handleAssignmentExport(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(mux.Vars(r)["projectID"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Project not found."})
		return
	}
	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sheet, err := h.service.Assignments(r.Context(), projectID)
	if errors.Is(err, ErrProjectNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Project not found."})
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).WithField("project", projectID).Error("assignment export failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to export assignments"})
		return
	}
	h.serveSheet(w, r, sheet, format, h.service.FileName(domain.EntityAssignment, sheet.Title, format))
}

func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request) {
	entity, ok := domain.ParseEntityType(mux.Vars(r)["entity"])
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	sheet, err := Template(entity)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	h.serveSheet(w, r, sheet, FormatXLSX, entity.Plural()+"-import-template.xlsx")
}

func (h *Handler) serveSheet(w http.ResponseWriter, r *http.Request, sheet Sheet, format Format, filename string) {
	var buf bytes.Buffer
	if err := sheet.Write(&buf, format); err != nil {
		logging.FromContext(r.Context()).WithError(err).Error("failed to render sheet")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to render file"})
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
