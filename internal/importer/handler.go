package importer

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vermlab/laudo/pkg/handlers"
	"github.com/vermlab/laudo/pkg/routes"
)

// Handler provides HTTP endpoints for sample import and export.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "importer"),
	}
}

// Routes returns the route group definitions for import and export endpoints.
func (h *Handler) Routes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/imports",
			Routes: []routes.Route{
				{Method: "POST", Pattern: "/samples", Handler: h.ImportSamples},
			},
		},
		{
			Prefix: "/exports",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/samples", Handler: h.ExportSamples},
			},
		},
	}
}

// ImportSamples accepts a multipart upload with the workbook in the "file"
// field and runs the bulk import.
func (h *Handler) ImportSamples(w http.ResponseWriter, r *http.Request) {
	operator := r.Header.Get("X-Operator")
	if operator == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("X-Operator header required"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("multipart field 'file' required"))
		return
	}
	defer file.Close()

	report, err := h.sys.ImportSamples(r.Context(), operator, file)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrBadWorkbook) {
			status = http.StatusBadRequest
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, report)
}

const maxUploadBytes = 16 << 20

// ExportSamples streams an xlsx workbook mirroring the import schema.
// Query parameters: analysis_type (required), date, shift.
func (h *Handler) ExportSamples(w http.ResponseWriter, r *http.Request) {
	analysisType := r.URL.Query().Get("analysis_type")
	if analysisType == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("analysis_type query parameter required"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="samples.xlsx"`)

	err := h.sys.ExportSamples(
		r.Context(),
		analysisType,
		r.URL.Query().Get("date"),
		r.URL.Query().Get("shift"),
		w,
	)
	if err != nil {
		h.logger.Error("sample export failed", "error", err)
	}
}
