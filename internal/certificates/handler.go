package certificates

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vermlab/laudo/pkg/handlers"
	"github.com/vermlab/laudo/pkg/pagination"
	"github.com/vermlab/laudo/pkg/routes"
)

// Handler provides HTTP endpoints for certificate operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "certificates"),
		pagination: pagination,
	}
}

// Routes returns the route group definitions for certificate endpoints.
func (h *Handler) Routes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/certificates",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: h.List},
				{Method: "POST", Pattern: "", Handler: h.Create},
				{Method: "GET", Pattern: "/{id}", Handler: h.Find},
				{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
				{Method: "PUT", Pattern: "/{id}/samples", Handler: h.SetSamples},
				{Method: "POST", Pattern: "/{id}/submit", Handler: h.Submit},
				{Method: "POST", Pattern: "/{id}/approve", Handler: h.Approve},
				{Method: "POST", Pattern: "/{id}/reject", Handler: h.Reject},
				{Method: "POST", Pattern: "/{id}/cancel", Handler: h.Cancel},
				{Method: "GET", Pattern: "/{id}/pdf", Handler: h.PDF},
			},
		},
	}
}

// Create drafts a certificate and auto-binds samples in range.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	cmd.CreatedBy = r.Header.Get("X-Operator")
	if cmd.CreatedBy == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("X-Operator header required"))
		return
	}

	cert, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, cert)
}

// List returns a page of certificates.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a certificate with its cited sample references.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	cert, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cert)
}

// Update edits certificate metadata while editable.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var cmd UpdateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	cert, err := h.sys.Update(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cert)
}

// SetSamples narrows the certificate's cited sample set.
func (h *Handler) SetSamples(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var cmd SetSamplesCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	cert, err := h.sys.SetSamples(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cert)
}

// Submit moves a draft to review.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sys.Submit)
}

// Approve assigns the report number and freezes the cited samples. The actor
// comes from X-Operator and must differ from the author.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	cert, err := h.sys.Approve(r.Context(), id, r.Header.Get("X-Operator"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cert)
}

// Reject sends a pending certificate back to the author.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var cmd RejectCommand
	if r.Body != nil {
		// Reason is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&cmd)
	}

	cert, err := h.sys.Reject(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cert)
}

// Cancel terminates a certificate and its non-terminal loading orders.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sys.Cancel)
}

// PDF streams the rendered certificate artifact.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	pdf, err := h.sys.PDF(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer pdf.Close()

	w.Header().Set("Content-Type", "application/pdf")
	if _, err := io.Copy(w, pdf); err != nil {
		h.logger.Error("certificate pdf stream failed", "id", id, "error", err)
	}
}

func (h *Handler) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id uuid.UUID) (*Certificate, error),
) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	cert, err := fn(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cert)
}
