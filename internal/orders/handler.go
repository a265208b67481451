package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vermlab/laudo/pkg/handlers"
	"github.com/vermlab/laudo/pkg/pagination"
	"github.com/vermlab/laudo/pkg/routes"
)

// Handler provides HTTP endpoints for loading order operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "orders"),
		pagination: pagination,
	}
}

// Routes returns the authenticated route group definitions.
func (h *Handler) Routes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/loading-orders",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: h.List},
				{Method: "POST", Pattern: "", Handler: h.Create},
				{Method: "GET", Pattern: "/{id}", Handler: h.Find},
				{Method: "POST", Pattern: "/{id}/start", Handler: h.Start},
				{Method: "POST", Pattern: "/{id}/complete", Handler: h.Complete},
				{Method: "POST", Pattern: "/{id}/cancel", Handler: h.Cancel},
				{Method: "GET", Pattern: "/{id}/qr.png", Handler: h.QR},
			},
		},
	}
}

// PublicRoutes returns the token-gated route group, mounted under the public
// module without auth.
func (h *Handler) PublicRoutes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/loading-order",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/{token}", Handler: h.Public},
			},
		},
	}
}

// Create derives a loading order from an approved certificate.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	order, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, order)
}

// List returns a page of loading orders.
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

// Find returns a loading order.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	order, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, order)
}

// Start begins loading.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sys.Start)
}

// Complete finishes loading.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sys.Complete)
}

// Cancel terminates a non-terminal order.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sys.Cancel)
}

// QR streams the PNG encoding the order's public URL.
func (h *Handler) QR(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	png, err := h.sys.QR(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		h.logger.Error("qr stream failed", "id", id, "error", err)
	}
}

// Public serves the redacted token-holder view. Unknown tokens return 404
// with no hint of whether the order exists.
func (h *Handler) Public(w http.ResponseWriter, r *http.Request) {
	view, err := h.sys.PublicByToken(r.Context(), r.PathValue("token"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, view)
}

func (h *Handler) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id uuid.UUID) (*LoadingOrder, error),
) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	order, err := fn(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, order)
}
