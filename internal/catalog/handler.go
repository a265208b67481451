package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vermlab/laudo/pkg/handlers"
	"github.com/vermlab/laudo/pkg/routes"
)

// Handler provides HTTP endpoints for catalog operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "catalog"),
	}
}

// Routes returns the route group definitions for catalog endpoints.
func (h *Handler) Routes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/products",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: h.ListProducts},
				{Method: "POST", Pattern: "", Handler: h.CreateProduct},
				{Method: "PUT", Pattern: "/{id}", Handler: h.UpdateProduct},
			},
		},
		{
			Prefix: "/properties",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: h.ListProperties},
				{Method: "POST", Pattern: "", Handler: h.CreateProperty},
			},
		},
		{
			Prefix: "/analysis-types",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: h.ListAnalysisTypes},
			},
		},
		{
			Prefix: "/specifications",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: h.SpecHistory},
				{Method: "POST", Pattern: "", Handler: h.ReplaceSpec},
			},
		},
	}
}

// ListProducts returns all products, active only unless ?all=true.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"

	products, err := h.sys.ListProducts(r.Context(), activeOnly)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, products)
}

// CreateProduct registers a new product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd ProductCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	product, err := h.sys.CreateProduct(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, product)
}

// UpdateProduct updates product metadata; deactivation is soft.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var cmd ProductCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	product, err := h.sys.UpdateProduct(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, product)
}

// ListProperties returns properties, filtered by ?analysis_type=POINT|COMPOSITE.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"

	if code := r.URL.Query().Get("analysis_type"); code != "" {
		properties, err := h.sys.PropertiesFor(r.Context(), code, activeOnly)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, http.StatusOK, properties)
		return
	}

	properties, err := h.sys.ListProperties(r.Context(), activeOnly)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, properties)
}

// CreateProperty registers a new measurable property.
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var cmd PropertyCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	property, err := h.sys.CreateProperty(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, property)
}

// ListAnalysisTypes returns all analysis types.
func (h *Handler) ListAnalysisTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.sys.ListAnalysisTypes(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, types)
}

// ReplaceSpec retires the active specification for a (product, property)
// pair and installs the submitted one.
func (h *Handler) ReplaceSpec(w http.ResponseWriter, r *http.Request) {
	var cmd SpecCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	spec, err := h.sys.ReplaceSpec(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, spec)
}

// SpecHistory returns the specification history for ?product=CODE&property=IDENT,
// newest first. The leading entry is the active specification when one exists.
func (h *Handler) SpecHistory(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("product")
	identifier := r.URL.Query().Get("property")
	if code == "" || identifier == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			errors.New("product and property query parameters required"))
		return
	}

	specs, err := h.sys.SpecHistory(r.Context(), code, identifier)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, specs)
}
