package samples

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vermlab/laudo/pkg/handlers"
	"github.com/vermlab/laudo/pkg/pagination"
	"github.com/vermlab/laudo/pkg/routes"
)

// Handler provides HTTP endpoints for sample operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "samples"),
		pagination: pagination,
	}
}

// Routes returns the route group definitions for sample endpoints.
func (h *Handler) Routes() []routes.Group {
	kindRoutes := func(kind Kind) []routes.Route {
		return []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list(kind)},
			{Method: "POST", Pattern: "", Handler: h.create(kind)},
			{Method: "GET", Pattern: "/{id}", Handler: h.find(kind)},
			{Method: "GET", Pattern: "/{id}/results", Handler: h.results(kind)},
			{Method: "POST", Pattern: "/{id}/results", Handler: h.recordResult(kind)},
		}
	}

	composite := kindRoutes(KindComposite)
	composite = append(composite, routes.Route{
		Method: "POST", Pattern: "/{id}/seal", Handler: h.SealComposite,
	})

	return []routes.Group{
		{
			Prefix: "/samples",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/drift", Handler: h.CheckDrift},
			},
			Children: []routes.Group{
				{Prefix: "/point", Routes: kindRoutes(KindPoint)},
				{Prefix: "/composite", Routes: composite},
			},
		},
	}
}

func (h *Handler) create(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd CreateCommand
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}

		cmd.Operator = r.Header.Get("X-Operator")
		if cmd.Operator == "" {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("X-Operator header required"))
			return
		}

		sample, err := h.sys.Create(r.Context(), kind, cmd)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}

		handlers.RespondJSON(w, http.StatusCreated, sample)
	}
}

func (h *Handler) list(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
		filters := FiltersFromQuery(r.URL.Query())

		result, err := h.sys.List(r.Context(), kind, page, filters)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}

		handlers.RespondJSON(w, http.StatusOK, result)
	}
}

func (h *Handler) find(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}

		sample, err := h.sys.Find(r.Context(), kind, id)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}

		handlers.RespondJSON(w, http.StatusOK, sample)
	}
}

func (h *Handler) results(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}

		results, err := h.sys.Results(r.Context(), kind, id)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}

		handlers.RespondJSON(w, http.StatusOK, results)
	}
}

func (h *Handler) recordResult(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}

		var cmd ResultCommand
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}

		result, err := h.sys.RecordResult(r.Context(), kind, id, cmd)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}

		handlers.RespondJSON(w, http.StatusCreated, result)
	}
}

// SealComposite closes a composite sample against further result edits.
func (h *Handler) SealComposite(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	sample, err := h.sys.SealComposite(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, sample)
}

// CheckDrift runs the verdict-cache consistency check and reports mismatches.
func (h *Handler) CheckDrift(w http.ResponseWriter, r *http.Request) {
	report, err := h.sys.CheckDrift(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, report)
}
