package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/vermlab/laudo/internal/samples"
	"github.com/vermlab/laudo/pkg/handlers"
	"github.com/vermlab/laudo/pkg/routes"
)

// Handler provides HTTP endpoints for shift boards.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "dashboard"),
	}
}

// Routes returns the route group definitions for dashboard endpoints.
func (h *Handler) Routes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/dashboard",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/point", Handler: h.board(samples.KindPoint)},
				{Method: "GET", Pattern: "/composite", Handler: h.board(samples.KindComposite)},
			},
		},
	}
}

// board serves the shift board; ?date=2006-01-02&shift=A|B overrides the
// current window and ?line=L1 narrows it to one production line.
func (h *Handler) board(kind samples.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		line := r.URL.Query().Get("line")

		var shift samples.Shift
		if date != "" {
			parsed, err := samples.ParseShift(r.URL.Query().Get("shift"))
			if err != nil {
				handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
				return
			}
			shift = parsed
		}

		board, err := h.sys.Board(r.Context(), kind, date, shift, line)
		if err != nil {
			handlers.RespondError(w, h.logger, samples.MapHTTPStatus(err), err)
			return
		}

		handlers.RespondJSON(w, http.StatusOK, board)
	}
}
