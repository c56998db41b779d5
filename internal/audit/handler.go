package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom-app/stockroom/internal/platform/httpx"
	"github.com/stockroom-app/stockroom/internal/shared"
)

// Handler exposes the movement history. Admin only, matching the original
// app's history page.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the audit handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleQuery)
}

type entryResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ItemID    string    `json:"item_id"`
	ItemName  string    `json:"item_name"`
	ActorName string    `json:"actor_name"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	Note      string    `json:"note,omitempty"`
}

type dayGroupResponse struct {
	Day     string          `json:"day"`
	Entries []entryResponse `json:"entries"`
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if !actor.Admin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "only admins can view the movement history")
		return
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "days must be a positive integer")
			return
		}
		days = parsed
	}

	entries, err := h.service.QueryMovements(r.Context(), Query{
		Since:  time.Now().UTC().AddDate(0, 0, -days),
		Filter: r.URL.Query().Get("q"),
	})
	if err != nil {
		h.logger.Error("query movements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	groups := GroupByDay(entries)
	out := make([]dayGroupResponse, 0, len(groups))
	for _, group := range groups {
		g := dayGroupResponse{Day: group.Day, Entries: make([]entryResponse, 0, len(group.Entries))}
		for _, entry := range group.Entries {
			g.Entries = append(g.Entries, entryResponse{
				ID:        entry.ID,
				CreatedAt: entry.CreatedAt,
				ItemID:    entry.ItemID,
				ItemName:  entry.ItemName,
				ActorName: entry.ActorName,
				Delta:     entry.Delta,
				Reason:    string(entry.Reason),
				Note:      entry.Note,
			})
		}
		out = append(out, g)
	}
	httpx.JSON(w, http.StatusOK, out)
}
