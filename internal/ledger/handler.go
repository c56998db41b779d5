package ledger

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockroom-app/stockroom/internal/observability"
	"github.com/stockroom-app/stockroom/internal/platform/httpx"
	"github.com/stockroom-app/stockroom/internal/shared"
)

// Handler wires HTTP endpoints for posting movements.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	metrics   *observability.Metrics
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), metrics: metrics}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleApply)
}

type applyRequest struct {
	ItemID string `json:"item_id" validate:"required"`
	Delta  int64  `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,oneof=receive issue adjustment"`
	Note   string `json:"note"`
}

type movementResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ItemID    string    `json:"item_id"`
	ActorID   string    `json:"actor_id"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	Note      string    `json:"note,omitempty"`
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if !actor.Known() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in to post movements")
		return
	}

	var req applyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
		return
	}

	mv, err := h.service.ApplyMovement(r.Context(), MovementInput{
		ItemID: req.ItemID,
		Delta:  req.Delta,
		Reason: Reason(req.Reason),
		Note:   req.Note,
		Actor:  actor,
	})
	if err != nil {
		h.logger.Error("apply movement failed",
			slog.String("item_id", req.ItemID),
			slog.Int64("delta", req.Delta),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.MovementPosted(string(mv.Reason))
	}
	h.logger.Info("movement posted",
		slog.String("movement_id", mv.ID),
		slog.String("item_id", mv.ItemID),
		slog.Int64("delta", mv.Delta),
		slog.String("reason", string(mv.Reason)))

	httpx.JSON(w, http.StatusCreated, movementResponse{
		ID:        mv.ID,
		CreatedAt: mv.CreatedAt,
		ItemID:    mv.ItemID,
		ActorID:   mv.ActorID,
		Delta:     mv.Delta,
		Reason:    string(mv.Reason),
		Note:      mv.Note,
	})
}
