package catalog

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockroom-app/stockroom/internal/platform/httpx"
	"github.com/stockroom-app/stockroom/internal/shared"
)

// Handler wires HTTP endpoints for the item catalogue.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers item routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Post("/", h.handleCreate)
	r.Patch("/{id}", h.handleUpdate)
	r.Post("/{id}/active", h.handleSetActive)
}

type itemResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	StockOnHand  int64     `json:"stock_on_hand"`
	ReorderLevel int64     `json:"reorder_level"`
	ReorderQty   int64     `json:"reorder_qty"`
	Unit         string    `json:"unit"`
	Active       bool      `json:"active"`
	LowStock     bool      `json:"low_stock"`
	CreatedAt    time.Time `json:"created_at"`
}

func toItemResponse(item Item) itemResponse {
	return itemResponse{
		ID:           item.ID,
		Name:         item.Name,
		StockOnHand:  item.StockOnHand,
		ReorderLevel: item.ReorderLevel,
		ReorderQty:   item.ReorderQty,
		Unit:         item.Unit,
		Active:       item.Active,
		LowStock:     item.LowStock(),
		CreatedAt:    item.CreatedAt,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	includeInactive := actor.Admin && r.URL.Query().Get("all") == "1"
	items, err := h.service.ListItems(r.Context(), includeInactive)
	if err != nil {
		h.logger.Error("list items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}

type createItemRequest struct {
	Name         string `json:"name" validate:"required"`
	InitialStock int64  `json:"initial_stock" validate:"gte=0"`
	ReorderLevel int64  `json:"reorder_level" validate:"gte=0"`
	ReorderQty   int64  `json:"reorder_qty" validate:"gte=0"`
	Unit         string `json:"unit"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if !actor.Admin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "only admins can create items")
		return
	}
	var req createItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
		return
	}
	item, err := h.service.CreateItem(r.Context(), CreateItemInput{
		Name:         req.Name,
		InitialStock: req.InitialStock,
		ReorderLevel: req.ReorderLevel,
		ReorderQty:   req.ReorderQty,
		Unit:         req.Unit,
		Actor:        actor,
	})
	if err != nil {
		h.logger.Error("create item", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("item created", slog.String("item_id", item.ID), slog.String("name", item.Name))
	httpx.JSON(w, http.StatusCreated, toItemResponse(item))
}

type updateItemRequest struct {
	Name         string `json:"name" validate:"required"`
	ReorderLevel int64  `json:"reorder_level" validate:"gte=0"`
	ReorderQty   int64  `json:"reorder_qty" validate:"gte=0"`
	Unit         string `json:"unit"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if !actor.Admin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "only admins can edit items")
		return
	}
	var req updateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
		return
	}
	item, err := h.service.UpdateItem(r.Context(), UpdateItemInput{
		ID:           chi.URLParam(r, "id"),
		Name:         req.Name,
		ReorderLevel: req.ReorderLevel,
		ReorderQty:   req.ReorderQty,
		Unit:         req.Unit,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if !actor.Admin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "only admins can archive items")
		return
	}
	var req setActiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed JSON body")
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.service.SetActive(r.Context(), id, req.Active); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("item active flag changed", slog.String("item_id", id), slog.Bool("active", req.Active))
	w.WriteHeader(http.StatusNoContent)
}
