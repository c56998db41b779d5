package replenish

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockroom-app/stockroom/internal/platform/httpx"
	"github.com/stockroom-app/stockroom/internal/shared"
)

// Handler wires HTTP endpoints for planning and the order lifecycle.
type Handler struct {
	logger    *slog.Logger
	planner   *Planner
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the replenish handler.
func NewHandler(logger *slog.Logger, planner *Planner, service *Service) *Handler {
	return &Handler{logger: logger, planner: planner, service: service, validator: validator.New()}
}

// MountLowStock registers the planner route.
func (h *Handler) MountLowStock(r chi.Router) {
	r.Get("/", h.handleLowStock)
}

// MountOrders registers the order lifecycle routes.
func (h *Handler) MountOrders(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{orderID}", h.handleGet)
	r.Get("/{orderID}/email-draft", h.handleEmailDraft)
	r.Post("/{orderID}/receive", h.handleReceive)
	r.Post("/{orderID}/receive-all", h.handleReceiveAll)
	r.Post("/{orderID}/cancel", h.handleCancel)
}

type candidateResponse struct {
	ItemID       string `json:"item_id"`
	Name         string `json:"name"`
	StockOnHand  int64  `json:"stock_on_hand"`
	ReorderLevel int64  `json:"reorder_level"`
	Unit         string `json:"unit"`
	SuggestedQty int64  `json:"suggested_qty"`
	Pending      bool   `json:"pending"`
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.planner.LowStockCandidates(r.Context())
	if err != nil {
		h.logger.Error("low stock candidates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]candidateResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, candidateResponse{
			ItemID:       c.Item.ID,
			Name:         c.Item.Name,
			StockOnHand:  c.Item.StockOnHand,
			ReorderLevel: c.Item.ReorderLevel,
			Unit:         c.Item.Unit,
			SuggestedQty: c.SuggestedQty,
			Pending:      c.Pending,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

type orderLineResponse struct {
	ItemID      string `json:"item_id"`
	ItemName    string `json:"item_name"`
	QtyOrdered  int64  `json:"qty_ordered"`
	QtyReceived int64  `json:"qty_received"`
	Remaining   int64  `json:"remaining"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	Ref       string              `json:"ref"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	Note      string              `json:"note,omitempty"`
	Lines     []orderLineResponse `json:"lines"`
}

func toOrderResponse(order Order) orderResponse {
	out := orderResponse{
		ID:        order.ID,
		Ref:       order.Ref(),
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt,
		Note:      order.Note,
		Lines:     make([]orderLineResponse, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		out.Lines = append(out.Lines, orderLineResponse{
			ItemID:      line.ItemID,
			ItemName:    line.ItemName,
			QtyOrdered:  line.QtyOrdered,
			QtyReceived: line.QtyReceived,
			Remaining:   line.Remaining(),
		})
	}
	return out
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), OrderStatus(r.URL.Query().Get("status")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order))
	}
	httpx.JSON(w, http.StatusOK, out)
}

type createOrderRequest struct {
	Lines []struct {
		ItemID string `json:"item_id" validate:"required"`
		Qty    int64  `json:"qty" validate:"gt=0"`
	} `json:"lines" validate:"required,min=1,dive"`
	Note string `json:"note"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if !actor.Known() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
		return
	}
	input := CreateOrderInput{Note: req.Note, Actor: actor}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, OrderLineInput{ItemID: line.ItemID, Qty: line.Qty})
	}
	order, err := h.service.CreatePendingOrder(r.Context(), input)
	if err != nil {
		h.logger.Error("create order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("order created",
		slog.String("order_id", order.ID), slog.Int("lines", len(order.Lines)),
		slog.String("actor", actor.ID))
	httpx.JSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) handleEmailDraft(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(EmailDraft(order, time.Now().UTC())))
}

type receiveRequest struct {
	ItemID string `json:"item_id" validate:"required"`
	Qty    int64  `json:"qty" validate:"gt=0"`
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if !actor.Admin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "only admins can receive orders")
		return
	}
	var req receiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
		return
	}
	order, err := h.service.ReceiveOrderLine(r.Context(), ReceiveInput{
		OrderID: chi.URLParam(r, "orderID"),
		ItemID:  req.ItemID,
		Qty:     req.Qty,
		Actor:   actor,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("order line received",
		slog.String("order_id", order.ID), slog.String("item_id", req.ItemID),
		slog.Int64("qty", req.Qty), slog.String("status", string(order.Status)))
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) handleReceiveAll(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if !actor.Admin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "only admins can receive orders")
		return
	}
	order, err := h.service.ReceiveAllRemaining(r.Context(), chi.URLParam(r, "orderID"), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if !actor.Admin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "only admins can cancel orders")
		return
	}
	order, err := h.service.CancelOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("order cancelled", slog.String("order_id", order.ID))
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}
