package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"printflow-core-monday-layer/internal/application"
	"printflow-core-monday-layer/internal/domain"
)

// OrdersHandler exposes the order lifecycle over REST. Role enforcement
// happens at the gateway; this layer validates shape and state only.
type OrdersHandler struct {
	orders *application.OrderService
	logger zerolog.Logger
}

func NewOrdersHandler(orders *application.OrderService, logger zerolog.Logger) *OrdersHandler {
	return &OrdersHandler{orders: orders, logger: logger}
}

// Routes mounts the order endpoints on a chi router.
func (h *OrdersHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/lookup", h.Lookup)
	r.Get("/stream", h.Stream)
	r.Route("/{orderId}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Update)
		r.Post("/design/start", h.StartDesign)
		r.Post("/design", h.CompleteDesign)
		r.Post("/status", h.UpdateStatus)
		r.Post("/note", h.AddNote)
		r.Post("/subitems", h.CreateSubItem)
		r.Get("/subitems", h.ListSubItems)
		r.Get("/subitems/stream", h.StreamSubItems)
		r.Patch("/subitems/{subItemId}/design", h.UpdateSubItemDesign)
		r.Post("/subitems/{subItemId}/status", h.UpdateSubItemStatus)
	})
	return r
}

// Create godoc
// @Summary Create a new order
// @Tags orders
// @Accept json
// @Produce json
// @Success 201 {object} map[string]string
// @Router /api/orders [post]
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input application.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	id, err := h.orders.CreateOrder(r.Context(), input, actingUser(r))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"id":           id,
		"order_number": input.OrderNumber,
	})
}

// List returns orders, optionally filtered by status or creator. mine=true is
// shorthand for createdBy set to the calling user.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creator := r.URL.Query().Get("createdBy")
	if r.URL.Query().Get("mine") == "true" {
		creator = actingUser(r)
	}
	if creator != "" {
		orders, err := h.orders.OrdersByCreator(ctx, creator)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to list orders")
			return
		}
		respondJSON(w, http.StatusOK, orders)
		return
	}

	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		orders, err := h.orders.OrdersByStatus(ctx, domain.Status(statusParam))
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, orders)
		return
	}

	orders, err := h.orders.AllOrders(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load order")
		return
	}
	if order == nil {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Lookup resolves an order by its business order number.
func (h *OrdersHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	orderNumber := r.URL.Query().Get("orderNumber")
	if orderNumber == "" {
		respondError(w, http.StatusBadRequest, "orderNumber parameter is required")
		return
	}

	order, err := h.orders.FindOrderByNumber(r.Context(), orderNumber)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to look up order")
		return
	}
	if order == nil {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch domain.OrderPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.orders.UpdateOrder(r.Context(), chi.URLParam(r, "orderId"), patch); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *OrdersHandler) StartDesign(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.StartDesignWork(r.Context(), chi.URLParam(r, "orderId"), actingUser(r)); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *OrdersHandler) CompleteDesign(w http.ResponseWriter, r *http.Request) {
	var design domain.DesignUpdate
	if err := json.NewDecoder(r.Body).Decode(&design); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.orders.CompleteDesign(r.Context(), chi.URLParam(r, "orderId"), design, actingUser(r)); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type updateStatusRequest struct {
	Status          string `json:"status"`
	ProductionNotes string `json:"production_notes,omitempty"`
}

func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	err := h.orders.UpdateOrderStatus(r.Context(), chi.URLParam(r, "orderId"), domain.Status(req.Status), req.ProductionNotes, actingUser(r))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": req.Status})
}

type addNoteRequest struct {
	Note string `json:"note"`
}

// AddNote posts a comment onto the order's Monday item.
func (h *OrdersHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req addNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.orders.AddOrderNote(r.Context(), chi.URLParam(r, "orderId"), req.Note); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *OrdersHandler) CreateSubItem(w http.ResponseWriter, r *http.Request) {
	var input application.SubItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	id, err := h.orders.CreateSubItem(r.Context(), chi.URLParam(r, "orderId"), input, actingUser(r))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *OrdersHandler) ListSubItems(w http.ResponseWriter, r *http.Request) {
	subs, err := h.orders.ListSubItems(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list sub-items")
		return
	}
	respondJSON(w, http.StatusOK, subs)
}

func (h *OrdersHandler) UpdateSubItemDesign(w http.ResponseWriter, r *http.Request) {
	var design domain.SubItemDesignUpdate
	if err := json.NewDecoder(r.Body).Decode(&design); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	err := h.orders.UpdateSubItemWithDesign(r.Context(), chi.URLParam(r, "orderId"), chi.URLParam(r, "subItemId"), design, actingUser(r))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *OrdersHandler) UpdateSubItemStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	err := h.orders.UpdateSubItemStatus(r.Context(), chi.URLParam(r, "orderId"), chi.URLParam(r, "subItemId"), domain.Status(req.Status))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Stream pushes the current order list over server-sent events, re-sending
// the full set whenever any matching order changes. An optional status query
// parameter filters the set.
func (h *OrdersHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	var statusFilter *domain.Status
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status := domain.Status(statusParam)
		if !status.IsValid() {
			respondError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		statusFilter = &status
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	events := make(chan []byte, 8)

	cancel, err := h.orders.SubscribeOrders(ctx, statusFilter, func(orders []*domain.Order) {
		data, err := json.Marshal(orders)
		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to marshal order snapshot")
			return
		}
		select {
		case events <- data:
		default:
			// Slow consumer, drop this snapshot; the next change resends.
		}
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-events:
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// StreamSubItems is the sub-item variant of Stream, scoped to one parent order.
func (h *OrdersHandler) StreamSubItems(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	events := make(chan []byte, 8)

	cancel, err := h.orders.SubscribeSubItems(ctx, chi.URLParam(r, "orderId"), func(subs []*domain.SubItem) {
		data, err := json.Marshal(subs)
		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to marshal sub-item snapshot")
			return
		}
		select {
		case events <- data:
		default:
		}
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-events:
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
