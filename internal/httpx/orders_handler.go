package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

// OrderService is the slice of the shop service the order routes use.
type OrderService interface {
	PlaceOrder(ctx context.Context, actor shop.Actor, items []shop.ItemInput, claimedTotal float64) (*shop.Order, error)
	UpdateOrderStatus(ctx context.Context, actor shop.Actor, id string, target shop.Status) (*shop.Order, error)
	CancelOrder(ctx context.Context, actor shop.Actor, id string) (*shop.Order, error)
	DeleteOrder(ctx context.Context, actor shop.Actor, id string) (*shop.Order, error)
	GetOrder(ctx context.Context, actor shop.Actor, id string) (*shop.Order, error)
	ListOrders(ctx context.Context, actor shop.Actor, f shop.OrderFilter) ([]shop.Order, error)
}

type OrdersHandler struct {
	Svc   OrderService
	Redis *redis.Client
	Log   *logrus.Logger
}

type placeOrderReq struct {
	Items []shop.ItemInput `json:"items"`
	Total float64          `json:"total"`
}

type updateOrderReq struct {
	Status shop.Status `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getOrderStatus)
	r.Patch("/orders/{id}", h.updateStatus)
	r.Post("/orders/{id}/cancel", h.cancel)
	r.Delete("/orders/{id}", h.deleteOrder)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	o, err := h.Svc.PlaceOrder(r.Context(), actor, req.Items, req.Total)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(r.Context(), o)
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	o, err := h.Svc.GetOrder(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// getOrderStatus serves the hot read path. Admins may hit the redis cache
// directly; customers always go through the service so ownership scoping is
// applied before anything is revealed.
func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "id")

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if actor.IsAdmin() && h.Redis != nil {
		if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	o, err := h.Svc.GetOrder(r.Context(), actor, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(r.Context(), o)
	writeJSON(w, http.StatusOK, map[string]any{"status": o.Status})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	sortBy, dir := querySort(r)
	f := shop.OrderFilter{
		UserID: r.URL.Query().Get("user_id"),
		Status: shop.Status(r.URL.Query().Get("status")),
		From:   queryTime(r, "from"),
		To:     queryTime(r, "to"),
		SortBy: sortBy,
		Dir:    dir,
		Page:   queryPage(r),
	}
	orders, err := h.Svc.ListOrders(r.Context(), actor, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req updateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	o, err := h.Svc.UpdateOrderStatus(r.Context(), actor, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(r.Context(), o)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	o, err := h.Svc.CancelOrder(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(r.Context(), o)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	o, err := h.Svc.DeleteOrder(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Del(r.Context(), fmt.Sprintf(redisx.KeyOrderStatus, o.ID)).Err()
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o *shop.Order) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	body, _ := json.Marshal(map[string]any{"status": o.Status})
	if err := h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err(); err != nil && h.Log != nil {
		h.Log.WithError(err).Debug("status cache write failed")
	}
}
