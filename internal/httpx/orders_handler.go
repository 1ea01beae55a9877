package httpx

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ariefcatur/dailyfresh-orders/internal/checkout"
	"github.com/ariefcatur/dailyfresh-orders/internal/lifecycle"
	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
	"github.com/ariefcatur/dailyfresh-orders/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type OrderReader interface {
	GetOrder(ctx context.Context, orderID string) (orders.Order, error)
}

type OrdersHandler struct {
	Engine        *checkout.Engine
	Lifecycle     *lifecycle.Service
	Orders        OrderReader
	Redis         redis.Cmdable
	CommitTimeout time.Duration
	Limiter       *BuyerLimiter // optional, hanya untuk commit
	InternalToken string        // untuk /internal/*, kosong = ditolak
	Log           *slog.Logger
}

type CommitOrderReq struct {
	AddressID string   `json:"address_id"`
	PayMethod string   `json:"pay_method"`
	SKUIDs    []string `json:"sku_ids"`
}

type OrderLineResp struct {
	SKUID     string `json:"sku_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
	Review    string `json:"review,omitempty"`
}

type OrderResp struct {
	Res           int             `json:"res"`
	OrderID       string          `json:"order_id"`
	Status        string          `json:"status"`
	PayMethod     string          `json:"pay_method"`
	TotalCount    int             `json:"total_count"`
	TotalPrice    string          `json:"total_price"`
	ShippingFee   string          `json:"shipping_fee"`
	AmountPayable string          `json:"amount_payable"`
	TradeNo       string          `json:"trade_no,omitempty"`
	Lines         []OrderLineResp `json:"lines"`
	Idempotent    bool            `json:"idempotent"`
}

func toOrderResp(o orders.Order) OrderResp {
	out := OrderResp{
		Res:           ResOK,
		OrderID:       o.ID,
		Status:        o.Status.String(),
		PayMethod:     o.PaymentMethod.String(),
		TotalCount:    o.TotalCount,
		TotalPrice:    o.TotalPrice.StringFixed(2),
		ShippingFee:   o.ShippingFee.StringFixed(2),
		AmountPayable: o.AmountPayable().StringFixed(2),
		Lines:         make([]OrderLineResp, 0, len(o.Lines)),
	}
	if o.PaymentTradeNo != nil {
		out.TradeNo = *o.PaymentTradeNo
	}
	for _, l := range o.Lines {
		lr := OrderLineResp{
			SKUID:     l.SKUID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Subtotal:  l.Subtotal().StringFixed(2),
		}
		if l.Review != nil {
			lr.Review = *l.Review
		}
		out.Lines = append(out.Lines, lr)
	}
	return out
}

// statusCache disimpan di redis; buyer_id hanya untuk cek kepemilikan.
type statusCache struct {
	OrderID string `json:"order_id"`
	BuyerID string `json:"buyer_id"`
	Status  string `json:"status"`
}

type StatusResp struct {
	Res     int    `json:"res"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	if h.Limiter != nil {
		r.With(h.Limiter.Middleware).Post("/orders/commit", h.commitOrder)
	} else {
		r.Post("/orders/commit", h.commitOrder)
	}
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getOrderStatus)
	r.Post("/orders/{id}/pay", h.payOrder)
	r.Post("/orders/{id}/receipt", h.confirmReceipt)
	r.Post("/orders/{id}/review", h.reviewOrder)
	r.With(h.internalOnly).Post("/internal/orders/{id}/ship", h.shipOrder)
}

func (h *OrdersHandler) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

func (h *OrdersHandler) commitOrder(w http.ResponseWriter, r *http.Request) {
	buyer := buyerID(r)
	if buyer == "" {
		writeErr(w, http.StatusUnauthorized, ResNotAuthenticated, checkout.KindNotAuthenticated.String(), "login required")
		return
	}
	var req CommitOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, ResMissingParameters, checkout.KindMissingParameters.String(), "invalid json")
		return
	}

	timeout := h.CommitTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	// Idempotency-Key opsional: identitas request dari client, bukan isi cart.
	idemKey := ""
	if k := r.Header.Get("Idempotency-Key"); k != "" && h.Redis != nil {
		idemKey = fmt.Sprintf(redisx.KeyIdemOrderCommit, buyer, k)
		// marker pending cukup hidup selama commit; kalau proses mati di tengah,
		// key bisa dipakai lagi setelah TTL ini.
		fresh, err := h.Redis.SetNX(ctx, idemKey, redisx.IdemPending, 2*timeout).Result()
		switch {
		case err != nil:
			h.logger().Warn("idempotency check skipped", "err", err)
			idemKey = ""
		case !fresh:
			h.replayCommit(ctx, w, buyer, idemKey)
			return
		}
	}

	order, err := h.commit(ctx, buyer, req)
	if err != nil {
		if idemKey != "" {
			_ = h.Redis.Del(context.WithoutCancel(ctx), idemKey).Err()
		}
		writeCheckoutErr(w, err)
		return
	}

	if h.Redis != nil {
		if idemKey != "" {
			_ = h.Redis.Set(ctx, idemKey, order.ID, redisx.TTLIdempotency).Err()
		}
		h.cacheStatus(ctx, order.ID, buyer, order.Status)
	}
	writeJSON(w, http.StatusCreated, toOrderResp(order))
}

func (h *OrdersHandler) commit(ctx context.Context, buyer string, req CommitOrderReq) (orders.Order, error) {
	if req.AddressID == "" || req.PayMethod == "" || len(req.SKUIDs) == 0 {
		return orders.Order{}, &checkout.Error{Kind: checkout.KindMissingParameters, Err: errors.New("address_id, pay_method and sku_ids are required")}
	}
	lines, err := h.Engine.LineRequests(ctx, buyer, req.SKUIDs)
	if err != nil {
		return orders.Order{}, err
	}
	pm, _ := orders.ParsePaymentMethod(req.PayMethod)
	return h.Engine.CommitOrder(ctx, checkout.CommitRequest{
		BuyerID:       buyer,
		AddressID:     req.AddressID,
		PaymentMethod: pm,
		Lines:         lines,
	})
}

func (h *OrdersHandler) replayCommit(ctx context.Context, w http.ResponseWriter, buyer, idemKey string) {
	v, err := h.Redis.Get(ctx, idemKey).Result()
	if err != nil || v == redisx.IdemPending {
		writeErr(w, http.StatusConflict, ResDuplicateInFlight, "duplicate submission", "an order with this idempotency key is still being processed")
		return
	}
	o, err := h.Orders.GetOrder(ctx, v)
	if err != nil || o.BuyerID != buyer {
		writeErr(w, http.StatusConflict, ResDuplicateInFlight, "duplicate submission", "idempotency key already used")
		return
	}
	resp := toOrderResp(o)
	resp.Idempotent = true
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID, buyer string, s orders.Status) {
	b, _ := json.Marshal(statusCache{OrderID: orderID, BuyerID: buyer, Status: s.String()})
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if err := h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err(); err != nil {
		h.logger().Warn("status cache write", "order_id", orderID, "err", err)
	}
}

func (h *OrdersHandler) dropStatus(ctx context.Context, orderID string) {
	if h.Redis == nil {
		return
	}
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Err()
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	buyer := buyerID(r)
	if buyer == "" {
		writeErr(w, http.StatusUnauthorized, ResNotAuthenticated, checkout.KindNotAuthenticated.String(), "login required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil || o.BuyerID != buyer {
		writeErr(w, http.StatusNotFound, ResNotFound, "not found", "order not found")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	buyer := buyerID(r)
	orderID := chi.URLParam(r, "id")
	if buyer == "" {
		writeErr(w, http.StatusUnauthorized, ResNotAuthenticated, checkout.KindNotAuthenticated.String(), "login required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil {
			var c statusCache
			if json.Unmarshal([]byte(s), &c) == nil && c.BuyerID == buyer {
				writeJSON(w, http.StatusOK, StatusResp{Res: ResOK, OrderID: c.OrderID, Status: c.Status})
				return
			}
		}
	}

	// 2) fallback DB
	o, err := h.Orders.GetOrder(ctx, orderID)
	if err != nil || o.BuyerID != buyer {
		writeErr(w, http.StatusNotFound, ResNotFound, "not found", "order not found")
		return
	}
	if h.Redis != nil {
		h.cacheStatus(ctx, o.ID, o.BuyerID, o.Status)
	}
	writeJSON(w, http.StatusOK, StatusResp{Res: ResOK, OrderID: o.ID, Status: o.Status.String()})
}

type payReq struct {
	TradeNo string `json:"trade_no"`
}

type reviewReq struct {
	Reviews map[string]string `json:"reviews"`
}

func (h *OrdersHandler) payOrder(w http.ResponseWriter, r *http.Request) {
	var req payReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, ResMissingParameters, checkout.KindMissingParameters.String(), "invalid json")
		return
	}
	h.lifecycleStep(w, r, func(ctx context.Context, buyer, orderID string) error {
		return h.Lifecycle.ConfirmPayment(ctx, buyer, orderID, req.TradeNo)
	})
}

func (h *OrdersHandler) confirmReceipt(w http.ResponseWriter, r *http.Request) {
	h.lifecycleStep(w, r, h.Lifecycle.ConfirmReceipt)
}

func (h *OrdersHandler) reviewOrder(w http.ResponseWriter, r *http.Request) {
	var req reviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Reviews) == 0 {
		writeErr(w, http.StatusBadRequest, ResMissingParameters, checkout.KindMissingParameters.String(), "reviews required")
		return
	}
	h.lifecycleStep(w, r, func(ctx context.Context, buyer, orderID string) error {
		return h.Lifecycle.Review(ctx, buyer, orderID, req.Reviews)
	})
}

func (h *OrdersHandler) lifecycleStep(w http.ResponseWriter, r *http.Request, step func(ctx context.Context, buyer, orderID string) error) {
	buyer := buyerID(r)
	if buyer == "" {
		writeErr(w, http.StatusUnauthorized, ResNotAuthenticated, checkout.KindNotAuthenticated.String(), "login required")
		return
	}
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	h.finishStep(ctx, w, orderID, step(ctx, buyer, orderID))
}

// shipOrder: dipanggil gudang/admin lewat jalur internal, bukan oleh buyer.
func (h *OrdersHandler) shipOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	h.finishStep(ctx, w, orderID, h.Lifecycle.MarkShipped(ctx, orderID))
}

func (h *OrdersHandler) finishStep(ctx context.Context, w http.ResponseWriter, orderID string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, orders.ErrOrderNotFound):
		writeErr(w, http.StatusNotFound, ResNotFound, "not found", "order not found")
		return
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		writeErr(w, http.StatusConflict, ResInvalidTransition, "invalid transition", err.Error())
		return
	case errors.Is(err, lifecycle.ErrEmptyTradeNo), errors.Is(err, lifecycle.ErrUnknownLine):
		writeErr(w, http.StatusBadRequest, ResMissingParameters, checkout.KindMissingParameters.String(), err.Error())
		return
	default:
		h.logger().Error("order lifecycle step", "order_id", orderID, "err", err)
		writeErr(w, http.StatusInternalServerError, ResPersistenceFailure, checkout.KindPersistenceFailure.String(), "internal error")
		return
	}

	h.dropStatus(ctx, orderID)
	o, err := h.Orders.GetOrder(ctx, orderID)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"res": ResOK, "order_id": orderID})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

// internalOnly menjaga route operasional dengan shared token. Token kosong =
// route selalu ditolak.
func (h *OrdersHandler) internalOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(HeaderInternalToken)
		if h.InternalToken == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.InternalToken)) != 1 {
			writeErr(w, http.StatusForbidden, ResNotAuthenticated, checkout.KindNotAuthenticated.String(), "internal token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
