package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ariefcatur/dailyfresh-orders/internal/cart"
	"github.com/ariefcatur/dailyfresh-orders/internal/checkout"
	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
	"github.com/go-chi/chi/v5"
)

type SKULister interface {
	ListSKUs(ctx context.Context) ([]orders.SKU, error)
}

type CartHandler struct {
	Cart    *cart.Service
	Engine  *checkout.Engine
	Catalog SKULister
	Log     *slog.Logger
}

type cartItemReq struct {
	SKUID string `json:"sku_id"`
	Count int    `json:"count"`
}

type productResp struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock int    `json:"stock"`
	Sales int    `json:"sales"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/cart", h.preview)
	r.Get("/cart/count", h.count)
	r.Post("/cart/items", h.addItem)
	r.Put("/cart/items/{sku}", h.updateItem)
	r.Delete("/cart/items/{sku}", h.removeItem)
}

func (h *CartHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	skus, err := h.Catalog.ListSKUs(ctx)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, ResPersistenceFailure, checkout.KindPersistenceFailure.String(), err.Error())
		return
	}
	out := make([]productResp, 0, len(skus))
	for _, s := range skus {
		out = append(out, productResp{ID: s.ID, Name: s.Name, Price: s.UnitPrice.StringFixed(2), Stock: s.Stock, Sales: s.Sales})
	}
	writeJSON(w, http.StatusOK, out)
}

// preview: isi cart + subtotal, dipakai halaman konfirmasi sebelum commit.
func (h *CartHandler) preview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Engine.Preview(ctx, buyerID(r))
	if err != nil {
		writeCheckoutErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CartHandler) count(w http.ResponseWriter, r *http.Request) {
	buyer := buyerID(r)
	if buyer == "" {
		writeJSON(w, http.StatusOK, map[string]int{"res": ResOK, "cart_count": 0})
		return
	}
	n, err := h.Cart.Count(r.Context(), buyer)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, ResPersistenceFailure, checkout.KindPersistenceFailure.String(), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"res": ResOK, "cart_count": n})
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	buyer := buyerID(r)
	if buyer == "" {
		writeErr(w, http.StatusUnauthorized, ResNotAuthenticated, checkout.KindNotAuthenticated.String(), "login required")
		return
	}
	var req cartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SKUID == "" {
		writeErr(w, http.StatusBadRequest, ResMissingParameters, checkout.KindMissingParameters.String(), "sku_id and count required")
		return
	}
	n, err := h.Cart.Add(r.Context(), buyer, req.SKUID, req.Count)
	if err != nil {
		h.writeCartErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"res": ResOK, "cart_count": n})
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	buyer := buyerID(r)
	if buyer == "" {
		writeErr(w, http.StatusUnauthorized, ResNotAuthenticated, checkout.KindNotAuthenticated.String(), "login required")
		return
	}
	var req cartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, ResMissingParameters, checkout.KindMissingParameters.String(), "count required")
		return
	}
	if err := h.Cart.Update(r.Context(), buyer, chi.URLParam(r, "sku"), req.Count); err != nil {
		h.writeCartErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"res": ResOK})
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	buyer := buyerID(r)
	if buyer == "" {
		writeErr(w, http.StatusUnauthorized, ResNotAuthenticated, checkout.KindNotAuthenticated.String(), "login required")
		return
	}
	if err := h.Cart.Remove(r.Context(), buyer, chi.URLParam(r, "sku")); err != nil {
		h.writeCartErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"res": ResOK})
}

func (h *CartHandler) writeCartErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeErr(w, http.StatusBadRequest, ResMissingParameters, checkout.KindMissingParameters.String(), err.Error())
	case errors.Is(err, cart.ErrUnknownSKU):
		writeErr(w, http.StatusUnprocessableEntity, ResUnknownSKU, checkout.KindUnknownSKU.String(), err.Error())
	case errors.Is(err, cart.ErrInsufficientStock):
		writeErr(w, http.StatusConflict, ResInsufficientStock, checkout.KindInsufficientStock.String(), err.Error())
	default:
		if h.Log != nil {
			h.Log.Error("cart operation", "err", err)
		}
		writeErr(w, http.StatusInternalServerError, ResPersistenceFailure, checkout.KindPersistenceFailure.String(), "internal error")
	}
}
