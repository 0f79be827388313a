package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

type cartResponse struct {
	Items        []cart.LineItem `json:"items"`
	ItemCount    int             `json:"itemCount"`
	Total        decimal.Decimal `json:"total"`
	DisplayTotal string          `json:"displayTotal"`
}

func newCartResponse(s cart.Snapshot) cartResponse {
	items := s.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return cartResponse{
		Items:        items,
		ItemCount:    s.ItemCount(),
		Total:        s.Total,
		DisplayTotal: s.DisplayTotal(),
	}
}

type addItemRequest struct {
	ProductID catalog.ID `json:"productId"`
}

// acquire pins the request's session for the lifetime of the request.
func (h *Handler) acquire(r *http.Request) (*cart.Store, func()) {
	return h.carts.Acquire(middleware.GetSessionID(r.Context()))
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	store, release := h.acquire(r)
	defer release()
	writeJSON(w, http.StatusOK, newCartResponse(store.Snapshot()))
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == "" {
		writeError(w, r, http.StatusBadRequest, "missing productId")
		return
	}

	store, release := h.acquire(r)
	defer release()

	p, err := h.catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		h.writeCatalogError(w, r, err)
		return
	}

	store.Add(p)
	writeJSON(w, http.StatusOK, newCartResponse(store.Snapshot()))
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	store, release := h.acquire(r)
	defer release()
	store.Remove(catalog.ParseID(chi.URLParam(r, "productId")))
	writeJSON(w, http.StatusOK, newCartResponse(store.Snapshot()))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store, release := h.acquire(r)
	defer release()
	store.Clear()
	writeJSON(w, http.StatusOK, newCartResponse(store.Snapshot()))
}
