package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/cart"
	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/catalog"
)

// CartHandler exposes the cart store over HTTP. The cart id comes from the
// cart cookie middleware; line-item pricing always comes from the live
// catalog, never from the client.
type CartHandler struct {
	carts   *cart.Manager
	catalog catalog.Provider
	logger  *zap.Logger
}

func NewCartHandler(carts *cart.Manager, catalogProvider catalog.Provider, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: catalogProvider,
		logger:  logger,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// CartResponseDTO is the cart snapshot returned after every operation.
type CartResponseDTO struct {
	Items []cart.LineItem `json:"items"`
	Count int             `json:"count"`
	Total int64           `json:"total"`
}

func cartResponse(store *cart.Store) CartResponseDTO {
	items := store.Items()
	if items == nil {
		items = []cart.LineItem{}
	}
	return CartResponseDTO{
		Items: items,
		Count: store.Count(),
		Total: store.Total(),
	}
}

// GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(store))
}

// POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "product_not_found", "product is not available")
			return
		}
		h.logger.Error("catalog lookup failed", zap.String("product_id", req.ProductID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to look up product")
		return
	}

	store.Add(cart.LineItem{
		ProductID:  product.ID,
		PriceID:    product.PriceID,
		Name:       product.Name,
		Image:      product.Image,
		UnitAmount: product.UnitAmount,
		Currency:   product.Currency,
	}, req.Quantity)

	respondJSON(w, http.StatusCreated, cartResponse(store))
}

// PUT /api/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	store.UpdateQuantity(productID, req.Quantity)
	respondJSON(w, http.StatusOK, cartResponse(store))
}

// DELETE /api/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	store.Remove(productID)
	respondJSON(w, http.StatusOK, cartResponse(store))
}

// DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.Clear()
	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) store(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	cartID := cartIDFromContext(r.Context())
	if cartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart", "no cart associated with this request")
		return nil, false
	}

	store, err := h.carts.Get(r.Context(), cartID)
	if err != nil {
		h.logger.Error("load cart failed", zap.String("cart_id", cartID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return nil, false
	}
	return store, true
}
