package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/catalog"
)

// ProductHandler serves the storefront catalog.
type ProductHandler struct {
	catalog catalog.Provider
	logger  *zap.Logger
}

func NewProductHandler(catalogProvider catalog.Provider, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalogProvider,
		logger:  logger,
	}
}

type ProductsResponseDTO struct {
	Products []catalog.Product `json:"products"`
}

// GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "failed to fetch products")
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	respondJSON(w, http.StatusOK, ProductsResponseDTO{Products: products})
}
