package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/erp"
	"go.uber.org/zap"
)

// ProductHandler exposes the ERP product catalogue to the quote builder.
// All lookups are read-only; the catalogue is mastered in the ERP.
type ProductHandler struct {
	erpClient *erp.Client
	logger    *zap.Logger
}

func NewProductHandler(erpClient *erp.Client, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		erpClient: erpClient,
		logger:    logger,
	}
}

// Search godoc
// @Summary Search product catalogue
// @Description Search active ERP products by code or name
// @Tags Products
// @Accept json
// @Produce json
// @Param search query string false "Search term"
// @Param limit query int false "Max results" default(50)
// @Success 200 {array} erp.Product
// @Failure 401 {object} domain.ErrorResponse
// @Failure 503 {object} domain.ErrorResponse "ERP connection disabled"
// @Security BearerAuth
// @Router /products [get]
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	if !h.erpClient.IsEnabled() {
		respondJSON(w, http.StatusServiceUnavailable, domain.ErrorResponse{
			Error:   "Service Unavailable",
			Message: "Product catalogue is not available",
		})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	products, err := h.erpClient.SearchProducts(r.Context(), r.URL.Query().Get("search"), limit)
	if err != nil {
		h.logger.Error("product search failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to search products",
		})
		return
	}

	if products == nil {
		products = []erp.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

// GetByCode godoc
// @Summary Get product by code
// @Description Look up one ERP product and its list price
// @Tags Products
// @Accept json
// @Produce json
// @Param code path string true "Product code"
// @Success 200 {object} erp.Product
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 503 {object} domain.ErrorResponse "ERP connection disabled"
// @Security BearerAuth
// @Router /products/{code} [get]
func (h *ProductHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	if !h.erpClient.IsEnabled() {
		respondJSON(w, http.StatusServiceUnavailable, domain.ErrorResponse{
			Error:   "Service Unavailable",
			Message: "Product catalogue is not available",
		})
		return
	}

	code := chi.URLParam(r, "code")
	product, err := h.erpClient.GetProductByCode(r.Context(), code)
	if err != nil {
		h.logger.Error("product lookup failed", zap.Error(err), zap.String("product_code", code))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to look up product",
		})
		return
	}
	if product == nil {
		respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Error:   "Not Found",
			Message: "Product not found",
		})
		return
	}

	respondJSON(w, http.StatusOK, product)
}
