package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/product-catalog/internal/domain"
	"github.com/kahvecikaan/product-catalog/internal/service"
)

type ProductHandler struct {
	productService service.ProductService
	images         *ImageHandler
	logger         hclog.Logger
}

// NewProductHandler creates a ProductHandler. When images is not nil the
// images of a deleted product are removed with it.
func NewProductHandler(ps service.ProductService, images *ImageHandler, log hclog.Logger) *ProductHandler {
	return &ProductHandler{
		productService: ps,
		images:         images,
		logger:         log,
	}
}

// ListProducts handles GET /api/products
//
// swagger:route GET /api/products products listProducts
//
// Returns every product, oldest first.
//
// Responses:
//
//	200: productsResponse
//	500: errorResponse
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if products == nil {
		products = service.Products{}
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /api/products/{id}
//
// swagger:route GET /api/products/{id} products getProduct
//
// Returns a product by ID.
//
// Responses:
//
//	200: productResponse
//	404: errorResponse
//	500: errorResponse
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	product, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/products
//
// swagger:route POST /api/products products createProduct
//
// Creates a new product.
//
// Responses:
//
//	201: productResponse
//	400: errorResponse
//	500: errorResponse
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	in, ok := r.Context().Value(ContextKeyCreate).(domain.ProductCreate)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorKindBadRequest, Message: "missing product data"})
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PATCH /api/products/{id}
//
// swagger:route PATCH /api/products/{id} products updateProduct
//
// Applies a partial update to an existing product.
//
// Responses:
//
//	200: productResponse
//	400: errorResponse
//	404: errorResponse
//	500: errorResponse
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	patch, ok := r.Context().Value(ContextKeyPatch).(domain.ProductPatch)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorKindBadRequest, Message: "missing product data"})
		return
	}

	product, err := h.productService.UpdateProduct(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{id}
//
// swagger:route DELETE /api/products/{id} products deleteProduct
//
// Deletes a product.
//
// Responses:
//
//	204: noContentResponse
//	404: errorResponse
//	500: errorResponse
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.productService.DeleteProduct(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if h.images != nil {
		h.images.DeleteAll(id)
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /health
func (h *ProductHandler) Health(w http.ResponseWriter, r *http.Request) {
	n, err := h.productService.CountProducts(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Products: n})
}
