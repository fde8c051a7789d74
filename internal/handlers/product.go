package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stockkeep/apiserver/internal/services"
	"github.com/stockkeep/apiserver/types"
)

const productNotFound = "product not found"

// ProductHandler provides HTTP handlers for the caller's products.
type ProductHandler struct {
	productService *services.ProductService
	logger         *slog.Logger
}

func NewProductHandler(productService *services.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{productService: productService, logger: logger}
}

// InventoryRouter registers /products and /statistics. Every route sits
// behind authMiddleware.
func InventoryRouter(
	r chi.Router,
	productService *services.ProductService,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) {
	handler := NewProductHandler(productService, logger)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/statistics", handler.Statistics)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", handler.ListProducts)
			r.Post("/", handler.CreateProduct)
			r.Route("/{productID}", func(r chi.Router) {
				r.Get("/", handler.GetProduct)
				r.Put("/", handler.UpdateProduct)
				r.Delete("/", handler.DeleteProduct)
			})
		})
	})
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	products, err := h.productService.List(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, h.logger, err, productNotFound, "failed to list products")
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := parseProductID(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Get(r.Context(), caller, id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, productNotFound, "failed to fetch product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeProductRequest(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Create(r.Context(), caller, in)
	if err != nil {
		writeServiceError(w, r, h.logger, err, productNotFound, "failed to create product")
		return
	}

	writeJSON(w, http.StatusCreated, ProductResponse{Message: "product created", Product: product})
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := parseProductID(w, r)
	if !ok {
		return
	}
	in, ok := decodeProductRequest(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Update(r.Context(), caller, id, in)
	if err != nil {
		writeServiceError(w, r, h.logger, err, productNotFound, "failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, ProductResponse{Message: "product updated", Product: product})
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := parseProductID(w, r)
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), caller, id); err != nil {
		writeServiceError(w, r, h.logger, err, productNotFound, "failed to delete product")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "product deleted"})
}

func (h *ProductHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	stats, err := h.productService.Statistics(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, h.logger, err, productNotFound, "failed to compute statistics")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// ProductRequest is the body of create and update. Price and quantity are
// pointers so an omitted field is told apart from an explicit zero.
type ProductRequest struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	Description string   `json:"description"`
}

func decodeProductRequest(w http.ResponseWriter, r *http.Request) (types.ProductInput, bool) {
	var req ProductRequest
	if !decodeJSON(w, r, &req) {
		return types.ProductInput{}, false
	}
	switch {
	case req.Price == nil:
		writeError(w, http.StatusBadRequest, "price is required")
		return types.ProductInput{}, false
	case req.Quantity == nil:
		writeError(w, http.StatusBadRequest, "quantity is required")
		return types.ProductInput{}, false
	}
	return types.ProductInput{
		Name:        req.Name,
		Category:    req.Category,
		Price:       *req.Price,
		Quantity:    *req.Quantity,
		Description: req.Description,
	}, true
}

// ProductResponse wraps a created or updated product.
type ProductResponse struct {
	Message string        `json:"message"`
	Product types.Product `json:"product"`
}

func (h *ProductHandler) caller(w http.ResponseWriter, r *http.Request) (types.Identity, bool) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
	}
	return identity, ok
}

func parseProductID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := parseIDParam(r, "productID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
	}
	return id, ok
}
