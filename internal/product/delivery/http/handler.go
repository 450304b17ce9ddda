package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/gadget-inventory/internal/httpapi"
	"github.com/tair/gadget-inventory/internal/product/usecase/command"
	"github.com/tair/gadget-inventory/internal/product/usecase/query"
	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/auth"
	"github.com/tair/gadget-inventory/pkg/logger"
	"github.com/tair/gadget-inventory/pkg/validation"
)

// ProductHandler handles HTTP requests for products using CQRS pattern
type ProductHandler struct {
	// Command handlers
	createHandler     *command.CreateProductHandler
	updateHandler     *command.UpdateProductHandler
	deleteHandler     *command.DeleteProductHandler
	deleteManyHandler *command.DeleteProductsHandler

	// Query handlers
	listHandler          *query.ListProductsHandler
	filterOptionsHandler *query.GetFilterOptionsHandler

	tokens          *auth.TokenService
	validate        *validator.Validate
	metrics         *httpapi.Metrics
	productsCreated prometheus.Counter
}

// NewProductHandler creates a new product handler. Used by Wire.
func NewProductHandler(
	createHandler *command.CreateProductHandler,
	updateHandler *command.UpdateProductHandler,
	deleteHandler *command.DeleteProductHandler,
	deleteManyHandler *command.DeleteProductsHandler,
	listHandler *query.ListProductsHandler,
	filterOptionsHandler *query.GetFilterOptionsHandler,
	tokens *auth.TokenService,
	validate *validator.Validate,
	reg prometheus.Registerer,
) *ProductHandler {
	productsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_created_total",
		Help: "Total number of products created",
	})
	reg.MustRegister(productsCreated)

	return &ProductHandler{
		createHandler:        createHandler,
		updateHandler:        updateHandler,
		deleteHandler:        deleteHandler,
		deleteManyHandler:    deleteManyHandler,
		listHandler:          listHandler,
		filterOptionsHandler: filterOptionsHandler,
		tokens:               tokens,
		validate:             validate,
		metrics:              httpapi.NewMetrics(reg, "catalog"),
		productsCreated:      productsCreated,
	}
}

// RegisterRoutes registers the catalog routes. Every route requires a user or manager token.
func (h *ProductHandler) RegisterRoutes(router *mux.Router) {
	authed := httpapi.Authenticate(h.tokens, auth.RoleUser, auth.RoleManager)

	router.HandleFunc("/api/v1/products", h.metrics.Instrument("/api/v1/products", authed(h.ListProducts))).Methods("GET")
	router.HandleFunc("/api/v1/products", h.metrics.Instrument("/api/v1/products", authed(h.DeleteProducts))).Methods("DELETE")
	router.HandleFunc("/api/v1/products/product/filter-options", h.metrics.Instrument("/api/v1/products/product/filter-options", authed(h.GetFilterOptions))).Methods("GET")
	router.HandleFunc("/api/v1/products/product", h.metrics.Instrument("/api/v1/products/product", authed(h.CreateProduct))).Methods("POST")
	router.HandleFunc("/api/v1/products/product/{productId}", h.metrics.Instrument("/api/v1/products/product/{productId}", authed(h.UpdateProduct))).Methods("PATCH")
	router.HandleFunc("/api/v1/products/product/{productId}", h.metrics.Instrument("/api/v1/products/product/{productId}", authed(h.DeleteProduct))).Methods("DELETE")
}

// CreateProduct handles POST /api/v1/products/product
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	caller, _ := httpapi.CallerFromContext(r.Context())

	var req createProductRequest
	if err := h.decode(r, &req); err != nil {
		httpapi.RespondError(w, r, err)
		return
	}

	cmd, err := req.toCommand(caller)
	if err != nil {
		httpapi.RespondError(w, r, err)
		return
	}

	product, err := h.createHandler.Handle(r.Context(), cmd)
	if err != nil {
		logger.Warn(r.Context()).Err(err).Msg("Failed to create product")
		httpapi.RespondError(w, r, err)
		return
	}

	h.productsCreated.Inc()

	httpapi.RespondJSON(w, http.StatusCreated, httpapi.Response{
		Success: true,
		Message: "Product created successfully",
		Data:    product,
	})
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	caller, _ := httpapi.CallerFromContext(r.Context())

	result, err := h.listHandler.Handle(r.Context(), query.ListProductsQuery{
		Params: r.URL.Query(),
		Caller: caller,
	})
	if err != nil {
		httpapi.RespondError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{
		Success: true,
		Message: "Products retrieved successfully",
		Data:    result,
	})
}

// GetFilterOptions handles GET /api/v1/products/product/filter-options
func (h *ProductHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.filterOptionsHandler.Handle(r.Context())
	if err != nil {
		httpapi.RespondError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{
		Success: true,
		Message: "Filter options retrieved successfully",
		Data:    options,
	})
}

// UpdateProduct handles PATCH /api/v1/products/product/{productId}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	caller, _ := httpapi.CallerFromContext(r.Context())
	id := mux.Vars(r)["productId"]

	var req updateProductRequest
	if err := h.decode(r, &req); err != nil {
		httpapi.RespondError(w, r, err)
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		httpapi.RespondError(w, r, err)
		return
	}

	product, err := h.updateHandler.Handle(r.Context(), command.UpdateProductCommand{
		ID:     id,
		Caller: caller,
		Patch:  patch,
	})
	if err != nil {
		logger.Warn(r.Context()).Err(err).Str("product_id", id).Msg("Failed to update product")
		httpapi.RespondError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{
		Success: true,
		Message: "Product updated successfully",
		Data:    product,
	})
}

// DeleteProduct handles DELETE /api/v1/products/product/{productId}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	caller, _ := httpapi.CallerFromContext(r.Context())
	id := mux.Vars(r)["productId"]

	if err := h.deleteHandler.Handle(r.Context(), command.DeleteProductCommand{ID: id, Caller: caller}); err != nil {
		logger.Warn(r.Context()).Err(err).Str("product_id", id).Msg("Failed to delete product")
		httpapi.RespondError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{
		Success: true,
		Message: "Product deleted successfully",
	})
}

// DeleteProducts handles DELETE /api/v1/products
func (h *ProductHandler) DeleteProducts(w http.ResponseWriter, r *http.Request) {
	caller, _ := httpapi.CallerFromContext(r.Context())

	var req deleteProductsRequest
	if err := h.decode(r, &req); err != nil {
		httpapi.RespondError(w, r, err)
		return
	}

	deleted, err := h.deleteManyHandler.Handle(r.Context(), command.DeleteProductsCommand{
		IDs:    req.ProductIDs,
		Caller: caller,
	})
	if err != nil {
		logger.Warn(r.Context()).Err(err).Int("count", len(req.ProductIDs)).Msg("Failed to delete products")
		httpapi.RespondError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{
		Success: true,
		Message: "Products deleted successfully",
		Data:    map[string]int64{"deletedCount": deleted},
	})
}

// decode reads and validates a request body
func (h *ProductHandler) decode(r *http.Request, dst interface{}) error {
	if err := httpapi.DecodeJSON(r, dst); err != nil {
		return err
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperror.Wrap(apperror.KindBadRequest, err, validation.Describe(err))
	}
	return nil
}
