package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// CreateProduct godoc
// @Summary Create a product
// @Description Create a product owned by the caller. The slug is derived from the name when omitted.
// @Tags Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{name=string,slug=string,price=number,quantity=int,isAvailable=bool,releaseDate=string,brand=string,model=string,category=string,operatingSystem=string,connectivity=string,powerSource=string,features=object,dimension=object} true "Product data"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 401 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/v1/products/product [post]
func (h *ProductHandler) CreateProductDoc() {}

// ListProducts godoc
// @Summary List products
// @Description List products with filtering, sorting, price and quantity ranges, pagination and projection. Users only see their own products.
// @Tags Products
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Param sortBy query string false "Sort field, e.g. price or createdAt"
// @Param sortOrder query string false "asc or desc"
// @Param fields query string false "Comma separated projection"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param minQuantity query int false "Minimum quantity"
// @Param maxQuantity query int false "Maximum quantity"
// @Param search query string false "Case-insensitive name search"
// @Success 200 {object} object{success=bool,data=object{meta=object{page=int,limit=int,total=int},data=array}}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 401 {object} object{success=bool,error=string}
// @Router /api/v1/products [get]
func (h *ProductHandler) ListProductsDoc() {}

// GetFilterOptions godoc
// @Summary Get filter options
// @Description Distinct values of every facet among non-deleted products
// @Tags Products
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{success=bool,data=object}
// @Failure 401 {object} object{success=bool,error=string}
// @Router /api/v1/products/product/filter-options [get]
func (h *ProductHandler) GetFilterOptionsDoc() {}

// UpdateProduct godoc
// @Summary Update a product
// @Description Partially update a product. Users may only update their own products.
// @Tags Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param request body object true "Fields to change"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/v1/products/product/{productId} [patch]
func (h *ProductHandler) UpdateProductDoc() {}

// DeleteProduct godoc
// @Summary Delete a product
// @Description Soft delete a product by ID
// @Tags Products
// @Security BearerAuth
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/v1/products/product/{productId} [delete]
func (h *ProductHandler) DeleteProductDoc() {}

// DeleteProducts godoc
// @Summary Delete several products
// @Description Soft delete a batch of products. Nothing is deleted if any id is missing or not owned.
// @Tags Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{productIds=[]string} true "Product IDs"
// @Success 200 {object} object{success=bool,message=string,data=object{deletedCount=int}}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 422 {object} object{success=bool,error=string}
// @Router /api/v1/products [delete]
func (h *ProductHandler) DeleteProductsDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Description Check service health and storage connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /health [get]
func (h *ProductHandler) HealthCheckDoc() {}
