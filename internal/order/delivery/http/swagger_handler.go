package http

// CreateOrder godoc
// @Summary Record a sale
// @Description Sell units of a product. Stock is decremented atomically with the order insert; the caller is recorded as seller.
// @Tags Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{product=string,quantity=int,buyerName=string,contactNumber=string,soldDate=string} true "Order data"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 401 {object} object{success=bool,error=string}
// @Failure 422 {object} object{success=bool,error=string}
// @Router /api/v1/orders/order [post]
func (h *OrderHandler) CreateOrderDoc() {}

// GetSalesReport godoc
// @Summary Sales history
// @Description Aggregate sales by period. Unknown periods are treated as yearly.
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param period query string false "yearly, monthly, weekly or daily"
// @Param startDate query string false "Inclusive start, YYYY-MM-DD or RFC3339"
// @Param endDate query string false "Inclusive end, YYYY-MM-DD or RFC3339"
// @Success 200 {object} object{success=bool,data=object{period=string,buckets=array}}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 401 {object} object{success=bool,error=string}
// @Router /api/v1/orders/sales [get]
func (h *OrderHandler) GetSalesReportDoc() {}
