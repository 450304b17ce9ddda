package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/gadget-inventory/internal/httpapi"
	"github.com/tair/gadget-inventory/internal/order/usecase/command"
	"github.com/tair/gadget-inventory/internal/order/usecase/query"
	"github.com/tair/gadget-inventory/internal/pipeline"
	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/auth"
	"github.com/tair/gadget-inventory/pkg/logger"
	"github.com/tair/gadget-inventory/pkg/validation"
)

// OrderHandler handles HTTP requests for sales orders
type OrderHandler struct {
	createHandler *command.CreateOrderHandler
	reportHandler *query.GetSalesReportHandler

	tokens        *auth.TokenService
	validate      *validator.Validate
	metrics       *httpapi.Metrics
	ordersCreated prometheus.Counter
	ordersFailed  *prometheus.CounterVec
}

// NewOrderHandler creates a new order handler. Used by Wire.
func NewOrderHandler(
	createHandler *command.CreateOrderHandler,
	reportHandler *query.GetSalesReportHandler,
	tokens *auth.TokenService,
	validate *validator.Validate,
	reg prometheus.Registerer,
) *OrderHandler {
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sales_orders_created_total",
		Help: "Total number of sales orders recorded",
	})
	ordersFailed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_orders_failed_total",
			Help: "Total number of rejected sales orders",
		},
		[]string{"reason"},
	)
	reg.MustRegister(ordersCreated, ordersFailed)

	return &OrderHandler{
		createHandler: createHandler,
		reportHandler: reportHandler,
		tokens:        tokens,
		validate:      validate,
		metrics:       httpapi.NewMetrics(reg, "sales"),
		ordersCreated: ordersCreated,
		ordersFailed:  ordersFailed,
	}
}

// RegisterRoutes registers the order routes. Every route requires a user or manager token.
func (h *OrderHandler) RegisterRoutes(router *mux.Router) {
	authed := httpapi.Authenticate(h.tokens, auth.RoleUser, auth.RoleManager)

	router.HandleFunc("/api/v1/orders/order", h.metrics.Instrument("/api/v1/orders/order", authed(h.CreateOrder))).Methods("POST")
	router.HandleFunc("/api/v1/orders/sales", h.metrics.Instrument("/api/v1/orders/sales", authed(h.GetSalesReport))).Methods("GET")
}

type createOrderRequest struct {
	ProductID     string `json:"product" validate:"required"`
	Quantity      int    `json:"quantity" validate:"required,gte=1"`
	BuyerName     string `json:"buyerName" validate:"required,notblank"`
	ContactNumber string `json:"contactNumber" validate:"required,notblank"`
	SoldDate      string `json:"soldDate"`
}

// CreateOrder handles POST /api/v1/orders/order
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	caller, _ := httpapi.CallerFromContext(r.Context())

	var req createOrderRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.reject(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.reject(w, r, apperror.Wrap(apperror.KindBadRequest, err, validation.Describe(err)))
		return
	}

	cmd := command.CreateOrderCommand{
		Caller:        caller,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		BuyerName:     req.BuyerName,
		ContactNumber: req.ContactNumber,
	}
	if req.SoldDate != "" {
		soldDate, _, err := pipeline.ParseDate(req.SoldDate)
		if err != nil {
			h.reject(w, r, apperror.BadRequest("soldDate: %s", err.Error()))
			return
		}
		cmd.SoldDate = &soldDate
	}

	order, err := h.createHandler.Handle(r.Context(), cmd)
	if err != nil {
		h.reject(w, r, err)
		return
	}

	h.ordersCreated.Inc()

	httpapi.RespondJSON(w, http.StatusCreated, httpapi.Response{
		Success: true,
		Message: "Order created successfully",
		Data:    order,
	})
}

// GetSalesReport handles GET /api/v1/orders/sales
func (h *OrderHandler) GetSalesReport(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	report, err := h.reportHandler.Handle(r.Context(), query.GetSalesReportQuery{
		Period:    params.Get("period"),
		StartDate: params.Get("startDate"),
		EndDate:   params.Get("endDate"),
	})
	if err != nil {
		httpapi.RespondError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{
		Success: true,
		Message: "Sales history retrieved successfully",
		Data:    report,
	})
}

func (h *OrderHandler) reject(w http.ResponseWriter, r *http.Request, err error) {
	reason := apperror.KindOf(err).String()
	h.ordersFailed.WithLabelValues(reason).Inc()

	logger.Warn(r.Context()).
		Err(err).
		Str("reason", reason).
		Msg("Failed to create order")
	httpapi.RespondError(w, r, err)
}
