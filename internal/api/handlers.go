// Package api contains the HTTP handlers and routing for the payment service.
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/shopstack/oxipay-payments/internal/domain"
	"github.com/shopstack/oxipay-payments/internal/payment"
)

// Handler contains the HTTP handlers for the payment API.
type Handler struct {
	paymentService *payment.Service
	orders         domain.OrderRepository
	storeBaseURL   string
	log            zerolog.Logger
}

// NewHandler creates a new API handler with the payment service.
func NewHandler(paymentService *payment.Service, orders domain.OrderRepository, storeBaseURL string, log zerolog.Logger) *Handler {
	return &Handler{
		paymentService: paymentService,
		orders:         orders,
		storeBaseURL:   strings.TrimSuffix(storeBaseURL, "/"),
		log:            log,
	}
}

// CheckoutRequest represents the JSON body for the checkout endpoint.
type CheckoutRequest struct {
	OrderGuid string `json:"order_guid" binding:"required"`
}

// CheckoutResponse represents the response from the checkout endpoint.
type CheckoutResponse struct {
	Success     bool              `json:"success"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
}

// RefundRequest represents the JSON body for the refund endpoint.
type RefundRequest struct {
	OrderGuid string          `json:"order_guid" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// RefundResponse represents the response from the refund endpoint.
type RefundResponse struct {
	Success   bool   `json:"success"`
	NewStatus string `json:"new_status,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// CreateCheckout handles POST /api/v1/payments/checkout.
// Builds the signed Oxipay redirect payload for an order.
func (h *Handler) CreateCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	guid, err := uuid.Parse(req.OrderGuid)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "order_guid is not a valid GUID",
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	order, err := h.orders.GetOrderByGuid(c.Request.Context(), guid)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Success: false,
				Error:   "order not found",
				Code:    "ORDER_NOT_FOUND",
			})
			return
		}
		handleServiceError(c, err)
		return
	}

	payload, err := h.paymentService.Checkout(c.Request.Context(), order)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, CheckoutResponse{
		Success:     true,
		RedirectURL: payload.RedirectURL,
		Params:      payload.Params,
	})
}

// Success handles GET/POST /plugins/oxipay/success - the browser-return
// channel. The shopper is always redirected onward, to the checkout
// completed page or to the home page when the order cannot be resolved;
// an error page is never rendered.
func (h *Handler) Success(c *gin.Context) {
	reference := c.Query("x_reference")
	result := c.Query("x_result")
	gatewayRef := c.Query("x_gateway_reference")

	orderID, resolved := h.paymentService.HandleBrowserReturn(c.Request.Context(), reference, result, gatewayRef)
	if !resolved {
		c.Redirect(http.StatusFound, h.storeBaseURL+"/")
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/checkout/completed/%d", h.storeBaseURL, orderID))
}

// Callback handles POST /plugins/oxipay/callback - the trusted channel.
// The response is always an empty 200 body regardless of internal outcome,
// so the gateway never enters a retry storm over a dropped event.
func (h *Handler) Callback(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read callback body")
		c.String(http.StatusOK, "")
		return
	}

	h.paymentService.HandleCallback(c.Request.Context(), rawBody, c.GetHeader("User-Agent"))
	c.String(http.StatusOK, "")
}

// CancelOrder handles GET /plugins/oxipay/cancel - shopper-initiated
// cancellation. Redirects to the order-details page, or home when the
// customer has no order.
func (h *Handler) CancelOrder(c *gin.Context) {
	customerID, err := strconv.ParseInt(c.GetHeader("X-Customer-ID"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, h.storeBaseURL+"/")
		return
	}

	orderID, found := h.paymentService.CancelOrder(c.Request.Context(), customerID)
	if !found {
		c.Redirect(http.StatusFound, h.storeBaseURL+"/")
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/order/details/%d", h.storeBaseURL, orderID))
}

// Refund handles POST /api/v1/payments/refund - merchant-initiated refunds.
func (h *Handler) Refund(c *gin.Context) {
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	guid, err := uuid.Parse(req.OrderGuid)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "order_guid is not a valid GUID",
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	result, err := h.paymentService.Refund(c.Request.Context(), guid, req.Amount)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, RefundResponse{
		Success:   true,
		NewStatus: result.NewStatus.String(),
	})
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "oxipay-payments",
	})
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(c *gin.Context, err error) {
	var paymentErr *domain.PaymentError
	if errors.As(err, &paymentErr) {
		statusCode := http.StatusInternalServerError

		switch {
		case errors.Is(paymentErr.Err, domain.ErrOrderNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(paymentErr.Err, domain.ErrOrderTotalOutOfRange),
			errors.Is(paymentErr.Err, domain.ErrRefundReferenceNotFound),
			errors.Is(paymentErr.Err, domain.ErrRefundReferenceAmbiguous):
			statusCode = http.StatusUnprocessableEntity
		case errors.Is(paymentErr.Err, domain.ErrRefundsDisabled):
			statusCode = http.StatusForbidden
		case errors.Is(paymentErr.Err, domain.ErrMissingMerchantConfig):
			statusCode = http.StatusInternalServerError
		case errors.Is(paymentErr.Err, domain.ErrRefundFailed),
			errors.Is(paymentErr.Err, domain.ErrPaymentGatewayError):
			statusCode = http.StatusBadGateway
		}

		c.JSON(statusCode, ErrorResponse{
			Success: false,
			Error:   paymentErr.Message,
			Code:    paymentErr.Code,
		})
		return
	}

	// Generic error
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   "Internal server error",
		Code:    "INTERNAL_ERROR",
	})
}
