// Package payment implements the core business logic for payment processing.
// This is the service/use-case layer: it reconciles gateway notifications
// from both channels into idempotent order-state transitions and
// orchestrates checkout and refunds.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/shopstack/oxipay-payments/internal/domain"
	"github.com/shopstack/oxipay-payments/internal/metrics"
	"github.com/shopstack/oxipay-payments/internal/oxipay"
)

// callbackVerifier re-verifies an inbound callback with the gateway.
type callbackVerifier interface {
	Verify(ctx context.Context, rawBody []byte, userAgent string) (bool, map[string]string)
}

// refundSender submits a signed refund parameter set to the gateway.
type refundSender interface {
	Send(ctx context.Context, params map[string]string, secret []byte) error
}

// Config is the merchant configuration the service operates under. It is
// loaded once at startup and passed in explicitly; the service holds no
// ambient mutable state.
type Config struct {
	Merchant          oxipay.MerchantConfig
	MinimumOrderTotal decimal.Decimal // 0 = no lower bound
	MaximumOrderTotal decimal.Decimal // 0 = no upper bound
	OnlineRefunds     bool
}

// Service implements the payment business logic.
type Service struct {
	orders    domain.OrderRepository
	processor domain.OrderProcessor
	verifier  callbackVerifier
	refunder  refundSender
	cfg       Config
	log       zerolog.Logger
}

// NewService creates a payment service with the required dependencies.
func NewService(
	orders domain.OrderRepository,
	processor domain.OrderProcessor,
	verifier callbackVerifier,
	refunder refundSender,
	cfg Config,
	log zerolog.Logger,
) *Service {
	return &Service{
		orders:    orders,
		processor: processor,
		verifier:  verifier,
		refunder:  refunder,
		cfg:       cfg,
		log:       log,
	}
}

// Checkout builds the signed redirect payload for an order and records the
// total actually sent to the gateway as an order attribute, so the return
// handler can detect a mismatch later.
func (s *Service) Checkout(ctx context.Context, order *domain.Order) (*oxipay.CheckoutPayload, error) {
	if !s.orderTotalInRange(order.Total) {
		return nil, domain.NewPaymentError(domain.ErrOrderTotalOutOfRange,
			fmt.Sprintf("order total %s is outside the configured limits", order.Total.StringFixed(2)),
			"TOTAL_OUT_OF_RANGE")
	}

	payload, err := oxipay.BuildCheckoutPayload(order, s.cfg.Merchant)
	if err != nil {
		if errors.Is(err, domain.ErrMissingMerchantConfig) {
			return nil, domain.NewPaymentError(err,
				"Oxipay merchant configuration is incomplete",
				"MERCHANT_CONFIG")
		}
		return nil, err
	}

	if err := s.orders.SaveOrderAttribute(ctx, order.ID, oxipay.OrderTotalSentAttribute, payload.RoundedTotal.StringFixed(2)); err != nil {
		return nil, domain.NewPaymentError(domain.ErrCoreAPIError,
			"failed to record order total sent to Oxipay",
			"CORE_API_ERROR")
	}

	s.log.Info().
		Str("order_guid", order.OrderGuid.String()).
		Str("amount", payload.RoundedTotal.StringFixed(2)).
		Msg("checkout payload created")

	return payload, nil
}

// HandleBrowserReturn processes the untrusted browser-return notification.
// The order id and true are returned when the order resolves, so the caller
// can redirect to the checkout-completed page; otherwise the event is a
// no-op and the shopper is sent home. No error is ever rendered to the shopper.
func (s *Service) HandleBrowserReturn(ctx context.Context, reference, result, gatewayRef string) (int64, bool) {
	order := s.resolveOrder(ctx, reference)
	if order == nil {
		metrics.DroppedEvents.WithLabelValues(domain.ChannelBrowserReturn.String(), "unresolved_reference").Inc()
		return 0, false
	}

	// The browser-return channel notes the gateway reference unconditionally
	// once the order resolves. The trusted-callback channel does not; keep
	// the asymmetry.
	s.appendNote(ctx, order, oxipay.RefundNoteMarker+gatewayRef)

	s.checkSentTotal(ctx, order)
	s.applyTransition(ctx, order, domain.ChannelBrowserReturn, result)
	return order.ID, true
}

// HandleCallback processes the trusted server-to-server notification. The
// event is re-verified with the gateway before any order mutation; rejected
// or unresolvable events are dropped without surfacing an error, since the
// endpoint must stay success-shaped toward the gateway.
func (s *Service) HandleCallback(ctx context.Context, rawBody []byte, userAgent string) {
	accepted, values := s.verifier.Verify(ctx, rawBody, userAgent)
	if !accepted {
		metrics.CallbackVerifications.WithLabelValues("rejected", "not_verified").Inc()
		s.log.Warn().Str("reference", values["x_reference"]).Msg("callback rejected by gateway re-verification")
		return
	}
	metrics.CallbackVerifications.WithLabelValues("accepted", "").Inc()

	order := s.resolveOrder(ctx, values["x_reference"])
	if order == nil {
		metrics.DroppedEvents.WithLabelValues(domain.ChannelTrustedCallback.String(), "unresolved_reference").Inc()
		s.log.Debug().Str("reference", values["x_reference"]).Msg("callback for unknown order dropped")
		return
	}

	result := values["x_result"]
	// Note only on the paid branch for this channel; see HandleBrowserReturn.
	if oxipay.StatusForResult(result) == domain.PaymentStatusPaid {
		s.appendNote(ctx, order, values["x_gateway_reference"])
	}
	s.applyTransition(ctx, order, domain.ChannelTrustedCallback, result)
}

// CancelOrder cancels the customer's most recent order if the storefront
// core allows it. The returned order id lets the caller redirect to the
// order-details page; false means no order was found.
func (s *Service) CancelOrder(ctx context.Context, customerID int64) (int64, bool) {
	order, err := s.orders.GetMostRecentOrder(ctx, customerID)
	if err != nil {
		if !errors.Is(err, domain.ErrOrderNotFound) {
			s.log.Error().Err(err).Int64("customer_id", customerID).Msg("failed to resolve order for cancellation")
		}
		return 0, false
	}

	allowed, err := s.processor.CanCancelOrder(ctx, order)
	if err != nil {
		s.log.Error().Err(err).Int64("order_id", order.ID).Msg("cancel precondition check failed")
		return order.ID, true
	}
	if allowed {
		if err := s.processor.CancelOrder(ctx, order); err != nil {
			s.log.Error().Err(err).Int64("order_id", order.ID).Msg("failed to cancel order")
		}
	}
	return order.ID, true
}

// Refund recovers the gateway purchase reference from the order's audit
// log, submits a signed refund, and reports the resulting payment status:
// refunded when the amount covers the rounded order total, partially
// refunded otherwise. Transport failures are surfaced to the caller.
func (s *Service) Refund(ctx context.Context, orderGuid uuid.UUID, amount decimal.Decimal) (*domain.RefundResult, error) {
	if !s.cfg.OnlineRefunds {
		return nil, domain.NewPaymentError(domain.ErrRefundsDisabled,
			"online refunds are disabled in the Oxipay configuration",
			"REFUNDS_DISABLED")
	}

	order, err := s.orders.GetOrderByGuid(ctx, orderGuid)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, domain.NewPaymentError(err,
				fmt.Sprintf("order %s not found", orderGuid), "ORDER_NOT_FOUND")
		}
		return nil, domain.NewPaymentError(domain.ErrCoreAPIError,
			"failed to fetch order for refund", "CORE_API_ERROR")
	}

	purchaseNumber, err := oxipay.PurchaseNumberFromNotes(order.Notes)
	if err != nil {
		return nil, domain.NewPaymentError(err,
			"could not recover the Oxipay purchase reference", "REFUND_REFERENCE")
	}

	params := oxipay.BuildRefundParams(s.cfg.Merchant.MerchantID, purchaseNumber, amount)
	if err := s.refunder.Send(ctx, params, []byte(s.cfg.Merchant.EncryptionKey)); err != nil {
		metrics.RefundRequests.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("order_guid", orderGuid.String()).Msg("refund failed")
		if errors.Is(err, domain.ErrRefundFailed) {
			return nil, domain.NewPaymentError(err, "refund declined by gateway", "REFUND_DECLINED")
		}
		return nil, domain.NewPaymentError(domain.ErrPaymentGatewayError,
			"refund request could not be delivered", "GATEWAY_ERROR")
	}

	newStatus := domain.PaymentStatusPartiallyRefunded
	if amount.Round(2).Equal(order.Total.Round(2)) {
		newStatus = domain.PaymentStatusRefunded
	}
	metrics.RefundRequests.WithLabelValues("ok").Inc()
	s.log.Info().
		Str("order_guid", orderGuid.String()).
		Str("amount", amount.Round(2).StringFixed(2)).
		Str("new_status", newStatus.String()).
		Msg("refund processed")

	return &domain.RefundResult{NewStatus: newStatus}, nil
}

// applyTransition applies the state machine for one event. Transitions are
// gated on the core's preconditions, so re-applying an event to an order
// already in the target state is a no-op, not an error. Pending and
// unrecognized result codes never advance state.
func (s *Service) applyTransition(ctx context.Context, order *domain.Order, channel domain.Channel, result string) {
	switch oxipay.StatusForResult(result) {
	case domain.PaymentStatusPaid:
		allowed, err := s.processor.CanMarkOrderAsPaid(ctx, order)
		if err != nil {
			s.log.Error().Err(err).Int64("order_id", order.ID).Msg("mark-paid precondition check failed")
			return
		}
		if !allowed {
			return
		}
		if err := s.processor.MarkOrderAsPaid(ctx, order); err != nil {
			s.log.Error().Err(err).Int64("order_id", order.ID).Msg("failed to mark order paid")
			return
		}
		metrics.PaymentTransitions.WithLabelValues(channel.String(), "paid").Inc()

	case domain.PaymentStatusVoided:
		allowed, err := s.processor.CanVoidOffline(ctx, order)
		if err != nil {
			s.log.Error().Err(err).Int64("order_id", order.ID).Msg("void precondition check failed")
			return
		}
		if !allowed {
			return
		}
		if err := s.processor.VoidOffline(ctx, order); err != nil {
			s.log.Error().Err(err).Int64("order_id", order.ID).Msg("failed to void order")
			return
		}
		metrics.PaymentTransitions.WithLabelValues(channel.String(), "voided").Inc()

	default:
		// pending and unrecognized codes are no-ops
	}
}

// resolveOrder parses the declared reference and looks the order up.
// A malformed or unknown reference yields nil: the event is dropped.
func (s *Service) resolveOrder(ctx context.Context, reference string) *domain.Order {
	guid, err := uuid.Parse(reference)
	if err != nil {
		return nil
	}
	order, err := s.orders.GetOrderByGuid(ctx, guid)
	if err != nil {
		if !errors.Is(err, domain.ErrOrderNotFound) {
			s.log.Error().Err(err).Str("order_guid", guid.String()).Msg("order lookup failed")
		}
		return nil
	}
	return order
}

func (s *Service) appendNote(ctx context.Context, order *domain.Order, note string) {
	err := s.orders.AddOrderNote(ctx, order.ID, domain.OrderNote{
		Note:              note,
		DisplayToCustomer: false,
		CreatedOn:         time.Now().UTC(),
	})
	if err != nil {
		s.log.Error().Err(err).Int64("order_id", order.ID).Msg("failed to append order note")
	}
}

// checkSentTotal compares the total recorded at checkout time with the
// order's current total. A mismatch is advisory: logged, never enforced.
func (s *Service) checkSentTotal(ctx context.Context, order *domain.Order) {
	sent, err := s.orders.GetOrderAttribute(ctx, order.ID, oxipay.OrderTotalSentAttribute)
	if err != nil || sent == "" {
		return
	}
	if sent != order.Total.Round(2).StringFixed(2) {
		s.log.Warn().
			Int64("order_id", order.ID).
			Str("sent_total", sent).
			Str("order_total", order.Total.Round(2).StringFixed(2)).
			Msg("order total differs from total sent to Oxipay")
	}
}

func (s *Service) orderTotalInRange(total decimal.Decimal) bool {
	min, max := s.cfg.MinimumOrderTotal, s.cfg.MaximumOrderTotal
	if !min.IsZero() && total.LessThanOrEqual(min) {
		return false
	}
	if !max.IsZero() && total.GreaterThanOrEqual(max) {
		return false
	}
	return true
}
