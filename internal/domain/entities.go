// Package domain contains the core business entities and interfaces for the payment service.
// This is the innermost layer of the Clean Architecture - it has no dependencies on
// external frameworks or infrastructure.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the closed set of payment states an order can be in.
type PaymentStatus int

const (
	PaymentStatusPending PaymentStatus = iota
	PaymentStatusPaid
	PaymentStatusVoided
	PaymentStatusRefunded
	PaymentStatusPartiallyRefunded
)

// String returns the wire representation used by the storefront core API.
func (s PaymentStatus) String() string {
	switch s {
	case PaymentStatusPaid:
		return "paid"
	case PaymentStatusVoided:
		return "voided"
	case PaymentStatusRefunded:
		return "refunded"
	case PaymentStatusPartiallyRefunded:
		return "partially-refunded"
	default:
		return "pending"
	}
}

// ParsePaymentStatus converts a wire status string to a PaymentStatus.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return PaymentStatusPending, nil
	case "paid":
		return PaymentStatusPaid, nil
	case "voided":
		return PaymentStatusVoided, nil
	case "refunded":
		return PaymentStatusRefunded, nil
	case "partially-refunded":
		return PaymentStatusPartiallyRefunded, nil
	default:
		return PaymentStatusPending, fmt.Errorf("unknown payment status %q", s)
	}
}

// Channel identifies which notification path delivered a payment event.
type Channel int

const (
	// ChannelBrowserReturn carries query parameters on the shopper's redirect back.
	ChannelBrowserReturn Channel = iota
	// ChannelTrustedCallback is the gateway's server-to-server notification.
	ChannelTrustedCallback
)

func (c Channel) String() string {
	if c == ChannelTrustedCallback {
		return "callback"
	}
	return "return"
}

// ShippingAddress holds the shopper's shipping details forwarded to the gateway.
// All fields are optional; absent values degrade to empty strings in the
// outbound parameter set.
type ShippingAddress struct {
	Email             string `json:"email"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Address1          string `json:"address1"`
	Address2          string `json:"address2"`
	City              string `json:"city"`
	StateAbbreviation string `json:"state_abbreviation"`
	CountryCode       string `json:"country_code"` // two-letter ISO code
	PostalCode        string `json:"postal_code"`
}

// OrderNote is one entry in an order's append-only audit log.
type OrderNote struct {
	Note              string    `json:"note"`
	DisplayToCustomer bool      `json:"display_to_customer"`
	CreatedOn         time.Time `json:"created_on"`
}

// Order is the storefront core's order record as seen by this service.
// OrderGuid is the correlation key shared with the gateway: globally unique
// and unguessable, unlike the sequential ID.
type Order struct {
	ID              int64
	OrderGuid       uuid.UUID
	Total           decimal.Decimal
	PaymentStatus   PaymentStatus
	Notes           []OrderNote
	ShippingAddress *ShippingAddress
	CreatedOn       time.Time
}

// PaymentEvent is one notification instance from either channel. It is
// constructed on receipt, consumed by the reconciler, and discarded; the
// order record is the durable state.
type PaymentEvent struct {
	Channel          Channel
	Reference        string // declared order correlation key
	Result           string // declared gateway result code
	GatewayReference string // gateway-assigned transaction id
	Params           map[string]string
}

// RefundResult reports the outcome of a refund submission.
type RefundResult struct {
	NewStatus PaymentStatus
}
