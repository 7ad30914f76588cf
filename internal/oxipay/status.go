package oxipay

import (
	"strings"

	"github.com/shopstack/oxipay-payments/internal/domain"
)

// resultStatus is the closed mapping from gateway result codes to payment
// statuses. Codes outside this table never advance an order's state.
var resultStatus = map[string]domain.PaymentStatus{
	"pending":   domain.PaymentStatusPending,
	"completed": domain.PaymentStatusPaid,
	"declined":  domain.PaymentStatusVoided,
	"failed":    domain.PaymentStatusVoided,
	"refunded":  domain.PaymentStatusRefunded,
	"reversed":  domain.PaymentStatusRefunded,
}

// StatusForResult maps a gateway result code (case-insensitive) to the
// target payment status. Unrecognized codes map to pending, which the
// reconciler treats as a no-op.
func StatusForResult(code string) domain.PaymentStatus {
	if status, ok := resultStatus[strings.ToLower(strings.TrimSpace(code))]; ok {
		return status
	}
	return domain.PaymentStatusPending
}
