package oxipay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopstack/oxipay-payments/internal/domain"
)

// RefundNoteMarker prefixes the audit note that records the gateway's
// purchase reference at payment time. Refunds recover the reference by
// stripping this prefix.
const RefundNoteMarker = "Oxipay order ID: "

// PurchaseNumberFromNotes recovers the gateway purchase reference from an
// order's audit log. Exactly one note is expected to carry the marker; zero
// or multiple matches are surfaced as explicit errors rather than guessed.
func PurchaseNumberFromNotes(notes []domain.OrderNote) (string, error) {
	var matches []string
	for _, n := range notes {
		if strings.Contains(n.Note, RefundNoteMarker) {
			matches = append(matches, strings.TrimSpace(strings.Replace(n.Note, RefundNoteMarker, "", 1)))
		}
	}
	switch len(matches) {
	case 0:
		return "", domain.ErrRefundReferenceNotFound
	case 1:
		return matches[0], nil
	default:
		return "", domain.ErrRefundReferenceAmbiguous
	}
}

// BuildRefundParams assembles the signable refund parameter set. The amount
// is rounded to two decimals and embedded, with the purchase reference,
// in the human-readable reason.
func BuildRefundParams(merchantID, purchaseNumber string, amount decimal.Decimal) map[string]string {
	rounded := amount.Round(2).StringFixed(2)
	return map[string]string{
		"x_merchant_number": merchantID,
		"x_purchase_number": purchaseNumber,
		"x_amount":          rounded,
		"x_reason":          "Refund " + purchaseNumber + ":" + rounded,
	}
}

// RefundSender submits signed refund requests to the gateway.
type RefundSender struct {
	client    *http.Client
	refundURL string
}

// NewRefundSender creates a RefundSender against the given refund endpoint.
func NewRefundSender(refundURL string, timeout time.Duration) *RefundSender {
	return &RefundSender{
		client:    &http.Client{Timeout: timeout},
		refundURL: refundURL,
	}
}

// Send signs the refund parameters and POSTs them as JSON. Unlike checkout,
// the digest travels in a bare "signature" field; the refund API expects
// that name and the two must not be unified.
//
// A 204 No Content response is success; any other status is ErrRefundFailed.
// Transport failures are surfaced to the caller and never retried here.
func (s *RefundSender) Send(ctx context.Context, params map[string]string, secret []byte) error {
	signature, err := Sign(params, secret)
	if err != nil {
		return err
	}

	body := make(map[string]string, len(params)+1)
	for k, v := range params {
		body[k] = v
	}
	body["signature"] = signature

	jsonBody, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal refund request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.refundURL, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create refund request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("refund request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return domain.ErrRefundFailed
	}
	return nil
}
