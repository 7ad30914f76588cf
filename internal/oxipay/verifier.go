package oxipay

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ConfirmationToken is the body the gateway echoes back for a genuine callback.
const ConfirmationToken = "VERIFIED"

// Verifier re-submits a claimed callback to the gateway and accepts it only
// if the gateway confirms it really sent the notification. The callback
// endpoint is reachable by anyone on the internet; this round-trip defeats
// spoofed notifications.
type Verifier struct {
	client      *http.Client
	checkoutURL string
	log         zerolog.Logger
}

// NewVerifier creates a Verifier against the given checkout endpoint.
// The timeout bounds the whole re-verification call; expiry rejects.
func NewVerifier(checkoutURL string, timeout time.Duration, log zerolog.Logger) *Verifier {
	return &Verifier{
		client:      &http.Client{Timeout: timeout},
		checkoutURL: checkoutURL,
		log:         log,
	}
}

// ParseCallbackBody splits a raw callback body into key/value pairs.
// Pairs are "&"-joined and split on the first "=" only; values are not
// URL-decoded here, since re-verification submits them as received.
// Keys are lowercased for case-insensitive lookup.
func ParseCallbackBody(raw []byte) map[string]string {
	values := make(map[string]string)
	for _, pair := range strings.Split(string(raw), "&") {
		pair = strings.TrimSpace(pair)
		if eq := strings.Index(pair, "="); eq >= 0 {
			values[strings.ToLower(pair[:eq])] = pair[eq+1:]
		}
	}
	return values
}

// Verify parses rawBody and asks the gateway whether it sent the
// notification. Only the order reference and result code are echoed back;
// the gateway is being asked "did you really send this?", not to re-validate
// the payload. The shopper-facing user agent is propagated because the
// gateway rejects agentless requests.
//
// Any transport failure, non-2xx status or token mismatch rejects the
// callback: fail closed.
func (v *Verifier) Verify(ctx context.Context, rawBody []byte, userAgent string) (bool, map[string]string) {
	values := ParseCallbackBody(rawBody)

	form := "x_reference=" + values["x_reference"] + "&x_result=" + values["x_result"]

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.checkoutURL, strings.NewReader(form))
	if err != nil {
		return false, values
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.log.Warn().Err(err).Msg("callback re-verification request failed")
		return false, values
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		v.log.Warn().Int("status", resp.StatusCode).Msg("callback re-verification returned non-2xx")
		return false, values
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, values
	}

	decoded, err := url.QueryUnescape(string(body))
	if err != nil {
		decoded = string(body)
	}
	accepted := strings.EqualFold(strings.TrimSpace(decoded), ConfirmationToken)
	return accepted, values
}
