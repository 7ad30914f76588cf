package oxipay

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallbackBody(t *testing.T) {
	raw := []byte("x_reference=abc-123&x_result=completed&x_gateway_reference=tx=9&ignored")
	values := ParseCallbackBody(raw)

	assert.Equal(t, "abc-123", values["x_reference"])
	assert.Equal(t, "completed", values["x_result"])
	// split on first "=" only; the remainder is the raw value
	assert.Equal(t, "tx=9", values["x_gateway_reference"])
	// pairs without "=" are dropped
	_, ok := values["ignored"]
	assert.False(t, ok)
}

func TestParseCallbackBodyCaseInsensitiveKeys(t *testing.T) {
	values := ParseCallbackBody([]byte("X_Reference=abc&X_RESULT=completed"))
	assert.Equal(t, "abc", values["x_reference"])
	assert.Equal(t, "completed", values["x_result"])
}

func TestVerifyAcceptsConfirmationToken(t *testing.T) {
	var gotBody string
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("VERIFIED"))
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL, 2*time.Second, zerolog.Nop())
	raw := []byte("x_reference=abc&x_result=completed&x_gateway_reference=TX1&x_amount=50.00")
	accepted, values := v.Verify(context.Background(), raw, "test-agent/1.0")

	assert.True(t, accepted)
	assert.Equal(t, "TX1", values["x_gateway_reference"])
	// only the reference and result are echoed back, never the full set
	assert.Equal(t, "x_reference=abc&x_result=completed", gotBody)
	assert.Equal(t, "test-agent/1.0", gotUA)
}

func TestVerifyAcceptsEncodedAndPaddedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("  verified%0A"))
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL, 2*time.Second, zerolog.Nop())
	accepted, _ := v.Verify(context.Background(), []byte("x_reference=a&x_result=completed"), "")
	assert.True(t, accepted)
}

func TestVerifyRejectsNonMatchingResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("INVALID"))
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL, 2*time.Second, zerolog.Nop())
	accepted, _ := v.Verify(context.Background(), []byte("x_reference=a&x_result=completed"), "")
	assert.False(t, accepted)
}

func TestVerifyRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "VERIFIED", http.StatusForbidden)
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL, 2*time.Second, zerolog.Nop())
	accepted, _ := v.Verify(context.Background(), []byte("x_reference=a&x_result=completed"), "")
	assert.False(t, accepted)
}

func TestVerifyFailsClosedOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	v := NewVerifier(srv.URL, 2*time.Second, zerolog.Nop())
	accepted, values := v.Verify(context.Background(), []byte("x_reference=a&x_result=completed"), "")
	assert.False(t, accepted)
	// parsed fields are still returned for logging
	require.Equal(t, "a", values["x_reference"])
}

func TestVerifyFailsClosedOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("VERIFIED"))
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL, 20*time.Millisecond, zerolog.Nop())
	accepted, _ := v.Verify(context.Background(), []byte("x_reference=a&x_result=completed"), "")
	assert.False(t, accepted)
}
