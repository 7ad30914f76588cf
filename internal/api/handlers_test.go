package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopstack/oxipay-payments/internal/domain"
	"github.com/shopstack/oxipay-payments/internal/oxipay"
	"github.com/shopstack/oxipay-payments/internal/payment"
)

var orderGuid = uuid.MustParse("6fe95d9c-c9ba-4dfc-9c72-54e1f48ae857")

type stubRepo struct {
	order *domain.Order
	notes int
}

func (s *stubRepo) GetOrderByGuid(ctx context.Context, guid uuid.UUID) (*domain.Order, error) {
	if s.order == nil || s.order.OrderGuid != guid {
		return nil, domain.ErrOrderNotFound
	}
	return s.order, nil
}

func (s *stubRepo) GetMostRecentOrder(ctx context.Context, customerID int64) (*domain.Order, error) {
	if s.order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return s.order, nil
}

func (s *stubRepo) AddOrderNote(ctx context.Context, orderID int64, note domain.OrderNote) error {
	s.notes++
	return nil
}

func (s *stubRepo) SaveOrderAttribute(ctx context.Context, orderID int64, key, value string) error {
	return nil
}

func (s *stubRepo) GetOrderAttribute(ctx context.Context, orderID int64, key string) (string, error) {
	return "", nil
}

type stubProcessor struct{ marked int }

func (s *stubProcessor) CanMarkOrderAsPaid(ctx context.Context, o *domain.Order) (bool, error) {
	return true, nil
}
func (s *stubProcessor) MarkOrderAsPaid(ctx context.Context, o *domain.Order) error {
	s.marked++
	return nil
}
func (s *stubProcessor) CanVoidOffline(ctx context.Context, o *domain.Order) (bool, error) {
	return false, nil
}
func (s *stubProcessor) VoidOffline(ctx context.Context, o *domain.Order) error { return nil }
func (s *stubProcessor) CanCancelOrder(ctx context.Context, o *domain.Order) (bool, error) {
	return true, nil
}
func (s *stubProcessor) CancelOrder(ctx context.Context, o *domain.Order) error { return nil }

type stubVerifier struct{ accepted bool }

func (s *stubVerifier) Verify(ctx context.Context, raw []byte, ua string) (bool, map[string]string) {
	return s.accepted, oxipay.ParseCallbackBody(raw)
}

type stubRefunder struct{ err error }

func (s *stubRefunder) Send(ctx context.Context, params map[string]string, secret []byte) error {
	return s.err
}

func newTestRouter(repo *stubRepo, proc *stubProcessor, verifier *stubVerifier, refunder *stubRefunder) *gin.Engine {
	svc := payment.NewService(repo, proc, verifier, refunder, payment.Config{
		Merchant: oxipay.MerchantConfig{
			MerchantID:    "Merchant123",
			EncryptionKey: "test-secret",
			Sandbox:       true,
			Region:        oxipay.RegionAU,
			StoreBaseURL:  "https://shop.example.com",
			ShopName:      "Example Shop",
			CurrencyCode:  "AUD",
		},
		OnlineRefunds: true,
	}, zerolog.Nop())
	handler := NewHandler(svc, repo, "https://shop.example.com", zerolog.Nop())
	return SetupRouter(handler, gin.TestMode)
}

func pendingOrder() *domain.Order {
	return &domain.Order{
		ID:        42,
		OrderGuid: orderGuid,
		Total:     decimal.RequireFromString("50.00"),
		Notes:     []domain.OrderNote{{Note: "Oxipay order ID: PR-77"}},
	}
}

func TestCallbackAlwaysRespondsEmptyOK(t *testing.T) {
	router := newTestRouter(&stubRepo{}, &stubProcessor{}, &stubVerifier{accepted: false}, &stubRefunder{})

	// rejected verification, unknown order, garbage body: all still 200 + empty
	for _, body := range []string{
		"x_reference=" + orderGuid.String() + "&x_result=completed",
		"x_reference=not-a-guid&x_result=completed",
		"garbage",
		"",
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/plugins/oxipay/callback", strings.NewReader(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "", w.Body.String())
	}
}

func TestCallbackVerifiedMarksPaid(t *testing.T) {
	repo := &stubRepo{order: pendingOrder()}
	proc := &stubProcessor{}
	router := newTestRouter(repo, proc, &stubVerifier{accepted: true}, &stubRefunder{})

	body := "x_reference=" + orderGuid.String() + "&x_result=completed&x_gateway_reference=ABC123"
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/plugins/oxipay/callback", strings.NewReader(body))
	req.Header.Set("User-Agent", "oxipay-gateway/1.0")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, proc.marked)
}

func TestSuccessRedirectsHomeWhenOrderUnknown(t *testing.T) {
	router := newTestRouter(&stubRepo{}, &stubProcessor{}, &stubVerifier{}, &stubRefunder{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/plugins/oxipay/success?x_reference=not-a-guid&x_result=completed", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://shop.example.com/", w.Header().Get("Location"))
}

func TestSuccessRedirectsToCheckoutCompleted(t *testing.T) {
	repo := &stubRepo{order: pendingOrder()}
	router := newTestRouter(repo, &stubProcessor{}, &stubVerifier{}, &stubRefunder{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/plugins/oxipay/success?x_reference="+orderGuid.String()+"&x_result=completed&x_gateway_reference=TX9", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://shop.example.com/checkout/completed/42", w.Header().Get("Location"))
}

func TestCreateCheckout(t *testing.T) {
	repo := &stubRepo{order: pendingOrder()}
	router := newTestRouter(repo, &stubProcessor{}, &stubVerifier{}, &stubRefunder{})

	body := `{"order_guid":"` + orderGuid.String() + `"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "securesandbox.oxipay.com.au")
	assert.Contains(t, w.Body.String(), "x_signature")
}

func TestCreateCheckoutValidation(t *testing.T) {
	router := newTestRouter(&stubRepo{}, &stubProcessor{}, &stubVerifier{}, &stubRefunder{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", bytes.NewBufferString(`{"order_guid":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefundEndpoint(t *testing.T) {
	repo := &stubRepo{order: pendingOrder()}
	router := newTestRouter(repo, &stubProcessor{}, &stubVerifier{}, &stubRefunder{})

	body := `{"order_guid":"` + orderGuid.String() + `","amount":"50.00"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/refund", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"new_status":"refunded"`)
}

func TestRefundEndpointMissingReference(t *testing.T) {
	order := pendingOrder()
	order.Notes = nil
	repo := &stubRepo{order: order}
	router := newTestRouter(repo, &stubProcessor{}, &stubVerifier{}, &stubRefunder{})

	body := `{"order_guid":"` + orderGuid.String() + `","amount":"50.00"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/refund", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCancelRedirects(t *testing.T) {
	repo := &stubRepo{order: pendingOrder()}
	router := newTestRouter(repo, &stubProcessor{}, &stubVerifier{}, &stubRefunder{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/plugins/oxipay/cancel", nil)
	req.Header.Set("X-Customer-ID", "7")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://shop.example.com/order/details/42", w.Header().Get("Location"))
}

func TestCancelWithoutCustomerRedirectsHome(t *testing.T) {
	router := newTestRouter(&stubRepo{}, &stubProcessor{}, &stubVerifier{}, &stubRefunder{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/plugins/oxipay/cancel", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://shop.example.com/", w.Header().Get("Location"))
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&stubRepo{}, &stubProcessor{}, &stubVerifier{}, &stubRefunder{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
