package oxipay

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopstack/oxipay-payments/internal/domain"
)

func testMerchantConfig() MerchantConfig {
	return MerchantConfig{
		MerchantID:    "Merchant123",
		EncryptionKey: "test-secret",
		Sandbox:       true,
		Region:        RegionAU,
		StoreBaseURL:  "https://shop.example.com/",
		ShopName:      "Example Shop",
		CurrencyCode:  "AUD",
	}
}

func testOrder(total string) *domain.Order {
	return &domain.Order{
		ID:        42,
		OrderGuid: uuid.MustParse("6fe95d9c-c9ba-4dfc-9c72-54e1f48ae857"),
		Total:     decimal.RequireFromString(total),
		ShippingAddress: &domain.ShippingAddress{
			Email:             "shopper@example.com",
			FirstName:         "Jo",
			LastName:          "Smith",
			Address1:          "1 Main St",
			City:              "Sydney",
			StateAbbreviation: "NSW",
			CountryCode:       "AU",
			PostalCode:        "2000",
		},
	}
}

func TestBuildCheckoutPayloadRoundsAndSigns(t *testing.T) {
	payload, err := BuildCheckoutPayload(testOrder("49.995"), testMerchantConfig())
	require.NoError(t, err)

	assert.Equal(t, "50.00", payload.Params["x_amount"])
	assert.Equal(t, "50.00", payload.RoundedTotal.StringFixed(2))

	sig := payload.Params[SignatureField]
	require.NotEmpty(t, sig)
	assert.True(t, VerifySignature(payload.Params, []byte("test-secret"), sig))
}

func TestBuildCheckoutPayloadFields(t *testing.T) {
	cfg := testMerchantConfig()
	payload, err := BuildCheckoutPayload(testOrder("10.00"), cfg)
	require.NoError(t, err)

	p := payload.Params
	assert.Equal(t, "Merchant123", p["x_account_id"])
	assert.Equal(t, "AUD", p["x_currency"])
	// reference is the GUID, never the sequential id
	assert.Equal(t, "6fe95d9c-c9ba-4dfc-9c72-54e1f48ae857", p["x_reference"])
	assert.NotContains(t, p["x_reference"], "42")
	assert.Equal(t, "Example Shop", p["x_shop_name"])
	assert.Equal(t, "AU", p["x_shop_country"])
	assert.Equal(t, "true", p["x_test"])
	assert.Equal(t, "https://shop.example.com/plugins/oxipay/callback", p["x_url_callback"])
	assert.Equal(t, "https://shop.example.com/plugins/oxipay/success", p["x_url_complete"])
	assert.Equal(t, "https://shop.example.com/plugins/oxipay/cancel", p["x_url_cancel"])
	assert.Equal(t, "shopper@example.com", p["x_customer_email"])
	assert.Equal(t, "NSW", p["x_customer_shipping_state"])

	assert.Equal(t, "https://securesandbox.oxipay.com.au/Checkout?platform=Default", payload.RedirectURL)
}

func TestBuildCheckoutPayloadProductionTestFlag(t *testing.T) {
	cfg := testMerchantConfig()
	cfg.Sandbox = false
	payload, err := BuildCheckoutPayload(testOrder("10.00"), cfg)
	require.NoError(t, err)
	assert.Equal(t, "false", payload.Params["x_test"])
	assert.Equal(t, "https://secure.oxipay.com.au/Checkout?platform=Default", payload.RedirectURL)
}

func TestBuildCheckoutPayloadDegradesMissingAddress(t *testing.T) {
	order := testOrder("10.00")
	order.ShippingAddress = nil

	payload, err := BuildCheckoutPayload(order, testMerchantConfig())
	require.NoError(t, err)

	assert.Equal(t, "", payload.Params["x_customer_email"])
	assert.Equal(t, "", payload.Params["x_shop_country"])
	assert.True(t, VerifySignature(payload.Params, []byte("test-secret"), payload.Params[SignatureField]))
}

func TestBuildCheckoutPayloadRequiresMerchantConfig(t *testing.T) {
	cfg := testMerchantConfig()
	cfg.MerchantID = ""
	_, err := BuildCheckoutPayload(testOrder("10.00"), cfg)
	assert.ErrorIs(t, err, domain.ErrMissingMerchantConfig)

	cfg = testMerchantConfig()
	cfg.EncryptionKey = ""
	_, err = BuildCheckoutPayload(testOrder("10.00"), cfg)
	assert.ErrorIs(t, err, domain.ErrMissingMerchantConfig)
}
