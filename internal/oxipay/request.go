package oxipay

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shopstack/oxipay-payments/internal/domain"
)

// OrderTotalSentAttribute is the order attribute key under which the total
// actually sent to Oxipay is stored, for later mismatch detection on return.
const OrderTotalSentAttribute = "OrderTotalSentToOxipay"

// MerchantConfig is the read-only merchant configuration passed explicitly
// into every protocol operation. Nothing in this package reaches into
// ambient process state.
type MerchantConfig struct {
	MerchantID    string
	EncryptionKey string
	Sandbox       bool
	Region        Region
	StoreBaseURL  string // storefront's public base URL, used for return URLs
	ShopName      string
	CurrencyCode  string
}

// CheckoutPayload is the signed browser-redirect payload for one order.
type CheckoutPayload struct {
	RedirectURL  string
	Params       map[string]string
	RoundedTotal decimal.Decimal
}

// BuildCheckoutPayload assembles and signs the payment-initiation parameter
// set for an order. Missing merchant id or encryption key is a configuration
// error; all order and address fields degrade to empty strings when absent.
func BuildCheckoutPayload(order *domain.Order, cfg MerchantConfig) (*CheckoutPayload, error) {
	if cfg.MerchantID == "" || cfg.EncryptionKey == "" {
		return nil, domain.ErrMissingMerchantConfig
	}

	base := strings.TrimSuffix(cfg.StoreBaseURL, "/")
	addr := order.ShippingAddress
	if addr == nil {
		addr = &domain.ShippingAddress{}
	}

	test := "false"
	if cfg.Sandbox {
		test = "true"
	}

	rounded := order.Total.Round(2)

	params := map[string]string{
		"x_account_id": cfg.MerchantID,
		"x_currency":   cfg.CurrencyCode,

		// The GUID, never the sequential order id: the reference must be
		// unguessable and independently resolvable on return.
		"x_reference": order.OrderGuid.String(),

		"x_shop_country": addr.CountryCode,
		"x_shop_name":    cfg.ShopName,

		"x_url_callback": base + "/plugins/oxipay/callback",
		"x_url_complete": base + "/plugins/oxipay/success",
		"x_url_cancel":   base + "/plugins/oxipay/cancel",

		"x_test": test,

		"x_customer_email":             addr.Email,
		"x_customer_first_name":        addr.FirstName,
		"x_customer_last_name":         addr.LastName,
		"x_customer_shipping_address1": addr.Address1,
		"x_customer_shipping_address2": addr.Address2,
		"x_customer_shipping_city":     addr.City,
		"x_customer_shipping_state":    addr.StateAbbreviation,
		"x_customer_shipping_country":  addr.CountryCode,
		"x_customer_shipping_postcode": addr.PostalCode,

		"x_amount": rounded.StringFixed(2),
	}

	signature, err := Sign(params, []byte(cfg.EncryptionKey))
	if err != nil {
		return nil, err
	}
	params[SignatureField] = signature

	return &CheckoutPayload{
		RedirectURL:  CheckoutURL(cfg.Sandbox, cfg.Region),
		Params:       params,
		RoundedTotal: rounded,
	}, nil
}
