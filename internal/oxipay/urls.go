package oxipay

import "strings"

// Region selects which Oxipay gateway to talk to.
type Region string

const (
	RegionAU Region = "AU"
	RegionNZ Region = "NZ"
)

// ParseRegion normalizes a configured region value. Unrecognized or unset
// values default to AU rather than failing, since the setting may be blank.
func ParseRegion(s string) Region {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NZ", "NEW ZEALAND":
		return RegionNZ
	default:
		return RegionAU
	}
}

func regionDomain(r Region) string {
	if r == RegionNZ {
		return ".oxipay.co.nz"
	}
	return ".oxipay.com.au"
}

// CheckoutURL returns the hosted checkout endpoint for the environment.
// The same endpoint serves as the re-verification target for callbacks.
func CheckoutURL(sandbox bool, r Region) string {
	domain := regionDomain(r)
	if sandbox {
		return "https://securesandbox" + domain + "/Checkout?platform=Default"
	}
	return "https://secure" + domain + "/Checkout?platform=Default"
}

// RefundURL returns the synchronous refund endpoint for the environment.
func RefundURL(sandbox bool, r Region) string {
	domain := regionDomain(r)
	if sandbox {
		return "https://portalssandbox" + domain + "/api/ExternalRefund/processrefund"
	}
	return "https://portals" + domain + "/api/ExternalRefund/processrefund"
}
