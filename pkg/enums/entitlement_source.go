package enums

import "fmt"

// EntitlementSource records how a user came to own a content item.
type EntitlementSource string

const (
	EntitlementSourceFree     EntitlementSource = "free"
	EntitlementSourcePurchase EntitlementSource = "purchase"
	EntitlementSourceGift     EntitlementSource = "gift"
)

var validEntitlementSources = []EntitlementSource{
	EntitlementSourceFree,
	EntitlementSourcePurchase,
	EntitlementSourceGift,
}

// String returns the literal string for the source.
func (e EntitlementSource) String() string {
	return string(e)
}

// IsValid reports whether the source is known.
func (e EntitlementSource) IsValid() bool {
	for _, candidate := range validEntitlementSources {
		if candidate == e {
			return true
		}
	}
	return false
}

// RequiresPaymentReference reports whether the source must carry a
// payment reference.
func (e EntitlementSource) RequiresPaymentReference() bool {
	return e == EntitlementSourcePurchase
}

// ParseEntitlementSource converts raw input into an EntitlementSource.
func ParseEntitlementSource(value string) (EntitlementSource, error) {
	for _, candidate := range validEntitlementSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entitlement source %q", value)
}
