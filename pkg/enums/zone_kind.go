package enums

import "fmt"

// ZoneKind distinguishes producer pickup regions from customer delivery regions.
type ZoneKind string

const (
	ZoneKindPickup   ZoneKind = "pickup"
	ZoneKindDelivery ZoneKind = "delivery"
)

// String implements fmt.Stringer.
func (k ZoneKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is recognized.
func (k ZoneKind) IsValid() bool {
	return k == ZoneKindPickup || k == ZoneKindDelivery
}

// ParseZoneKind converts a raw string into a ZoneKind.
func ParseZoneKind(value string) (ZoneKind, error) {
	candidate := ZoneKind(value)
	if !candidate.IsValid() {
		return "", fmt.Errorf("invalid zone kind %q", value)
	}
	return candidate, nil
}
