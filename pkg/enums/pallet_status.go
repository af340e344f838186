package enums

import "fmt"

// PalletStatus tracks a pallet through its consolidation lifecycle.
// Transitions are monotonic; there are no back-transitions.
type PalletStatus string

const (
	PalletStatusOpen          PalletStatus = "open"
	PalletStatusConsolidating PalletStatus = "consolidating"
	PalletStatusShipped       PalletStatus = "shipped"
	PalletStatusDelivered     PalletStatus = "delivered"
)

var palletStatusOrder = map[PalletStatus]int{
	PalletStatusOpen:          0,
	PalletStatusConsolidating: 1,
	PalletStatusShipped:       2,
	PalletStatusDelivered:     3,
}

// String implements fmt.Stringer.
func (s PalletStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is recognized.
func (s PalletStatus) IsValid() bool {
	_, ok := palletStatusOrder[s]
	return ok
}

// CanTransitionTo reports whether moving to next respects monotonic ordering.
func (s PalletStatus) CanTransitionTo(next PalletStatus) bool {
	from, ok := palletStatusOrder[s]
	if !ok {
		return false
	}
	to, ok := palletStatusOrder[next]
	if !ok {
		return false
	}
	return to > from
}

// ParsePalletStatus converts a raw string into a PalletStatus.
func ParsePalletStatus(value string) (PalletStatus, error) {
	candidate := PalletStatus(value)
	if !candidate.IsValid() {
		return "", fmt.Errorf("invalid pallet status %q", value)
	}
	return candidate, nil
}
