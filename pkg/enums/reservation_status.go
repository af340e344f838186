package enums

import "fmt"

// ReservationStatus tracks a reservation from checkout to settlement.
type ReservationStatus string

const (
	ReservationStatusPendingPayment ReservationStatus = "pending_payment"
	ReservationStatusPlaced         ReservationStatus = "placed"
	ReservationStatusApproved       ReservationStatus = "approved"
	ReservationStatusPartlyApproved ReservationStatus = "partly_approved"
	ReservationStatusConfirmed      ReservationStatus = "confirmed"
	ReservationStatusDeclined       ReservationStatus = "declined"
	ReservationStatusRejected       ReservationStatus = "rejected"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusPendingPayment,
	ReservationStatusPlaced,
	ReservationStatusApproved,
	ReservationStatusPartlyApproved,
	ReservationStatusConfirmed,
	ReservationStatusDeclined,
	ReservationStatusRejected,
}

// ActiveReservationStatuses lists the statuses whose items count toward
// pallet fill. Declined and rejected reservations never contribute.
var ActiveReservationStatuses = []ReservationStatus{
	ReservationStatusPendingPayment,
	ReservationStatusPlaced,
	ReservationStatusApproved,
	ReservationStatusPartlyApproved,
	ReservationStatusConfirmed,
}

// String implements fmt.Stringer.
func (s ReservationStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is recognized.
func (s ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsActive reports whether items under this status count toward pallet fill.
func (s ReservationStatus) IsActive() bool {
	for _, candidate := range ActiveReservationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the reservation can no longer change state.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusConfirmed || s == ReservationStatusDeclined || s == ReservationStatusRejected
}

// ParseReservationStatus converts a raw string into a ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	candidate := ReservationStatus(value)
	if !candidate.IsValid() {
		return "", fmt.Errorf("invalid reservation status %q", value)
	}
	return candidate, nil
}
