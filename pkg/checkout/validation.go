package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
)

// DefaultBottleMultiple is the carton size wine ships in. Producers pack
// in cartons of six, so every producer's share of a cart must land on a
// multiple of six bottles.
const DefaultBottleMultiple = 6

// BottleRuleInput describes one cart line for bottle-multiple validation.
// ProducerGroupID is nil for producers that do not pool cartons; lines
// from producers sharing a group are counted together.
type BottleRuleInput struct {
	WineID          uuid.UUID
	ProducerID      uuid.UUID
	ProducerGroupID *uuid.UUID
	ProducerName    string
	Quantity        int
}

// ProducerValidation exposes the per-producer (or per-group) outcome of
// the bottle-multiple check. Required is the nearest multiple at or
// above the actual count.
type ProducerValidation struct {
	ProducerOrGroupID uuid.UUID `json:"producer_or_group_id"`
	ProducerName      string    `json:"producer_name,omitempty"`
	IsGroup           bool      `json:"is_group"`
	RequiredQty       int       `json:"required_qty"`
	ActualQty         int       `json:"actual_qty"`
	IsValid           bool      `json:"is_valid"`
}

// ValidateBottleMultiple ensures every producer's pooled bottle count is
// a non-negative multiple of the carton size; zero bottles qualifies.
// Producers in the same group satisfy the rule jointly. Callers pass
// multiple <= 0 to get the default carton size.
func ValidateBottleMultiple(items []BottleRuleInput, multiple int) ([]ProducerValidation, error) {
	if multiple <= 0 {
		multiple = DefaultBottleMultiple
	}

	type bucket struct {
		key     uuid.UUID
		name    string
		isGroup bool
		actual  int
	}
	var order []uuid.UUID
	buckets := make(map[uuid.UUID]*bucket)
	for _, item := range items {
		if item.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "bottle quantity must not be negative").WithDetails(map[string]any{
				"wine_id": item.WineID,
			})
		}
		key := item.ProducerID
		isGroup := false
		if item.ProducerGroupID != nil {
			key = *item.ProducerGroupID
			isGroup = true
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{key: key, name: item.ProducerName, isGroup: isGroup}
			buckets[key] = b
			order = append(order, key)
		}
		b.actual += item.Quantity
	}

	validations := make([]ProducerValidation, 0, len(order))
	violations := 0
	for _, key := range order {
		b := buckets[key]
		required := b.actual
		if rem := b.actual % multiple; rem != 0 {
			required = b.actual + multiple - rem
		}
		// zero bottles is a multiple of the carton size; an all-zero
		// bucket is trivially satisfied
		valid := b.actual%multiple == 0
		if !valid {
			violations++
		}
		validations = append(validations, ProducerValidation{
			ProducerOrGroupID: b.key,
			ProducerName:      b.name,
			IsGroup:           b.isGroup,
			RequiredQty:       required,
			ActualQty:         b.actual,
			IsValid:           valid,
		})
	}

	if violations == 0 {
		return validations, nil
	}
	return validations, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("bottle counts must be multiples of %d for %d producer(s)", multiple, violations)).WithDetails(map[string]any{
		"producer_validations": validations,
	})
}
