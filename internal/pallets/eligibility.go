package pallets

import "github.com/google/uuid"

// ProducerTally is a producer's pooled bottle count on one pallet.
type ProducerTally struct {
	ProducerID uuid.UUID
	MOQBottles int
	Bottles    int
}

// Eligibility is the MOQ outcome for one producer on one pallet. A
// producer below its minimum contributes zero bottles; MOQ is
// all-or-nothing, never partial.
type Eligibility struct {
	ProducerID      uuid.UUID `json:"producer_id"`
	MOQBottles      int       `json:"moq_bottles"`
	Bottles         int       `json:"bottles"`
	EligibleBottles int       `json:"eligible_bottles"`
	Met             bool      `json:"met"`
}

// FilterMOQ applies each producer's minimum order quantity to its pooled
// bottle count. The input order is preserved in the result.
func FilterMOQ(tallies []ProducerTally) []Eligibility {
	out := make([]Eligibility, 0, len(tallies))
	for _, tally := range tallies {
		met := tally.MOQBottles <= 0 || tally.Bottles >= tally.MOQBottles
		eligible := 0
		if met {
			eligible = tally.Bottles
		}
		out = append(out, Eligibility{
			ProducerID:      tally.ProducerID,
			MOQBottles:      tally.MOQBottles,
			Bottles:         tally.Bottles,
			EligibleBottles: eligible,
			Met:             met,
		})
	}
	return out
}
