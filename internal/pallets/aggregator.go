package pallets

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pactwine/pact-backend/internal/pricing"
	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/enums"
)

// Fill is the computed state of a pallet. It is derived on demand from
// active reservations and never persisted, so a reservation status
// change is reflected on the next read without any bookkeeping.
type Fill struct {
	// Bottles counts only bottles from producers that met their MOQ.
	Bottles int `json:"bottles"`
	// RawBottles counts every active bottle before MOQ filtering.
	RawBottles int `json:"raw_bottles"`
	// ProfitCentsExVAT sums (price ex VAT - landed cost) over eligible bottles.
	ProfitCentsExVAT int64 `json:"profit_cents_ex_vat"`
	// SkippedLines counts reservation lines dropped for missing catalog data.
	SkippedLines int           `json:"skipped_lines"`
	Producers    []Eligibility `json:"producers"`
}

type producerAccumulator struct {
	tally  ProducerTally
	profit int64
}

// ComputeFill aggregates the pallet's active reservations into a fill.
// Lines referencing wines or producers missing from the lookup maps are
// skipped and counted rather than failing the whole computation; one
// bad line must not blind the reconciler to an otherwise full pallet.
// rates maps cost currencies to the local settlement currency for wines
// without a stored rate; an absent entry values the line at rate 1.
func ComputeFill(reservations []models.Reservation, wines map[uuid.UUID]models.Wine, producers map[uuid.UUID]models.Producer, rates map[enums.Currency]decimal.Decimal) Fill {
	var fill Fill
	var order []uuid.UUID
	accumulators := map[uuid.UUID]*producerAccumulator{}

	for _, reservation := range reservations {
		if !reservation.Status.IsActive() {
			continue
		}
		for _, item := range reservation.Items {
			qty := item.EffectiveQty()
			if qty <= 0 {
				continue
			}
			wine, ok := wines[item.WineID]
			if !ok {
				fill.SkippedLines++
				continue
			}
			producer, ok := producers[wine.ProducerID]
			if !ok {
				fill.SkippedLines++
				continue
			}

			acc, ok := accumulators[producer.ID]
			if !ok {
				acc = &producerAccumulator{tally: ProducerTally{
					ProducerID: producer.ID,
					MOQBottles: producer.MOQBottles,
				}}
				accumulators[producer.ID] = acc
				order = append(order, producer.ID)
			}
			acc.tally.Bottles += qty
			acc.profit += perBottleProfitCents(wine, rates) * int64(qty)
		}
	}

	tallies := make([]ProducerTally, 0, len(order))
	for _, id := range order {
		tallies = append(tallies, accumulators[id].tally)
	}
	fill.Producers = FilterMOQ(tallies)

	for _, eligibility := range fill.Producers {
		fill.RawBottles += eligibility.Bottles
		if eligibility.Met {
			fill.Bottles += eligibility.EligibleBottles
			fill.ProfitCentsExVAT += accumulators[eligibility.ProducerID].profit
		}
	}
	return fill
}

// perBottleProfitCents is the ex-VAT consumer price minus the landed
// cost: purchase cost converted to local currency plus alcohol tax.
// Alcohol tax is a pass-through, never profit. A stored rate on the
// wine wins; live-rate wines use the resolved rates map.
func perBottleProfitCents(wine models.Wine, rates map[enums.Currency]decimal.Decimal) int64 {
	rate := decimal.NewFromInt(1)
	if wine.ExchangeRate != nil {
		rate = *wine.ExchangeRate
	} else if resolved, ok := rates[wine.CostCurrency]; ok && resolved.IsPositive() {
		rate = resolved
	}
	costCents := wine.CostAmount.Mul(rate).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	costCents += wine.AlcoholTaxCents
	return pricing.ExVATCents(wine.PriceCents, wine.PriceIncludesVAT) - costCents
}

// Stats converts a fill into the shape the completion rule interpreter
// consumes.
func (f Fill) Stats() RuleStats {
	return RuleStats{Bottles: f.Bottles, ProfitCentsExVAT: f.ProfitCentsExVAT}
}
