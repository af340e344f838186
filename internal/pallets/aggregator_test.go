package pallets

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/enums"
)

func TestFilterMOQAllOrNothing(t *testing.T) {
	t.Parallel()

	short := ProducerTally{ProducerID: uuid.New(), MOQBottles: 6, Bottles: 5}
	exact := ProducerTally{ProducerID: uuid.New(), MOQBottles: 6, Bottles: 6}
	none := ProducerTally{ProducerID: uuid.New(), MOQBottles: 0, Bottles: 3}

	results := FilterMOQ([]ProducerTally{short, exact, none})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Met || results[0].EligibleBottles != 0 {
		t.Fatalf("5 of 6 must contribute nothing, got %+v", results[0])
	}
	if !results[1].Met || results[1].EligibleBottles != 6 {
		t.Fatalf("6 of 6 must contribute fully, got %+v", results[1])
	}
	if !results[2].Met || results[2].EligibleBottles != 3 {
		t.Fatalf("zero MOQ always counts, got %+v", results[2])
	}
}

func rateOf(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func testWine(producerID uuid.UUID, priceCents int64) models.Wine {
	return models.Wine{
		ID:               uuid.New(),
		ProducerID:       producerID,
		CostAmount:       decimal.RequireFromString("7.00"),
		ExchangeRate:     rateOf("11.25"),
		AlcoholTaxCents:  2219,
		PriceIncludesVAT: true,
		PriceCents:       priceCents,
	}
}

func activeReservation(items ...models.ReservationItem) models.Reservation {
	return models.Reservation{
		ID:     uuid.New(),
		Status: enums.ReservationStatusPlaced,
		Items:  items,
	}
}

func TestComputeFillProfitAndBottles(t *testing.T) {
	t.Parallel()

	producer := models.Producer{ID: uuid.New(), MOQBottles: 6}
	wine := testWine(producer.ID, 12457)

	reservations := []models.Reservation{
		activeReservation(models.ReservationItem{WineID: wine.ID, RequestedQty: 6}),
	}
	fill := ComputeFill(
		reservations,
		map[uuid.UUID]models.Wine{wine.ID: wine},
		map[uuid.UUID]models.Producer{producer.ID: producer},
		nil,
	)

	if fill.Bottles != 6 || fill.RawBottles != 6 {
		t.Fatalf("expected 6 bottles, got %+v", fill)
	}
	// price ex VAT 9966; landed cost 7875 + 2219 = 10094; loss of 128/bottle
	want := int64((9966 - 10094) * 6)
	if fill.ProfitCentsExVAT != want {
		t.Fatalf("expected profit %d, got %d", want, fill.ProfitCentsExVAT)
	}
}

func TestComputeFillExcludesSubMOQProducers(t *testing.T) {
	t.Parallel()

	metProducer := models.Producer{ID: uuid.New(), MOQBottles: 6}
	shortProducer := models.Producer{ID: uuid.New(), MOQBottles: 12}
	metWine := testWine(metProducer.ID, 12457)
	shortWine := testWine(shortProducer.ID, 12457)

	reservations := []models.Reservation{
		activeReservation(
			models.ReservationItem{WineID: metWine.ID, RequestedQty: 6},
			models.ReservationItem{WineID: shortWine.ID, RequestedQty: 6},
		),
	}
	fill := ComputeFill(
		reservations,
		map[uuid.UUID]models.Wine{metWine.ID: metWine, shortWine.ID: shortWine},
		map[uuid.UUID]models.Producer{metProducer.ID: metProducer, shortProducer.ID: shortProducer},
		nil,
	)

	if fill.Bottles != 6 {
		t.Fatalf("expected only MOQ-met bottles, got %d", fill.Bottles)
	}
	if fill.RawBottles != 12 {
		t.Fatalf("expected 12 raw bottles, got %d", fill.RawBottles)
	}
}

func TestComputeFillIgnoresInactiveReservations(t *testing.T) {
	t.Parallel()

	producer := models.Producer{ID: uuid.New()}
	wine := testWine(producer.ID, 12457)

	declined := activeReservation(models.ReservationItem{WineID: wine.ID, RequestedQty: 6})
	declined.Status = enums.ReservationStatusDeclined

	fill := ComputeFill(
		[]models.Reservation{declined},
		map[uuid.UUID]models.Wine{wine.ID: wine},
		map[uuid.UUID]models.Producer{producer.ID: producer},
		nil,
	)
	if fill.RawBottles != 0 {
		t.Fatalf("declined reservations must not count, got %+v", fill)
	}
}

func TestComputeFillUsesApprovedQuantity(t *testing.T) {
	t.Parallel()

	producer := models.Producer{ID: uuid.New()}
	wine := testWine(producer.ID, 12457)
	approved := 6

	reservations := []models.Reservation{
		activeReservation(models.ReservationItem{WineID: wine.ID, RequestedQty: 12, ApprovedQty: &approved}),
	}
	fill := ComputeFill(
		reservations,
		map[uuid.UUID]models.Wine{wine.ID: wine},
		map[uuid.UUID]models.Producer{producer.ID: producer},
		nil,
	)
	if fill.RawBottles != 6 {
		t.Fatalf("approved quantity must override requested, got %d", fill.RawBottles)
	}
}

func TestComputeFillSkipsLinesWithMissingData(t *testing.T) {
	t.Parallel()

	producer := models.Producer{ID: uuid.New()}
	known := testWine(producer.ID, 12457)

	items := make([]models.ReservationItem, 0, 10)
	for i := 0; i < 9; i++ {
		items = append(items, models.ReservationItem{WineID: known.ID, RequestedQty: 1})
	}
	items = append(items, models.ReservationItem{WineID: uuid.New(), RequestedQty: 1})

	fill := ComputeFill(
		[]models.Reservation{activeReservation(items...)},
		map[uuid.UUID]models.Wine{known.ID: known},
		map[uuid.UUID]models.Producer{producer.ID: producer},
		nil,
	)
	if fill.RawBottles != 9 {
		t.Fatalf("expected the 9 resolvable lines to count, got %d", fill.RawBottles)
	}
	if fill.SkippedLines != 1 {
		t.Fatalf("expected 1 skipped line, got %d", fill.SkippedLines)
	}
}

func TestComputeFillValuesLiveRateWinesAtResolvedRate(t *testing.T) {
	t.Parallel()

	producer := models.Producer{ID: uuid.New(), MOQBottles: 6}
	liveWine := testWine(producer.ID, 12457)
	liveWine.ExchangeRate = nil
	liveWine.CostCurrency = enums.CurrencyEUR

	reservations := []models.Reservation{
		activeReservation(models.ReservationItem{WineID: liveWine.ID, RequestedQty: 6}),
	}
	wines := map[uuid.UUID]models.Wine{liveWine.ID: liveWine}
	producers := map[uuid.UUID]models.Producer{producer.ID: producer}

	fill := ComputeFill(reservations, wines, producers, map[enums.Currency]decimal.Decimal{
		enums.CurrencyEUR: decimal.RequireFromString("11.25"),
	})
	// identical economics to the stored-rate wine: loss of 128/bottle
	if want := int64(-768); fill.ProfitCentsExVAT != want {
		t.Fatalf("expected resolved-rate profit %d, got %d", want, fill.ProfitCentsExVAT)
	}

	// no resolved rate for the currency degrades to rate 1
	fill = ComputeFill(reservations, wines, producers, nil)
	if want := int64((9966 - (700 + 2219)) * 6); fill.ProfitCentsExVAT != want {
		t.Fatalf("expected rate-1 profit %d, got %d", want, fill.ProfitCentsExVAT)
	}
}
