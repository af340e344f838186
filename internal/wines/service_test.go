package wines

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pactwine/pact-backend/pkg/config"
	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/enums"
	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
	"github.com/pactwine/pact-backend/pkg/logger"
)

type stubWineRepo struct {
	wines map[uuid.UUID]*models.Wine
}

func newStubWineRepo() *stubWineRepo {
	return &stubWineRepo{wines: map[uuid.UUID]*models.Wine{}}
}

func (s *stubWineRepo) Create(_ context.Context, wine *models.Wine) error {
	if wine.ID == uuid.Nil {
		wine.ID = uuid.New()
	}
	s.wines[wine.ID] = wine
	return nil
}

func (s *stubWineRepo) Update(_ context.Context, wine *models.Wine) error {
	s.wines[wine.ID] = wine
	return nil
}

func (s *stubWineRepo) ListByProducer(_ context.Context, producerID uuid.UUID) ([]models.Wine, error) {
	var rows []models.Wine
	for _, wine := range s.wines {
		if wine.ProducerID == producerID {
			rows = append(rows, *wine)
		}
	}
	return rows, nil
}

func (s *stubWineRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Wine, error) {
	wine, ok := s.wines[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wine not found")
	}
	copied := *wine
	return &copied, nil
}

type stubRates struct {
	rate decimal.Decimal
	err  error
}

func (s *stubRates) Rate(_ context.Context, _, _ enums.Currency) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Decimal{}, s.err
	}
	return s.rate, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})
}

func newTestService(t *testing.T, repo *stubWineRepo, rates *stubRates) Service {
	t.Helper()
	svc, err := NewService(repo, rates, config.FulfillmentConfig{LocalCurrency: "SEK"}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestCreateDerivesPriceCents(t *testing.T) {
	t.Parallel()

	repo := newStubWineRepo()
	svc := newTestService(t, repo, &stubRates{rate: decimal.RequireFromString("11.25")})

	wine, err := svc.Create(context.Background(), CreateWineInput{
		ProducerID:       uuid.New(),
		Name:             "Etna Rosso",
		CostAmount:       decimal.RequireFromString("7.00"),
		CostCurrency:     enums.CurrencyEUR,
		AlcoholTaxCents:  2219,
		PriceIncludesVAT: true,
		MarginPercent:    decimal.RequireFromString("30"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wine.PriceCents != 12457 {
		t.Fatalf("expected 12457 cents, got %d", wine.PriceCents)
	}
}

func TestCreateFallsBackToRateOneOnFXFailure(t *testing.T) {
	t.Parallel()

	repo := newStubWineRepo()
	rates := &stubRates{err: pkgerrors.New(pkgerrors.CodeDependency, "fx down")}
	svc := newTestService(t, repo, rates)

	wine, err := svc.Create(context.Background(), CreateWineInput{
		ProducerID:       uuid.New(),
		Name:             "Riesling Trocken",
		CostAmount:       decimal.RequireFromString("10"),
		CostCurrency:     enums.CurrencyEUR,
		PriceIncludesVAT: true,
		MarginPercent:    decimal.RequireFromString("0"),
	})
	if err != nil {
		t.Fatalf("fx failure must not block the write, got %v", err)
	}
	// rate 1 => cost local 10.00 => 1000 cents
	if wine.PriceCents != 1000 {
		t.Fatalf("expected 1000 cents at fallback rate, got %d", wine.PriceCents)
	}
}

func TestCreateUsesStoredRateOverFX(t *testing.T) {
	t.Parallel()

	repo := newStubWineRepo()
	stored := decimal.RequireFromString("10")
	svc := newTestService(t, repo, &stubRates{rate: decimal.RequireFromString("99")})

	wine, err := svc.Create(context.Background(), CreateWineInput{
		ProducerID:         uuid.New(),
		Name:               "Fixed Rate Cuvee",
		CostAmount:         decimal.RequireFromString("5"),
		CostCurrency:       enums.CurrencyEUR,
		ExchangeRate:       &stored,
		ExchangeRateSource: enums.RateSourceFixedDate,
		PriceIncludesVAT:   true,
		MarginPercent:      decimal.RequireFromString("0"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wine.PriceCents != 5000 {
		t.Fatalf("expected stored rate to win, got %d cents", wine.PriceCents)
	}
}

func TestCreateRejectsNonLiveSourceWithoutRate(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubWineRepo(), &stubRates{rate: decimal.NewFromInt(1)})
	_, err := svc.Create(context.Background(), CreateWineInput{
		ProducerID:         uuid.New(),
		Name:               "Missing Rate",
		CostAmount:         decimal.NewFromInt(5),
		CostCurrency:       enums.CurrencyEUR,
		ExchangeRateSource: enums.RateSourceFixedDate,
		MarginPercent:      decimal.NewFromInt(10),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateRecomputesPrice(t *testing.T) {
	t.Parallel()

	repo := newStubWineRepo()
	svc := newTestService(t, repo, &stubRates{rate: decimal.NewFromInt(10)})

	wine, err := svc.Create(context.Background(), CreateWineInput{
		ProducerID:       uuid.New(),
		Name:             "Margin Shift",
		CostAmount:       decimal.NewFromInt(10),
		CostCurrency:     enums.CurrencyEUR,
		PriceIncludesVAT: true,
		MarginPercent:    decimal.NewFromInt(0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wine.PriceCents != 10000 {
		t.Fatalf("expected 10000 cents, got %d", wine.PriceCents)
	}

	newMargin := decimal.NewFromInt(50)
	updated, err := svc.Update(context.Background(), wine.ID, UpdateWineInput{MarginPercent: &newMargin})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.PriceCents != 15000 {
		t.Fatalf("expected price to follow margin, got %d", updated.PriceCents)
	}
}

func TestQuoteAppliesMemberDiscount(t *testing.T) {
	t.Parallel()

	repo := newStubWineRepo()
	svc := newTestService(t, repo, &stubRates{rate: decimal.NewFromInt(10)})

	wine, err := svc.Create(context.Background(), CreateWineInput{
		ProducerID:       uuid.New(),
		Name:             "Club Bottling",
		CostAmount:       decimal.NewFromInt(10),
		CostCurrency:     enums.CurrencyEUR,
		PriceIncludesVAT: true,
		MarginPercent:    decimal.NewFromInt(50),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	full, err := svc.Quote(context.Background(), wine.ID, decimal.Decimal{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	member, err := svc.Quote(context.Background(), wine.ID, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// full margin 50.00 wiped out by a 100% member discount
	if got := full.FinalPrice.Sub(member.FinalPrice); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected 50.00 discount, got %s", got)
	}
}

func TestListByProducerScopesToProducer(t *testing.T) {
	t.Parallel()

	repo := newStubWineRepo()
	svc := newTestService(t, repo, &stubRates{rate: decimal.NewFromInt(1)})

	producerID := uuid.New()
	for _, name := range []string{"Barolo", "Barbaresco"} {
		if _, err := svc.Create(context.Background(), CreateWineInput{
			ProducerID:       producerID,
			Name:             name,
			CostAmount:       decimal.NewFromInt(10),
			CostCurrency:     enums.CurrencyEUR,
			PriceIncludesVAT: true,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := svc.Create(context.Background(), CreateWineInput{
		ProducerID:       uuid.New(),
		Name:             "Someone Else's Gamay",
		CostAmount:       decimal.NewFromInt(8),
		CostCurrency:     enums.CurrencyEUR,
		PriceIncludesVAT: true,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := svc.ListByProducer(context.Background(), producerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 wines for producer, got %d", len(rows))
	}
	for _, row := range rows {
		if row.ProducerID != producerID {
			t.Fatalf("wine %s belongs to a different producer", row.Name)
		}
	}
}
