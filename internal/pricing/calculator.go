package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
)

// VATRate is the fixed Swedish VAT rate applied to wine (25%).
var VATRate = decimal.NewFromFloat(1.25)

var oneHundred = decimal.NewFromInt(100)

// Input carries the resolved figures needed to price one bottle. The
// exchange rate is already resolved by the caller; its provenance
// (live, fixed date, period average) is a configuration concern.
type Input struct {
	CostAmount       decimal.Decimal
	ExchangeRate     decimal.Decimal
	AlcoholTax       decimal.Decimal
	MarginPercent    decimal.Decimal
	PriceIncludesVAT bool

	// MemberDiscountPercent reduces the margin component only. Cost,
	// alcohol tax, and VAT are passed through undiscounted.
	MemberDiscountPercent decimal.Decimal
}

// Breakdown is the consumer-facing price decomposition.
type Breakdown struct {
	CostLocal       decimal.Decimal `json:"cost_local"`
	AlcoholTax      decimal.Decimal `json:"alcohol_tax"`
	MarginAmount    decimal.Decimal `json:"margin_amount"`
	VATAmount       decimal.Decimal `json:"vat_amount"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	FinalPriceCents int64           `json:"final_price_cents"`
}

// Compute derives the final consumer price in local currency.
//
// costLocal = cost * rate; margin = costLocal * margin%/100;
// afterTax = costLocal + margin + alcoholTax; VAT is added only when
// the input price does not already include it. The final price in
// minor units always rounds up, so rounding never erodes margin.
func Compute(in Input) (Breakdown, error) {
	if err := validate(in); err != nil {
		return Breakdown{}, err
	}

	costLocal := in.CostAmount.Mul(in.ExchangeRate)
	marginAmount := costLocal.Mul(in.MarginPercent).Div(oneHundred)
	afterTax := costLocal.Add(marginAmount).Add(in.AlcoholTax)

	var finalPrice, vatAmount decimal.Decimal
	if in.PriceIncludesVAT {
		finalPrice = afterTax
		vatAmount = finalPrice.Sub(finalPrice.Div(VATRate))
	} else {
		finalPrice = afterTax.Mul(VATRate)
		vatAmount = finalPrice.Sub(afterTax)
	}

	if in.MemberDiscountPercent.IsPositive() {
		discount := marginAmount.Mul(in.MemberDiscountPercent).Div(oneHundred)
		finalPrice = finalPrice.Sub(discount)
		marginAmount = marginAmount.Sub(discount)
	}

	return Breakdown{
		CostLocal:       costLocal,
		AlcoholTax:      in.AlcoholTax,
		MarginAmount:    marginAmount,
		VATAmount:       vatAmount,
		FinalPrice:      finalPrice,
		FinalPriceCents: CeilCents(finalPrice),
	}, nil
}

// CeilCents converts a decimal price to minor units, rounding up.
func CeilCents(price decimal.Decimal) int64 {
	return price.Mul(oneHundred).Ceil().IntPart()
}

// ExVATCents strips VAT from a minor-unit price when it is included,
// rounding to the nearest cent.
func ExVATCents(priceCents int64, includesVAT bool) int64 {
	if !includesVAT {
		return priceCents
	}
	return decimal.NewFromInt(priceCents).Div(VATRate).Round(0).IntPart()
}

// FromFloat converts a float into a decimal, rejecting non-finite values.
func FromFloat(value float64) (decimal.Decimal, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "pricing input must be finite")
	}
	return decimal.NewFromFloat(value), nil
}

func validate(in Input) error {
	if in.CostAmount.IsNegative() {
		return invalidInput("cost_amount")
	}
	if in.ExchangeRate.IsNegative() {
		return invalidInput("exchange_rate")
	}
	if in.AlcoholTax.IsNegative() {
		return invalidInput("alcohol_tax")
	}
	if in.MarginPercent.IsNegative() || in.MarginPercent.GreaterThan(oneHundred) {
		return invalidInput("margin_percent")
	}
	if in.MemberDiscountPercent.IsNegative() || in.MemberDiscountPercent.GreaterThan(oneHundred) {
		return invalidInput("member_discount_percent")
	}
	return nil
}

func invalidInput(field string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "pricing input invalid").WithDetails(map[string]any{
		"field": field,
	})
}
