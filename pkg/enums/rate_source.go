package enums

import "fmt"

// RateSource identifies how a wine's exchange rate was resolved.
type RateSource string

const (
	RateSourceLive          RateSource = "live"
	RateSourceFixedDate     RateSource = "fixed_date"
	RateSourcePeriodAverage RateSource = "period_average"
)

var validRateSources = []RateSource{
	RateSourceLive,
	RateSourceFixedDate,
	RateSourcePeriodAverage,
}

// String implements fmt.Stringer.
func (s RateSource) String() string {
	return string(s)
}

// IsValid reports whether the source is recognized.
func (s RateSource) IsValid() bool {
	for _, candidate := range validRateSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRateSource converts a raw string into a RateSource.
func ParseRateSource(value string) (RateSource, error) {
	candidate := RateSource(value)
	if !candidate.IsValid() {
		return "", fmt.Errorf("invalid rate source %q", value)
	}
	return candidate, nil
}
