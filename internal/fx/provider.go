package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pactwine/pact-backend/pkg/cache"
	"github.com/pactwine/pact-backend/pkg/enums"
	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.frankfurter.dev/v1"
	responseBodyReadLimit int64 = 1024
)

// Provider resolves an exchange rate from one currency to another.
// Implementations must be safe for concurrent use.
type Provider interface {
	Rate(ctx context.Context, from, to enums.Currency) (decimal.Decimal, error)
}

// HTTPProvider fetches live rates from an external FX API.
type HTTPProvider struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional provider behavior.
type Option func(*HTTPProvider)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *HTTPProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured FX API base URL.
func WithBaseURL(baseURL string) Option {
	return func(p *HTTPProvider) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			p.baseURL = trimmed
		}
	}
}

// NewHTTPProvider builds the live-rate provider.
func NewHTTPProvider(timeout time.Duration, opts ...Option) *HTTPProvider {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	provider := &HTTPProvider{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}
	return provider
}

// Rate fetches the latest rate for the currency pair. Identical
// currencies short-circuit to 1.
func (p *HTTPProvider) Rate(ctx context.Context, from, to enums.Currency) (decimal.Decimal, error) {
	if p == nil {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeDependency, "fx provider not configured")
	}
	if !from.IsValid() || !to.IsValid() {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown currency").WithDetails(map[string]any{
			"from": string(from),
			"to":   string(to),
		})
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	url := fmt.Sprintf("%s/latest?base=%s&symbols=%s", strings.TrimRight(p.baseURL, "/"), from, to)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build fx request")
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute fx request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "fx request failed")
	}

	var apiResp struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode fx response")
	}

	raw, ok := apiResp.Rates[string(to)]
	if !ok {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeDependency, "fx response missing requested symbol").WithDetails(map[string]any{
			"symbol": string(to),
		})
	}
	rate := decimal.NewFromFloat(raw)
	if !rate.IsPositive() {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeDependency, "fx rate must be positive")
	}
	return rate, nil
}

// CachedProvider wraps another provider with a TTL cache so pricing does
// not hit the FX API on every quote.
type CachedProvider struct {
	inner Provider
	cache *cache.TTL[decimal.Decimal]
}

// NewCachedProvider builds the caching layer. Both arguments are required.
func NewCachedProvider(inner Provider, ttl *cache.TTL[decimal.Decimal]) (*CachedProvider, error) {
	if inner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fx inner provider is required")
	}
	if ttl == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fx cache is required")
	}
	return &CachedProvider{inner: inner, cache: ttl}, nil
}

// Rate returns a cached rate when fresh, otherwise delegates and stores
// the result. Failures are never cached.
func (p *CachedProvider) Rate(ctx context.Context, from, to enums.Currency) (decimal.Decimal, error) {
	key := string(from) + ":" + string(to)
	if rate, ok := p.cache.Get(key); ok {
		return rate, nil
	}
	rate, err := p.inner.Rate(ctx, from, to)
	if err != nil {
		return decimal.Decimal{}, err
	}
	p.cache.Set(key, rate)
	return rate, nil
}

// RateOrFallback resolves a rate through the provider and falls back to
// 1 when the provider fails. Pricing keeps working on a stale or missing
// FX feed; the caller logs the degradation.
func RateOrFallback(ctx context.Context, provider Provider, from, to enums.Currency) (decimal.Decimal, error) {
	if provider == nil {
		return decimal.NewFromInt(1), pkgerrors.New(pkgerrors.CodeDependency, "fx provider not configured")
	}
	rate, err := provider.Rate(ctx, from, to)
	if err != nil {
		return decimal.NewFromInt(1), err
	}
	return rate, nil
}
