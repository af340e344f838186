package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
	"github.com/pactwine/pact-backend/pkg/logger"
)

const responseBodyReadLimit int64 = 1024

// PalletCompletion is the payload sent when a pallet's completion rule
// is first satisfied.
type PalletCompletion struct {
	PalletID         uuid.UUID `json:"pallet_id"`
	PickupZoneID     uuid.UUID `json:"pickup_zone_id"`
	DeliveryZoneID   uuid.UUID `json:"delivery_zone_id"`
	Bottles          int       `json:"bottles"`
	ProfitCentsExVAT int64     `json:"profit_cents_ex_vat"`
	CompletedAt      time.Time `json:"completed_at"`
}

// CompletionNotifier delivers the pallet-complete side effect. Callers
// hold the exactly-once latch; implementations only deliver.
type CompletionNotifier interface {
	NotifyPalletComplete(ctx context.Context, completion PalletCompletion) error
}

// WebhookNotifier posts completions to an operations webhook.
type WebhookNotifier struct {
	httpClient *http.Client
	url        string
}

// NewWebhookNotifier builds a webhook notifier for the given URL.
func NewWebhookNotifier(url string, timeout time.Duration) (*WebhookNotifier, error) {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url:        trimmed,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// NotifyPalletComplete posts the completion payload.
func (n *WebhookNotifier) NotifyPalletComplete(ctx context.Context, completion PalletCompletion) error {
	payload, err := json.Marshal(completion)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal completion payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build completion request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver completion webhook")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "completion webhook rejected")
	}
	return nil
}

// LogNotifier records completions in the service log. It stands in when
// no webhook is configured, keeping the completion path exercised in
// every environment.
type LogNotifier struct {
	logg *logger.Logger
}

// NewLogNotifier builds the log-only notifier.
func NewLogNotifier(logg *logger.Logger) (*LogNotifier, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogNotifier{logg: logg}, nil
}

// NotifyPalletComplete logs the completion.
func (n *LogNotifier) NotifyPalletComplete(ctx context.Context, completion PalletCompletion) error {
	ctx = n.logg.WithFields(ctx, map[string]any{
		"pallet_id":           completion.PalletID,
		"bottles":             completion.Bottles,
		"profit_cents_ex_vat": completion.ProfitCentsExVAT,
	})
	n.logg.Info(ctx, "pallet completion rule satisfied")
	return nil
}
