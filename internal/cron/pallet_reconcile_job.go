package cron

import (
	"context"
	"fmt"

	"github.com/pactwine/pact-backend/internal/pallets"
	"github.com/pactwine/pact-backend/pkg/db/models"
	"github.com/pactwine/pact-backend/pkg/logger"
	"github.com/pactwine/pact-backend/pkg/metrics"
)

type openPalletLister interface {
	ListOpen(ctx context.Context) ([]models.Pallet, error)
}

type palletSettler interface {
	SettleCompletion(ctx context.Context, pallet *models.Pallet) (pallets.CompletionResult, bool, error)
}

// PalletReconcileJobParams configure the reconciliation job.
type PalletReconcileJobParams struct {
	Logger  *logger.Logger
	Pallets openPalletLister
	Settler palletSettler
	Metrics *metrics.ReconcileMetrics
}

// NewPalletReconcileJob builds the job that sweeps open pallets and
// settles completions the checkout path missed, typically because a
// reservation status changed out of band or a post-checkout check
// failed.
func NewPalletReconcileJob(params PalletReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Pallets == nil {
		return nil, fmt.Errorf("pallet lister required")
	}
	if params.Settler == nil {
		return nil, fmt.Errorf("pallet settler required")
	}
	return &palletReconcileJob{
		logg:    params.Logger,
		pallets: params.Pallets,
		settler: params.Settler,
		metrics: params.Metrics,
	}, nil
}

type palletReconcileJob struct {
	logg    *logger.Logger
	pallets openPalletLister
	settler palletSettler
	metrics *metrics.ReconcileMetrics
}

func (j *palletReconcileJob) Name() string { return "pallet-reconcile" }

// Run settles every open pallet independently; one broken pallet never
// stops the sweep.
func (j *palletReconcileJob) Run(ctx context.Context) error {
	open, err := j.pallets.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("list open pallets: %w", err)
	}

	var failures, completions, skippedLines int
	for i := range open {
		pallet := &open[i]
		palletCtx := j.logg.WithPalletID(ctx, pallet.ID.String())

		result, notified, err := j.settler.SettleCompletion(palletCtx, pallet)
		if err != nil {
			failures++
			j.logg.Error(palletCtx, "pallet settlement failed", err)
			continue
		}
		skippedLines += result.Fill.SkippedLines
		if notified {
			completions++
			j.metrics.IncCompletion()
			logCtx := j.logg.WithFields(palletCtx, map[string]any{
				"bottles":             result.Fill.Bottles,
				"profit_cents_ex_vat": result.Fill.ProfitCentsExVAT,
			})
			j.logg.Info(logCtx, "pallet completion settled by reconciliation")
		}
	}
	for i := 0; i < skippedLines; i++ {
		j.metrics.IncSkippedLine()
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"pallets_swept": len(open),
		"completions":   completions,
		"skipped_lines": skippedLines,
		"failures":      failures,
	})
	j.logg.Info(logCtx, "pallet reconciliation complete")

	if failures > 0 {
		return fmt.Errorf("%d of %d pallets failed to settle", failures, len(open))
	}
	return nil
}
