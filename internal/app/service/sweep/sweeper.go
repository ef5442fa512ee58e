package sweep

import (
	"context"

	"go.uber.org/zap"

	"github.com/ventopay/checkout/internal/app/service/payments"
	"github.com/ventopay/checkout/internal/app/service/reconcile"
	"github.com/ventopay/checkout/internal/platform/gateway"
	"github.com/ventopay/checkout/pkg/metrics"
)

// Querier re-queries a pending session.
type Querier interface {
	Query(ctx context.Context, requestID int64) (*gateway.RedirectInformation, error)
}

// Summary is the outcome of one sweep over the pending backlog.
type Summary struct {
	Found        int `json:"found"`
	Settled      int `json:"settled"`
	StillPending int `json:"still_pending"`
	Skipped      int `json:"skipped"`
	Failed       int `json:"failed"`
}

// Sweeper re-queries every PENDING record and drives it through the
// reconciler. One bad record never aborts the batch: per-record failures are
// logged and the sweep moves on.
type Sweeper struct {
	log   *zap.SugaredLogger
	store payments.Store
	gw    Querier
	rec   *reconcile.Reconciler
}

func New(log *zap.SugaredLogger, store payments.Store, gw Querier, rec *reconcile.Reconciler) *Sweeper {
	return &Sweeper{log: log, store: store, gw: gw, rec: rec}
}

// Run executes one sweep. The returned error covers only the initial listing;
// everything per-record is contained in the summary.
func (s *Sweeper) Run(ctx context.Context) (*Summary, error) {
	rows, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Found: len(rows)}
	s.log.Infow("sweep_started", "pending", len(rows))

	for _, payment := range rows {
		log := s.log.With("reference", payment.Reference, "request_id", payment.RequestID)

		if payment.RequestID == 0 {
			// The attempt never reached the gateway; there is no session to query.
			log.Infow("sweep_skipped_no_request_id")
			summary.Skipped++
			metrics.SweepRecordsTotal.WithLabelValues("skipped").Inc()
			continue
		}

		info, err := s.gw.Query(ctx, payment.RequestID)
		if err != nil {
			log.Warnw("sweep_query_failed", "err", err)
			summary.Failed++
			metrics.SweepRecordsTotal.WithLabelValues("error").Inc()
			continue
		}

		outcome, err := s.rec.Reconcile(ctx, payment, info)
		if err != nil {
			log.Warnw("sweep_reconcile_failed", "err", err)
			summary.Failed++
			metrics.SweepRecordsTotal.WithLabelValues("error").Inc()
			continue
		}

		switch {
		case outcome.Retryable:
			log.Infow("sweep_still_pending")
			summary.StillPending++
			metrics.SweepRecordsTotal.WithLabelValues("still_pending").Inc()
		default:
			log.Infow("sweep_settled", "status", outcome.Status, "applied", outcome.Applied)
			summary.Settled++
			metrics.SweepRecordsTotal.WithLabelValues("settled").Inc()
		}
	}

	s.log.Infow("sweep_finished",
		"found", summary.Found,
		"settled", summary.Settled,
		"still_pending", summary.StillPending,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}
