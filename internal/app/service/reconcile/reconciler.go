package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ventopay/checkout/internal/app/service/payments"
	"github.com/ventopay/checkout/internal/models"
	"github.com/ventopay/checkout/internal/platform/gateway"
	"github.com/ventopay/checkout/pkg/logctx"
	"github.com/ventopay/checkout/pkg/metrics"
)

// OrderMarker is the narrow slice of the storefront order this service
// drives. Implementations must keep each transition idempotent and must
// refuse to regress an order that already reached its paid state.
type OrderMarker interface {
	MarkPaid(ctx context.Context, ref string) error
	MarkCanceled(ctx context.Context, ref string) error
	MarkErrored(ctx context.Context, ref string) error
}

// Outcome reports what one reconciliation attempt did.
type Outcome struct {
	// Status is the record status after the attempt.
	Status models.PaymentStatus `json:"status"`
	// Applied is true only for the caller that won the PENDING transition.
	Applied bool `json:"applied"`
	// Retryable is true when the session is still open and a later sweep
	// should query again.
	Retryable bool `json:"retryable"`
}

// Reconciler turns a gateway query result into a payment status transition
// and the matching order side effect. The same record can be reconciled
// concurrently by the return flow, the notification handler and the sweep;
// the store's conditional update guarantees a single winner, everyone else
// observes a no-op.
type Reconciler struct {
	store  payments.Store
	orders OrderMarker
	log    *zap.SugaredLogger
}

func New(store payments.Store, orders OrderMarker, log *zap.SugaredLogger) *Reconciler {
	return &Reconciler{store: store, orders: orders, log: log}
}

// Reconcile applies the query result to the record. Terminal records are
// never touched again; a still-open session leaves the record PENDING and is
// reported retryable.
func (r *Reconciler) Reconcile(ctx context.Context, payment *models.Payment, info *gateway.RedirectInformation) (*Outcome, error) {
	log := logctx.FromCtx(ctx, r.log).With("reference", payment.Reference, "request_id", payment.RequestID)

	if payment.Status.IsTerminal() {
		log.Infow("reconcile_noop_terminal", "status", payment.Status)
		return &Outcome{Status: payment.Status}, nil
	}

	newStatus := statusFrom(info)
	if newStatus == models.PaymentStatusPending {
		log.Infow("reconcile_still_pending", "gateway_status", gatewayStatus(info))
		return &Outcome{Status: models.PaymentStatusPending, Retryable: true}, nil
	}

	won, err := r.store.SettleIfPending(ctx, payment.ID, newStatus, settlementFrom(info))
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", payment.Reference, err)
	}
	if !won {
		// A concurrent reconciliation settled the record first.
		log.Infow("reconcile_lost_race", "status", newStatus)
		return &Outcome{Status: newStatus}, nil
	}

	metrics.ReconcileTotal.WithLabelValues(string(newStatus)).Inc()
	log.Infow("reconcile_settled", "from", payment.Status, "to", newStatus)

	if err := r.applyOrderEffect(ctx, payment.OrderRef, newStatus); err != nil {
		// The record is settled; the order state is now the operator's
		// problem, so surface it loudly.
		log.Errorw("reconcile_order_effect_failed", "order_ref", payment.OrderRef, "status", newStatus, "err", err)
		return &Outcome{Status: newStatus, Applied: true}, err
	}
	return &Outcome{Status: newStatus, Applied: true}, nil
}

func (r *Reconciler) applyOrderEffect(ctx context.Context, orderRef string, status models.PaymentStatus) error {
	switch {
	case status.IsApproved():
		return r.orders.MarkPaid(ctx, orderRef)
	case status == models.PaymentStatusRejected:
		return r.orders.MarkCanceled(ctx, orderRef)
	case status == models.PaymentStatusFailed:
		return r.orders.MarkErrored(ctx, orderRef)
	}
	return nil
}

// statusFrom maps a query result to a record status. A resolved session that
// is neither approved nor rejected is still open; an unresolved query that is
// not an outright rejection is a hard failure.
func statusFrom(info *gateway.RedirectInformation) models.PaymentStatus {
	if info.IsSuccessful() {
		switch {
		case info.Status.IsApproved():
			return models.PaymentStatusApproved
		case info.Status.IsRejected():
			return models.PaymentStatusRejected
		default:
			return models.PaymentStatusPending
		}
	}
	if info.Status.IsRejected() {
		return models.PaymentStatusRejected
	}
	return models.PaymentStatusFailed
}

// settlementFrom projects the query result into record metadata. Settlement
// details are taken only from a successful last transaction; everything
// absent stays empty rather than failing the transition.
func settlementFrom(info *gateway.RedirectInformation) *models.Settlement {
	set := &models.Settlement{}
	if info.Status != nil {
		set.Reason = info.Status.Reason
		set.ReasonDescription = info.Status.Message
	}

	if tx := info.LastTransaction(); tx.IsSuccessful() {
		set.Reason = tx.Status.Reason
		set.ReasonDescription = tx.Status.Message
		set.Bank = tx.IssuerName
		set.Franchise = tx.Franchise
		set.FranchiseName = tx.PaymentMethodName
		set.AuthCode = tx.Authorization
		set.Receipt = tx.Receipt
		set.Installments = tx.Installments()
		set.CardLastDigits = tx.CardLastDigits()
		if tx.Amount != nil {
			set.ConversionFactor = tx.Amount.Factor
		}
	}

	set.PayerEmail = info.Request.PayerEmail()
	return set
}

func gatewayStatus(info *gateway.RedirectInformation) string {
	if info == nil || info.Status == nil {
		return ""
	}
	return info.Status.Status
}
