package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReconcileTotal counts status transitions applied by the reconciler,
// labelled by the resulting payment status.
var ReconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "payment_reconcile_total",
	Help: "Payment reconciliations, partitioned by resulting status.",
}, []string{"status"})

// SweepRecordsTotal counts records visited by the pending sweep, labelled by
// per-record outcome (settled, still_pending, skipped, error).
var SweepRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "payment_sweep_records_total",
	Help: "Records processed by the pending-payment sweep, by outcome.",
}, []string{"outcome"})
