package sweep

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ventopay/checkout/internal/app/service/payments"
	"github.com/ventopay/checkout/internal/app/service/reconcile"
	"github.com/ventopay/checkout/internal/platform/gateway"
)

// Module exposes the pending sweeper via Fx.
var Module = fx.Options(
	fx.Provide(func(log *zap.SugaredLogger, store payments.Store, carrier *gateway.Carrier, rec *reconcile.Reconciler) *Sweeper {
		return New(log, store, carrier, rec)
	}),
)
