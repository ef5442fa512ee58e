package reconcile

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ventopay/checkout/internal/app/service/orders"
	"github.com/ventopay/checkout/internal/app/service/payments"
)

// Module exposes the reconciler via Fx.
var Module = fx.Options(
	fx.Provide(func(store payments.Store, ord *orders.Service, log *zap.SugaredLogger) *Reconciler {
		return New(store, ord, log)
	}),
)
