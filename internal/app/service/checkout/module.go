package checkout

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ventopay/checkout/internal/app/service/orders"
	"github.com/ventopay/checkout/internal/app/service/payments"
	"github.com/ventopay/checkout/internal/app/service/reconcile"
	"github.com/ventopay/checkout/internal/platform/gateway"
	cfgpkg "github.com/ventopay/checkout/pkg/config"
)

// Module exposes the checkout service via Fx.
var Module = fx.Options(
	fx.Provide(func(
		cfg *cfgpkg.Config,
		log *zap.SugaredLogger,
		carrier *gateway.Carrier,
		store payments.Store,
		ord *orders.Service,
		rec *reconcile.Reconciler,
	) *Service {
		return NewService(cfg, log, carrier, store, ord, rec)
	}),
)
