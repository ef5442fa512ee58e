package callback

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	notificationlog "github.com/ventopay/checkout/internal/app/service/notification_log"
	"github.com/ventopay/checkout/internal/app/service/payments"
	"github.com/ventopay/checkout/internal/app/service/reconcile"
	"github.com/ventopay/checkout/internal/platform/gateway"
	cfgpkg "github.com/ventopay/checkout/pkg/config"
)

// Module exposes the callback service via Fx.
var Module = fx.Options(
	fx.Provide(func(
		cfg *cfgpkg.Config,
		log *zap.SugaredLogger,
		carrier *gateway.Carrier,
		store payments.Store,
		rec *reconcile.Reconciler,
		audit *notificationlog.Service,
	) *Service {
		return New(cfg, log, carrier, store, rec, audit)
	}),
)
