package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/ventopay/checkout/internal/app/api/server"
	"github.com/ventopay/checkout/internal/app/service/callback"
	"github.com/ventopay/checkout/internal/app/service/checkout"
	notificationlog "github.com/ventopay/checkout/internal/app/service/notification_log"
	"github.com/ventopay/checkout/internal/app/service/orders"
	"github.com/ventopay/checkout/internal/app/service/payments"
	"github.com/ventopay/checkout/internal/app/service/reconcile"
	"github.com/ventopay/checkout/internal/app/service/statistics"
	"github.com/ventopay/checkout/internal/app/service/sweep"
	"github.com/ventopay/checkout/internal/platform/db"
	"github.com/ventopay/checkout/internal/platform/gateway"
	"github.com/ventopay/checkout/pkg/config"
	"github.com/ventopay/checkout/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

// coreModule is everything both binaries share: config, logging, storage,
// the gateway carrier and the reconciliation services.
var coreModule = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	gateway.Module,
	payments.Module,
	orders.Module,
	reconcile.Module,
)

// Module wires the HTTP API binary.
var Module = fx.Options(
	coreModule,
	server.Module,
	checkout.Module,
	notificationlog.Module,
	callback.Module,
	statistics.Module,
)

// SweeperModule wires the scheduled pending-payment sweep binary.
var SweeperModule = fx.Options(
	coreModule,
	sweep.Module,
)
