package orders

import "go.uber.org/fx"

// Module exposes the order-status service via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
