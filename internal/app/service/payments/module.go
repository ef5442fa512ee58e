package payments

import "go.uber.org/fx"

// Module exposes the payment store via Fx.
var Module = fx.Options(
	fx.Provide(NewStore),
)
