package discount

import "go.uber.org/fx"

// Module exposes the discount service via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
