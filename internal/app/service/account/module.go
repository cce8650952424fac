package account

import "go.uber.org/fx"

// Module exposes the account store via Fx.
var Module = fx.Options(
	fx.Provide(NewStore),
)
