package onchain

import (
	"go.uber.org/fx"
)

var Module = fx.Module("onchain",
	fx.Provide(NewDecoder),
)
