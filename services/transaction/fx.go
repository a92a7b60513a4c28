package transaction

import (
	"go.uber.org/fx"
)

var Module = fx.Module("transaction",
	fx.Provide(NewService),
)

var TaskModule = fx.Module("task.transaction",
	fx.Provide(NewTask),
	fx.Invoke(
		registerTaskHandlers,
		registerPeriodicTasks,
	),
)
