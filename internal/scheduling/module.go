package scheduling

import (
	"go.uber.org/fx"

	"github.com/dwellio/voicebridge/internal/config"
)

// Module provides the scheduling collaborators.
var Module = fx.Module("scheduling",
	fx.Provide(
		func() Calendar { return NewBusinessHoursCalendar() },
		func(cfg *config.Config) Assigner { return NewRoundRobinAssigner(cfg.Scheduling.Agents) },
	),
)
