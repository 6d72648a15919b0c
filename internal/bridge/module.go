package bridge

import (
	"go.uber.org/fx"

	"github.com/dwellio/voicebridge/internal/telephony"
)

// Module provides the session supervisor.
var Module = fx.Module("bridge",
	fx.Provide(
		fx.Annotate(
			NewManager,
			fx.As(new(telephony.StreamHandler)),
		),
	),
)
