package telephony

import "go.uber.org/fx"

// Module provides the telephony listener.
var Module = fx.Module("telephony",
	fx.Provide(NewServer),
)
