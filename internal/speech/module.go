package speech

import "go.uber.org/fx"

// Module provides the realtime speech provider.
var Module = fx.Module("speech",
	fx.Provide(NewProvider),
)
