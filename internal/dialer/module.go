package dialer

import (
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/dwellio/voicebridge/internal/telephony"
)

// Module provides the outbound dialer and its campaign endpoint.
var Module = fx.Module("dialer",
	fx.Provide(
		NewDialer,
		fx.Annotate(
			newDialRoute,
			fx.ResultTags(`group:"routes"`),
		),
	),
)

func newDialRoute(logger *zap.Logger, d Dialer) telephony.Route {
	return telephony.Route{
		Pattern: "/campaign/dial",
		Handler: http.Handler(NewHandler(logger, d)),
	}
}
