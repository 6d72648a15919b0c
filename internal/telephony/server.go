package telephony

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/dwellio/voicebridge/internal/config"
	"github.com/dwellio/voicebridge/internal/flow"
)

// StreamHandler runs one media stream session to completion. A nil meta
// means the metadata blob is expected in the start event instead of the
// upgrade request.
type StreamHandler interface {
	HandleStream(ctx context.Context, conn *Conn, meta *CallMetadata)
}

// Server is the HTTP listener the telephony provider talks to: answer
// webhooks plus the media stream WebSocket endpoint.
type Server struct {
	logger  *zap.Logger
	cfg     *config.Config
	handler StreamHandler
	scripts *flow.Library
	httpSrv *http.Server
}

// Route lets other modules contribute HTTP endpoints to the listener via
// the "routes" value group.
type Route struct {
	Pattern string
	Handler http.Handler
}

// NewServerParams holds dependencies for NewServer.
type NewServerParams struct {
	fx.In
	Logger  *zap.Logger
	Cfg     *config.Config
	Handler StreamHandler
	Scripts *flow.Library
	Routes  []Route `group:"routes"`
	LC      fx.Lifecycle
}

// NewServer builds the listener and hooks it into the application lifecycle.
func NewServer(params NewServerParams) *Server {
	s := &Server{
		logger:  params.Logger,
		cfg:     params.Cfg,
		handler: params.Handler,
		scripts: params.Scripts,
	}
	s.logger.Info("Serving call flows", zap.Strings("variants", s.scripts.Variants()))

	mux := http.NewServeMux()
	mux.HandleFunc("/media", s.handleMedia)
	mux.HandleFunc("/voice/answer", s.handleAnswer)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	for _, route := range params.Routes {
		mux.Handle(route.Pattern, route.Handler)
	}

	s.httpSrv = &http.Server{
		Addr:              params.Cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	params.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.logger.Info("Starting telephony listener", zap.String("addr", s.httpSrv.Addr))
			go func() {
				if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.logger.Error("Telephony listener failed", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.logger.Info("Stopping telephony listener")

			return s.httpSrv.Shutdown(ctx)
		},
	})

	return s
}

// handleAnswer is the provider's answer webhook for both directions. Call
// metadata rides in on query parameters; the CallSid comes from the form.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)

		return
	}

	q := r.URL.Query()
	meta := CallMetadata{
		LeadID:      q.Get("leadId"),
		OrgID:       q.Get("orgId"),
		CallID:      r.FormValue("CallSid"),
		FlowVariant: q.Get("flowVariant"),
	}
	if meta.FlowVariant == "" {
		meta.FlowVariant = "buyer"
	}

	if _, ok := s.scripts.Get(meta.FlowVariant); !ok {
		s.logger.Warn("Rejecting call for unknown flow variant",
			zap.String("call_id", meta.CallID),
			zap.String("flow_variant", meta.FlowVariant))
		doc, err := RejectDocument("Sorry, this line is not configured. Goodbye.")
		s.writeTwiML(w, doc, err)

		return
	}

	s.logger.Info("Answering call",
		zap.String("call_id", meta.CallID),
		zap.String("flow_variant", meta.FlowVariant))

	doc, err := AnswerDocument(s.cfg.Server.PublicURL, meta)
	s.writeTwiML(w, doc, err)
}

func (s *Server) writeTwiML(w http.ResponseWriter, doc string, err error) {
	if err != nil {
		s.logger.Error("Failed to render voice document", zap.Error(err))
		http.Error(w, "twiml error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(doc))
}

// handleMedia upgrades to the media stream protocol. Metadata present on
// the query string is validated before the upgrade; otherwise the session
// waits for the start-event blob.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	var meta *CallMetadata
	if m, ok := MetadataFromQuery(r.URL.Query()); ok {
		if err := m.Validate(); err != nil {
			s.logger.Warn("Rejecting media stream with bad metadata", zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}
		meta = &m
	}

	conn, err := Upgrade(w, r)
	if err != nil {
		s.logger.Warn("Media stream upgrade failed", zap.Error(err))

		return
	}

	s.handler.HandleStream(r.Context(), conn, meta)
}
