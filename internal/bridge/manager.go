package bridge

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/dwellio/voicebridge/internal/flow"
	"github.com/dwellio/voicebridge/internal/speech"
	"github.com/dwellio/voicebridge/internal/store"
	"github.com/dwellio/voicebridge/internal/telephony"
)

// Manager builds and runs one session per accepted media stream.
type Manager struct {
	logger  *zap.Logger
	library *flow.Library
	planner flow.Planner
	speech  speech.Provider
	records store.RecordStore
}

// NewManagerParams holds dependencies for NewManager.
type NewManagerParams struct {
	fx.In
	Logger  *zap.Logger
	Library *flow.Library
	Planner flow.Planner
	Speech  speech.Provider
	Records store.RecordStore
}

// NewManager wires the session factory.
func NewManager(params NewManagerParams) *Manager {
	return &Manager{
		logger:  params.Logger,
		library: params.Library,
		planner: params.Planner,
		speech:  params.Speech,
		records: params.Records,
	}
}

// HandleStream runs one media stream to completion. Blocks for the life of
// the call.
func (m *Manager) HandleStream(ctx context.Context, conn *telephony.Conn, meta *telephony.CallMetadata) {
	streamSid, resolved, ok := m.awaitStart(conn, meta)
	if !ok {
		conn.Close()

		return
	}

	script, found := m.library.Get(resolved.FlowVariant)
	if !found {
		m.logger.Warn("Unknown flow variant, dropping call",
			zap.String("call_id", resolved.CallID),
			zap.String("flow_variant", resolved.FlowVariant))
		conn.Close()

		return
	}

	engine, err := flow.NewEngine(script, flow.CallInfo{
		LeadID: resolved.LeadID,
		OrgID:  resolved.OrgID,
		CallID: resolved.CallID,
	}, m.planner)
	if err != nil {
		m.logger.Error("Failed to build flow engine", zap.Error(err))
		conn.Close()

		return
	}

	s := newSession(m.logger, resolved, conn, streamSid, engine, m.records)

	sp, err := m.speech.Open(ctx, s.handlers())
	if err != nil {
		m.logger.Error("Failed to open speech session",
			zap.String("call_id", resolved.CallID), zap.Error(err))
		conn.Close()

		return
	}

	m.logger.Info("Session started",
		zap.String("call_id", resolved.CallID),
		zap.String("stream_sid", streamSid),
		zap.String("flow_variant", resolved.FlowVariant))

	s.run(ctx, sp)
}

// awaitStart consumes frames until the start event arrives, then resolves
// call metadata from the upgrade request or the start blob.
func (m *Manager) awaitStart(conn *telephony.Conn, meta *telephony.CallMetadata) (string, telephony.CallMetadata, bool) {
	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			return "", telephony.CallMetadata{}, false
		}
		if msg == nil || msg.Event != telephony.EventStart {
			if msg != nil && msg.Event == telephony.EventStop {
				return "", telephony.CallMetadata{}, false
			}

			continue
		}

		streamSid := msg.StreamSid
		if streamSid == "" && msg.Start != nil {
			streamSid = msg.Start.StreamSid
		}

		if meta != nil {
			return streamSid, *meta, true
		}

		resolved, err := telephony.MetadataFromStart(msg.Start)
		if err != nil {
			m.logger.Warn("Media stream start without usable metadata", zap.Error(err))

			return "", telephony.CallMetadata{}, false
		}
		if resolved.CallID == "" && msg.Start != nil {
			resolved.CallID = msg.Start.CallSid
		}
		if err := resolved.Validate(); err != nil {
			m.logger.Warn("Rejecting media stream with bad metadata", zap.Error(err))

			return "", telephony.CallMetadata{}, false
		}

		return streamSid, resolved, true
	}
}
