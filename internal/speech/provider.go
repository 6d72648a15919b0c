// Package speech wraps the realtime conversational AI endpoint behind a
// per-call session abstraction. Each bridge session opens its own duplex
// connection; events are delivered through caller-supplied handlers.
package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync/atomic"

	openairt "github.com/WqyJh/go-openai-realtime"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/dwellio/voicebridge/internal/config"
)

// Usage summarizes token consumption for one generated response.
type Usage struct {
	InputTokens       int
	OutputTokens      int
	InputAudioTokens  int
	OutputAudioTokens int
}

// EventHandlers receives server events for one session. Handlers run on the
// connection's read goroutine; implementations must not block.
type EventHandlers struct {
	OnAudioDelta          func(ctx context.Context, pcm []byte)
	OnAudioDone           func(ctx context.Context)
	OnAssistantTranscript func(ctx context.Context, transcript string)
	OnCallerTranscript    func(ctx context.Context, transcript string)
	OnResponseDone        func(ctx context.Context, usage *Usage)
	OnError               func(ctx context.Context, err error)
}

// Session is one live connection to the speech service.
type Session interface {
	// SendAudio appends linear PCM bytes to the remote input buffer.
	SendAudio(ctx context.Context, pcm []byte) error

	// CommitAudio marks the buffered input as one utterance chunk.
	CommitAudio(ctx context.Context) error

	// ClearAudio drops any uncommitted remote input buffer.
	ClearAudio(ctx context.Context) error

	// Speak asks the service to voice the given line verbatim.
	Speak(ctx context.Context, line string) error

	Close() error
}

// Provider opens speech sessions.
type Provider interface {
	Open(ctx context.Context, handlers EventHandlers) (Session, error)
}

type realtimeProvider struct {
	logger *zap.Logger
	cfg    *config.SpeechConfig
	client *openairt.Client
}

// NewProvider builds the realtime speech provider from configuration.
func NewProvider(logger *zap.Logger, cfg *config.Config) Provider {
	return &realtimeProvider{
		logger: logger,
		cfg:    &cfg.Speech,
		client: openairt.NewClient(cfg.Speech.APIKey),
	}
}

func (p *realtimeProvider) Open(ctx context.Context, handlers EventHandlers) (Session, error) {
	conn, err := p.client.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to speech service: %w", err)
	}

	s := &realtimeSession{
		logger:   p.logger,
		conn:     conn,
		handlers: handlers,
	}

	s.handler = openairt.NewConnHandler(ctx, conn, s.handleServerEvent)
	go s.handler.Start()
	go s.watchHandler(ctx)

	if err := s.configure(ctx, p.cfg); err != nil {
		s.Close()

		return nil, fmt.Errorf("configure speech session: %w", err)
	}

	return s, nil
}

type realtimeSession struct {
	logger   *zap.Logger
	conn     *openairt.Conn
	handler  *openairt.ConnHandler
	handlers EventHandlers
	closed   atomic.Bool
}

// watchHandler drains the read loop's error channel. An unexpected close
// surfaces only there, never as a server event, so without this the
// session would outlive a dead connection.
func (s *realtimeSession) watchHandler(ctx context.Context) {
	for err := range s.handler.Err() {
		if err == nil {
			continue
		}
		s.forwardConnError(ctx, err)

		return
	}
}

func (s *realtimeSession) forwardConnError(ctx context.Context, err error) {
	if s.closed.Load() {
		// Tearing down anyway; the read failure is just the socket dying.
		return
	}
	s.logger.Warn("Speech connection failed", zap.Error(err))
	if s.handlers.OnError != nil {
		s.handlers.OnError(ctx, fmt.Errorf("speech connection failed: %w", err))
	}
}

func (s *realtimeSession) configure(ctx context.Context, cfg *config.SpeechConfig) error {
	var voice openairt.Voice
	switch cfg.Voice {
	case "alloy":
		voice = openairt.VoiceAlloy
	case "echo":
		voice = openairt.VoiceEcho
	default:
		voice = openairt.VoiceShimmer
	}

	// Server VAD detects end of caller speech, but response creation stays
	// under the flow engine's control.
	createResponse := false

	sessionUpdate := &openairt.SessionUpdateEvent{
		Session: openairt.ClientSession{
			Modalities:        []openairt.Modality{openairt.ModalityText, openairt.ModalityAudio},
			Voice:             voice,
			OutputAudioFormat: openairt.AudioFormatPcm16,
			InputAudioTranscription: &openairt.InputAudioTranscription{
				Model: openai.Whisper1,
			},
			TurnDetection: &openairt.ClientTurnDetection{
				Type: openairt.ClientTurnDetectionTypeServerVad,
				TurnDetectionParams: openairt.TurnDetectionParams{
					Threshold:         cfg.VADThreshold,
					PrefixPaddingMs:   cfg.VADPrefixPaddingMs,
					SilenceDurationMs: cfg.VADSilenceDurationMs,
					CreateResponse:    &createResponse,
				},
			},
		},
	}

	return s.conn.SendMessage(ctx, sessionUpdate)
}

func (s *realtimeSession) SendAudio(ctx context.Context, pcm []byte) error {
	if s.closed.Load() {
		return errors.New("speech session closed")
	}

	event := &openairt.InputAudioBufferAppendEvent{
		Audio: base64.StdEncoding.EncodeToString(pcm),
	}

	return s.conn.SendMessage(ctx, event)
}

func (s *realtimeSession) CommitAudio(ctx context.Context) error {
	if s.closed.Load() {
		return errors.New("speech session closed")
	}

	return s.conn.SendMessage(ctx, &openairt.InputAudioBufferCommitEvent{})
}

func (s *realtimeSession) ClearAudio(ctx context.Context) error {
	if s.closed.Load() {
		return errors.New("speech session closed")
	}

	return s.conn.SendMessage(ctx, &openairt.InputAudioBufferClearEvent{})
}

func (s *realtimeSession) Speak(ctx context.Context, line string) error {
	if s.closed.Load() {
		return errors.New("speech session closed")
	}

	event := &openairt.ResponseCreateEvent{
		Response: openairt.ResponseCreateParams{
			Modalities:   []openairt.Modality{openairt.ModalityText, openairt.ModalityAudio},
			Instructions: "Say exactly the following, verbatim, warm and professional: " + line,
		},
	}

	return s.conn.SendMessage(ctx, event)
}

func (s *realtimeSession) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	return s.conn.Close()
}

func (s *realtimeSession) handleServerEvent(ctx context.Context, event openairt.ServerEvent) {
	switch event.ServerEventType() {
	case openairt.ServerEventTypeResponseAudioDelta:
		delta := event.(openairt.ResponseAudioDeltaEvent)
		if s.handlers.OnAudioDelta != nil && delta.Delta != "" {
			pcm, err := base64.StdEncoding.DecodeString(delta.Delta)
			if err != nil {
				s.logger.Error("Failed to decode audio delta", zap.Error(err))

				return
			}
			s.handlers.OnAudioDelta(ctx, pcm)
		}

	case openairt.ServerEventTypeResponseAudioDone:
		if s.handlers.OnAudioDone != nil {
			s.handlers.OnAudioDone(ctx)
		}

	case openairt.ServerEventTypeResponseAudioTranscriptDone:
		transcript := event.(openairt.ResponseAudioTranscriptDoneEvent)
		if s.handlers.OnAssistantTranscript != nil {
			s.handlers.OnAssistantTranscript(ctx, transcript.Transcript)
		}

	case openairt.ServerEventTypeConversationItemInputAudioTranscriptionCompleted:
		completed := event.(openairt.ConversationItemInputAudioTranscriptionCompletedEvent)
		if s.handlers.OnCallerTranscript != nil {
			s.handlers.OnCallerTranscript(ctx, completed.Transcript)
		}

	case openairt.ServerEventTypeConversationItemInputAudioTranscriptionFailed:
		failed := event.(openairt.ConversationItemInputAudioTranscriptionFailedEvent)
		s.logger.Warn("Caller audio transcription failed",
			zap.String("item_id", failed.ItemID),
			zap.String("error", failed.Error.Message))
		if s.handlers.OnCallerTranscript != nil {
			// A failed transcription behaves like silence downstream.
			s.handlers.OnCallerTranscript(ctx, "")
		}

	case openairt.ServerEventTypeResponseDone:
		done := event.(openairt.ResponseDoneEvent)
		if s.handlers.OnResponseDone != nil {
			var usage *Usage
			if done.Response.Usage != nil {
				usage = &Usage{
					InputTokens:       done.Response.Usage.InputTokens,
					OutputTokens:      done.Response.Usage.OutputTokens,
					InputAudioTokens:  done.Response.Usage.InputTokenDetails.AudioTokens,
					OutputAudioTokens: done.Response.Usage.OutputTokenDetails.AudioTokens,
				}
			}
			s.handlers.OnResponseDone(ctx, usage)
		}

	case openairt.ServerEventTypeError:
		errorEvent := event.(openairt.ErrorEvent)
		if s.handlers.OnError != nil {
			s.handlers.OnError(ctx, fmt.Errorf("speech service error: %s", errorEvent.Error.Message))
		}
	}
}
