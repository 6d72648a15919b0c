package bridge

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dwellio/voicebridge/internal/flow"
	"github.com/dwellio/voicebridge/internal/speech"
	"github.com/dwellio/voicebridge/internal/store"
	"github.com/dwellio/voicebridge/internal/telephony"
	"github.com/dwellio/voicebridge/pkg/audio"
)

// inputCommitBytes is roughly 100 ms of 16-bit samples at the speech
// service rate; the input buffer is forwarded and committed once it
// reaches this size.
const inputCommitBytes = audio.ServiceSampleRate / 10 * 2

// minFlushBytes is the smallest leftover input worth force-flushing at
// session end; anything shorter is dropped as trailing noise.
const minFlushBytes = audio.ServiceFrameBytes

// session events. Everything that can happen to a call is funneled through
// one queue and handled by one goroutine; no session state is locked.
type sessionEvent interface{}

type callerAudioEvent struct{ mulaw []byte }

type callerTranscriptEvent struct{ text string }

type assistantAudioEvent struct{ pcm []byte }

type assistantAudioDoneEvent struct{}

type playbackDrainedEvent struct{}

type speechErrorEvent struct{ err error }

type callStoppedEvent struct{}

type session struct {
	logger *zap.Logger
	meta   telephony.CallMetadata

	conn      *telephony.Conn
	streamSid string
	speech    speech.Session
	engine    flow.Engine
	records   store.RecordStore

	gate   *micGate
	player *player
	events chan sessionEvent

	inputBuf []byte
	// closing is set once the final utterance is queued; the session tears
	// down after its playback drains.
	closing   bool
	handedOff bool
}

func newSession(
	logger *zap.Logger,
	meta telephony.CallMetadata,
	conn *telephony.Conn,
	streamSid string,
	engine flow.Engine,
	records store.RecordStore,
) *session {
	s := &session{
		logger:    logger.With(zap.String("call_id", meta.CallID), zap.String("flow_variant", meta.FlowVariant)),
		meta:      meta,
		conn:      conn,
		streamSid: streamSid,
		engine:    engine,
		records:   records,
		gate:      newMicGate(),
		events:    make(chan sessionEvent, 256),
	}
	s.player = newPlayer(s.logger, conn, streamSid, func() {
		s.post(playbackDrainedEvent{})
	})

	return s
}

// handlers returns the speech-service callbacks, each of which just posts
// onto the session queue.
func (s *session) handlers() speech.EventHandlers {
	return speech.EventHandlers{
		OnAudioDelta: func(_ context.Context, pcm []byte) {
			s.post(assistantAudioEvent{pcm: pcm})
		},
		OnAudioDone: func(context.Context) {
			s.post(assistantAudioDoneEvent{})
		},
		OnCallerTranscript: func(_ context.Context, text string) {
			s.post(callerTranscriptEvent{text: text})
		},
		OnAssistantTranscript: func(_ context.Context, text string) {
			s.logger.Debug("Assistant said", zap.String("transcript", text))
		},
		OnError: func(_ context.Context, err error) {
			s.post(speechErrorEvent{err: err})
		},
	}
}

// post never blocks the producer; a full queue drops the event, which for
// audio means a skipped chunk, never a wedged socket.
func (s *session) post(ev sessionEvent) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("Session event queue full, dropping event")
	}
}

// run drives the call to completion. It owns all session state; the caller
// reader, player, and speech handler goroutines only post events.
func (s *session) run(ctx context.Context, sp speech.Session) {
	s.speech = sp

	go s.player.run()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.readCaller()
	}()

	// The assistant opens the call; the mic stays locked until the opening
	// line finishes playing.
	opening := s.engine.Opening()
	if err := s.speech.Speak(ctx, opening.Say); err != nil {
		s.logger.Error("Failed to speak opening line", zap.Error(err))
	}

	s.loop(ctx)

	s.player.shutdown()
	s.conn.Close()
	s.speech.Close()
	wg.Wait()

	forwarded, dropped := s.gate.Counts()
	s.logger.Info("Session finished",
		zap.Int64("frames_forwarded", forwarded),
		zap.Int64("frames_dropped", dropped),
		zap.Bool("flow_completed", s.engine.Completed()))
}

func (s *session) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			switch e := ev.(type) {
			case callerAudioEvent:
				s.onCallerAudio(ctx, e.mulaw)
			case callerTranscriptEvent:
				if done := s.onCallerTranscript(ctx, e.text); done {
					return
				}
			case assistantAudioEvent:
				s.onAssistantAudio(e.pcm)
			case assistantAudioDoneEvent:
				s.player.markDone()
			case playbackDrainedEvent:
				if done := s.onPlaybackDrained(ctx); done {
					return
				}
			case speechErrorEvent:
				// Speech errors are fatal for the session; there is no
				// reconnect path.
				s.logger.Error("Speech service error, ending session", zap.Error(e.err))

				return
			case callStoppedEvent:
				s.onCallStopped(ctx)

				return
			}
		}
	}
}

// readCaller pumps the media socket into the event queue.
func (s *session) readCaller() {
	for {
		msg, err := s.conn.ReadMessage()
		if err != nil {
			s.post(callStoppedEvent{})

			return
		}
		if msg == nil {
			// Malformed frame, dropped silently.
			continue
		}

		switch msg.Event {
		case telephony.EventMedia:
			if mulaw := msg.AudioBytes(); mulaw != nil {
				s.post(callerAudioEvent{mulaw: mulaw})
			}
		case telephony.EventStop:
			s.post(callStoppedEvent{})

			return
		}
	}
}

// onCallerAudio converts one caller frame and forwards it once enough has
// accumulated. Frames arriving while the mic is locked never reach the
// speech service.
func (s *session) onCallerAudio(ctx context.Context, mulaw []byte) {
	if !s.gate.Admit() {
		return
	}

	pcm8k := audio.DecodeMulaw(mulaw)
	pcm24k := audio.Resample(pcm8k, audio.TelephonySampleRate, audio.ServiceSampleRate)
	s.inputBuf = append(s.inputBuf, audio.PCMInt16ToLE(pcm24k)...)

	if len(s.inputBuf) < inputCommitBytes {
		return
	}

	s.flushInput(ctx)
}

func (s *session) flushInput(ctx context.Context) {
	if len(s.inputBuf) == 0 {
		return
	}
	if err := s.speech.SendAudio(ctx, s.inputBuf); err != nil {
		s.logger.Warn("Failed to forward caller audio", zap.Error(err))
	} else if err := s.speech.CommitAudio(ctx); err != nil {
		s.logger.Warn("Failed to commit caller audio", zap.Error(err))
	}
	s.inputBuf = s.inputBuf[:0]
}

// onCallerTranscript advances the flow engine. An empty transcript is the
// silence signal: the turn window closed without recognizable speech.
func (s *session) onCallerTranscript(ctx context.Context, text string) (done bool) {
	if s.closing {
		return false
	}

	var turn flow.Turn
	if text == "" {
		turn = s.engine.HandleSilence()
	} else {
		s.logger.Debug("Caller said", zap.String("transcript", text))
		turn = s.engine.HandleTranscript(text)
	}

	if turn.Say == "" {
		return turn.Completed && s.finalize(ctx)
	}

	// The assistant is about to talk; lock the mic and commit whatever
	// tail of the utterance is still buffered locally so the service sees
	// the complete turn.
	s.gate.Lock()
	s.flushInput(ctx)

	if turn.Completed {
		s.closing = true
	}
	if err := s.speech.Speak(ctx, turn.Say); err != nil {
		s.logger.Error("Failed to speak next prompt", zap.Error(err))
		if turn.Completed {
			return s.finalize(ctx)
		}
	}

	return false
}

func (s *session) onPlaybackDrained(ctx context.Context) (done bool) {
	if s.closing {
		return s.finalize(ctx)
	}

	// Re-arm the turn window: anything the service buffered while the
	// assistant was talking is stale.
	if err := s.speech.ClearAudio(ctx); err != nil {
		s.logger.Debug("Failed to clear remote input buffer", zap.Error(err))
	}
	s.gate.Open()

	return false
}

func (s *session) onAssistantAudio(pcm []byte) {
	pcm24k := audio.LEToPCMInt16(pcm)
	pcm8k := audio.Resample(pcm24k, audio.ServiceSampleRate, audio.TelephonySampleRate)
	s.player.enqueue(audio.EncodeMulaw(pcm8k))
}

func (s *session) onCallStopped(ctx context.Context) {
	s.flushLeftover(ctx)
	if s.engine.Completed() {
		s.handoff(ctx)
	}
}

// flushLeftover force-flushes trailing input at session end. Anything
// shorter than one service frame is dropped as noise.
func (s *session) flushLeftover(ctx context.Context) {
	if len(s.inputBuf) >= minFlushBytes {
		s.flushInput(ctx)

		return
	}
	s.inputBuf = s.inputBuf[:0]
}

// finalize hands the record off after the closing line has played.
func (s *session) finalize(ctx context.Context) bool {
	s.handoff(ctx)

	return true
}

func (s *session) handoff(ctx context.Context) {
	if s.handedOff {
		return
	}
	rec := s.engine.Record()
	if rec == nil {
		return
	}
	s.handedOff = true

	if err := s.records.SaveRecord(ctx, rec); err != nil {
		s.logger.Error("Record handoff failed", zap.Error(err))
	}
}
