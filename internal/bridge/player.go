package bridge

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dwellio/voicebridge/internal/telephony"
	"github.com/dwellio/voicebridge/pkg/audio"
)

// player drains queued assistant audio to the caller socket in fixed-size
// frames at wall-clock playback speed, so the transport is never asked to
// buffer faster than the call can drain. This ticker is the only
// timer-driven piece of the bridge.
type player struct {
	logger    *zap.Logger
	conn      *telephony.Conn
	streamSid string

	// onDrained fires once each time the queue empties after markDone.
	onDrained func()

	mu       sync.Mutex
	buf      []byte
	done     bool
	markSeq  int
	stopOnce sync.Once
	stop     chan struct{}
}

func newPlayer(logger *zap.Logger, conn *telephony.Conn, streamSid string, onDrained func()) *player {
	return &player{
		logger:    logger,
		conn:      conn,
		streamSid: streamSid,
		onDrained: onDrained,
		stop:      make(chan struct{}),
	}
}

// enqueue appends companded audio to the playback queue.
func (p *player) enqueue(mulaw []byte) {
	p.mu.Lock()
	p.buf = append(p.buf, mulaw...)
	p.done = false
	p.mu.Unlock()
}

// markDone records that the current assistant utterance has no more audio
// coming; once the queue drains, onDrained fires.
func (p *player) markDone() {
	p.mu.Lock()
	p.done = true
	p.mu.Unlock()
}

func (p *player) shutdown() {
	p.stopOnce.Do(func() { close(p.stop) })
}

// run is the pacing loop. One frame per tick, 20 ms per frame.
func (p *player) run() {
	ticker := time.NewTicker(audio.FrameDurationMs * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			frame, drained, seq := p.nextFrame()
			if frame != nil {
				msg := telephony.NewMediaMessage(p.streamSid, frame)
				if err := p.conn.WriteMessage(msg); err != nil {
					p.logger.Debug("Playback write failed", zap.Error(err))

					return
				}
			}
			if drained {
				mark := telephony.NewMarkMessage(p.streamSid, fmt.Sprintf("utterance-%d", seq))
				if err := p.conn.WriteMessage(mark); err != nil {
					p.logger.Debug("Mark write failed", zap.Error(err))

					return
				}
				p.onDrained()
			}
		}
	}
}

// nextFrame pops up to one frame of audio; drained is true exactly once
// per finished utterance, after its last frame has been sent.
func (p *player) nextFrame() (frame []byte, drained bool, seq int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buf) > 0 {
		n := audio.TelephonyFrameSize
		if n > len(p.buf) {
			n = len(p.buf)
		}
		frame = p.buf[:n]
		p.buf = p.buf[n:]
	}

	if len(p.buf) == 0 && p.done {
		p.done = false
		p.markSeq++
		drained = true
		seq = p.markSeq
	}

	return frame, drained, seq
}
