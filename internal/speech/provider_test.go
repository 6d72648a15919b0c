package speech

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestForwardConnError(t *testing.T) {
	var got error
	s := &realtimeSession{
		logger: zaptest.NewLogger(t),
		handlers: EventHandlers{
			OnError: func(_ context.Context, err error) { got = err },
		},
	}

	s.forwardConnError(context.Background(), errors.New("connection reset"))

	assert.Error(t, got)
	assert.Contains(t, got.Error(), "connection reset")
}

func TestForwardConnError_AfterClose(t *testing.T) {
	var got error
	s := &realtimeSession{
		logger: zaptest.NewLogger(t),
		handlers: EventHandlers{
			OnError: func(_ context.Context, err error) { got = err },
		},
	}
	s.closed.Store(true)

	// A read failure during teardown is expected and must not surface.
	s.forwardConnError(context.Background(), errors.New("use of closed network connection"))

	assert.NoError(t, got)
}
