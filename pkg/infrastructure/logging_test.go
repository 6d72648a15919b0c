package infrastructure_test

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zaptest"

	"github.com/dwellio/voicebridge/pkg/infrastructure"
)

func TestNewFxLoggerAdapter(t *testing.T) {
	logger := zaptest.NewLogger(t)

	adapter := infrastructure.NewFxLoggerAdapter(logger)

	var _ fxevent.Logger = adapter

	if adapter == nil {
		t.Fatal("NewFxLoggerAdapter returned nil")
	}
}

func TestFxLoggerAdapter_LogEvent(t *testing.T) {
	logger := zaptest.NewLogger(t)
	adapter := infrastructure.NewFxLoggerAdapter(logger)

	// None of these may panic; output goes through the zap test logger.
	events := []fxevent.Event{
		&fxevent.OnStartExecuting{CallerName: "caller", FunctionName: "fn"},
		&fxevent.OnStartExecuted{CallerName: "caller", FunctionName: "fn", Runtime: time.Millisecond},
		&fxevent.OnStartExecuted{CallerName: "caller", FunctionName: "fn", Err: errors.New("boom")},
		&fxevent.OnStopExecuting{CallerName: "caller", FunctionName: "fn"},
		&fxevent.OnStopExecuted{CallerName: "caller", FunctionName: "fn", Runtime: time.Millisecond},
		&fxevent.Supplied{TypeName: "T"},
		&fxevent.Provided{OutputTypeNames: []string{"A", "B"}},
		&fxevent.Invoking{FunctionName: "fn"},
		&fxevent.Invoked{FunctionName: "fn"},
		&fxevent.Invoked{FunctionName: "fn", Err: errors.New("boom")},
		&fxevent.Stopping{},
		&fxevent.Stopped{},
		&fxevent.RollingBack{StartErr: errors.New("boom")},
		&fxevent.RolledBack{},
		&fxevent.Started{},
		&fxevent.LoggerInitialized{ConstructorName: "ctor"},
	}

	for _, event := range events {
		adapter.LogEvent(event)
	}
}
