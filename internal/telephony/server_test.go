package telephony

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dwellio/voicebridge/internal/config"
	"github.com/dwellio/voicebridge/internal/flow"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	lib, err := flow.LoadLibrary("")
	require.NoError(t, err)

	return &Server{
		logger: zaptest.NewLogger(t),
		cfg: &config.Config{
			Server: config.ServerConfig{PublicURL: "https://bridge.example.com"},
		},
		scripts: lib,
	}
}

func TestHandleAnswer_KnownVariantConnects(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"CallSid": {"CA100"}}
	r := httptest.NewRequest("POST", "/voice/answer?flowVariant=seller",
		strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	s.handleAnswer(w, r)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "text/xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<Connect")
	assert.Contains(t, w.Body.String(), "wss://bridge.example.com/media")
}

func TestHandleAnswer_UnknownVariantHangsUp(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"CallSid": {"CA100"}}
	r := httptest.NewRequest("POST", "/voice/answer?flowVariant=timeshare",
		strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	s.handleAnswer(w, r)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "<Hangup")
	assert.NotContains(t, w.Body.String(), "<Connect")
}

func TestHandleAnswer_DefaultsToBuyerVariant(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"CallSid": {"CA100"}}
	r := httptest.NewRequest("POST", "/voice/answer", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	s.handleAnswer(w, r)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "<Connect")
}
