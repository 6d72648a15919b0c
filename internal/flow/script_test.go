package flow_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwellio/voicebridge/internal/flow"
)

func TestLoadLibrary_EmbeddedDefaults(t *testing.T) {
	lib, err := flow.LoadLibrary("")
	require.NoError(t, err)

	for _, variant := range []string{"buyer", "seller", "investor", "expired-listing"} {
		script, ok := lib.Get(variant)
		require.True(t, ok, "missing %q", variant)
		assert.NotEmpty(t, script.Greeting)
		assert.NotEmpty(t, script.Closing)
		assert.NotEmpty(t, script.Steps)
	}

	outbound, _ := lib.Get("expired-listing")
	assert.Equal(t, flow.DirectionOutbound, outbound.Direction)
	assert.Len(t, outbound.Objections, 3)
}

func TestLoadLibrary_Validation(t *testing.T) {
	testCases := map[string]struct {
		yaml    string
		wantErr string
	}{
		"empty variant": {
			yaml: `
scripts:
  - variant: ""
    direction: inbound
    steps: [{key: a, prompt: hi}]
`,
			wantErr: "empty variant",
		},
		"unknown direction": {
			yaml: `
scripts:
  - variant: x
    direction: sideways
    steps: [{key: a, prompt: hi}]
`,
			wantErr: "unknown direction",
		},
		"no steps": {
			yaml: `
scripts:
  - variant: x
    direction: inbound
`,
			wantErr: "no steps",
		},
		"duplicate variant": {
			yaml: `
scripts:
  - variant: x
    direction: inbound
    steps: [{key: a, prompt: hi}]
  - variant: x
    direction: inbound
    steps: [{key: a, prompt: hi}]
`,
			wantErr: "duplicate",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scripts.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o600))

			_, err := flow.LoadLibrary(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewEngine_UnknownDirection(t *testing.T) {
	_, err := flow.NewEngine(&flow.Script{Variant: "x", Direction: "sideways"}, flow.CallInfo{}, nil)
	assert.Error(t, err)
}
