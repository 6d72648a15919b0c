package telephony_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwellio/voicebridge/internal/telephony"
)

func TestMetadataFromQuery(t *testing.T) {
	q := url.Values{}
	q.Set("leadId", "lead-1")
	q.Set("callId", "CA1")
	q.Set("flowVariant", "buyer")

	meta, ok := telephony.MetadataFromQuery(q)
	require.True(t, ok)
	assert.Equal(t, "CA1", meta.CallID)
	assert.Equal(t, "buyer", meta.FlowVariant)
	assert.NoError(t, meta.Validate())

	_, ok = telephony.MetadataFromQuery(url.Values{})
	assert.False(t, ok)
}

func TestMetadataFromStart_BlobRoundtrip(t *testing.T) {
	meta := telephony.CallMetadata{
		LeadID:      "lead-1",
		OrgID:       "org-1",
		CallID:      "CA1",
		FlowVariant: "seller",
	}

	start := &telephony.StartPayload{
		StreamSid: "MZ1",
		CustomParameters: map[string]string{
			telephony.MetadataParameter: telephony.EncodeMetadata(meta),
		},
	}

	got, err := telephony.MetadataFromStart(start)
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestMetadataFromStart_Errors(t *testing.T) {
	testCases := map[string]*telephony.StartPayload{
		"nil payload":  nil,
		"no parameter": {StreamSid: "MZ1"},
		"bad base64": {CustomParameters: map[string]string{
			telephony.MetadataParameter: "%%%not-base64%%%",
		}},
		"bad json": {CustomParameters: map[string]string{
			telephony.MetadataParameter: "bm90IGpzb24=",
		}},
	}

	for name, start := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := telephony.MetadataFromStart(start)
			assert.Error(t, err)
		})
	}
}

func TestCallMetadata_Validate(t *testing.T) {
	assert.Error(t, telephony.CallMetadata{FlowVariant: "buyer"}.Validate())
	assert.Error(t, telephony.CallMetadata{CallID: "CA1"}.Validate())
	assert.NoError(t, telephony.CallMetadata{CallID: "CA1", FlowVariant: "buyer"}.Validate())
}

func TestAnswerDocument(t *testing.T) {
	meta := telephony.CallMetadata{CallID: "CA1", FlowVariant: "buyer"}

	doc, err := telephony.AnswerDocument("https://bridge.example.com", meta)
	require.NoError(t, err)
	assert.Contains(t, doc, "<Connect>")
	assert.Contains(t, doc, "wss://bridge.example.com/media")
	assert.Contains(t, doc, telephony.EncodeMetadata(meta))
}
