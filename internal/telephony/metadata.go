package telephony

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
)

// CallMetadata identifies the call behind a media stream and selects the
// conversation flow that will drive it.
type CallMetadata struct {
	LeadID      string `json:"leadId"`
	OrgID       string `json:"orgId"`
	CallID      string `json:"callId"`
	FlowVariant string `json:"flowVariant"`
}

// Validate checks the fields no session can run without.
func (m CallMetadata) Validate() error {
	if m.CallID == "" {
		return fmt.Errorf("missing callId")
	}
	if m.FlowVariant == "" {
		return fmt.Errorf("missing flowVariant")
	}

	return nil
}

// MetadataFromQuery reads call metadata from upgrade-request query
// parameters. Returns false when none are present; the caller then waits
// for the start-event blob instead.
func MetadataFromQuery(q url.Values) (CallMetadata, bool) {
	m := CallMetadata{
		LeadID:      q.Get("leadId"),
		OrgID:       q.Get("orgId"),
		CallID:      q.Get("callId"),
		FlowVariant: q.Get("flowVariant"),
	}
	if m.CallID == "" && m.FlowVariant == "" {
		return CallMetadata{}, false
	}

	return m, true
}

// MetadataFromStart decodes the base64 JSON metadata blob carried in the
// start event's custom parameters.
func MetadataFromStart(start *StartPayload) (CallMetadata, error) {
	if start == nil {
		return CallMetadata{}, fmt.Errorf("no start payload")
	}
	blob, ok := start.CustomParameters[MetadataParameter]
	if !ok {
		return CallMetadata{}, fmt.Errorf("no %s parameter", MetadataParameter)
	}
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return CallMetadata{}, fmt.Errorf("decode metadata blob: %w", err)
	}

	var m CallMetadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return CallMetadata{}, fmt.Errorf("parse metadata blob: %w", err)
	}

	return m, nil
}

// MetadataParameter names the custom <Stream> parameter carrying the blob.
const MetadataParameter = "metadata"

// EncodeMetadata renders metadata as the base64 JSON blob form.
func EncodeMetadata(m CallMetadata) string {
	raw, _ := json.Marshal(m)

	return base64.StdEncoding.EncodeToString(raw)
}
