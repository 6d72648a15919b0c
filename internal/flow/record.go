package flow

// FieldStatus tracks a captured field through its confirmation sub-dialog.
type FieldStatus string

const (
	FieldPending   FieldStatus = "pending"
	FieldConfirmed FieldStatus = "confirmed"
	FieldRejected  FieldStatus = "rejected"
)

// CapturedField is one intake answer: the raw transcript it came from and
// the typed value parsed out of it.
type CapturedField struct {
	Name          string
	RawTranscript string
	TypedValue    any
	Status        FieldStatus
}

// CallInfo identifies the call a flow is driving.
type CallInfo struct {
	LeadID string
	OrgID  string
	CallID string
}

// Record is the consolidated intake record handed off once a flow completes.
// The store treats it as an idempotent upsert keyed by CallID.
type Record struct {
	FlowVariant string         `json:"flowVariant"`
	LeadID      string         `json:"leadId"`
	OrgID       string         `json:"orgId"`
	CallID      string         `json:"callId"`
	Fields      map[string]any `json:"fields"`
	Notes       string         `json:"notes"`
}
