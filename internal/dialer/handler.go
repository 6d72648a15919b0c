package dialer

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dwellio/voicebridge/internal/telephony"
)

// dialRequest is the campaign trigger payload.
type dialRequest struct {
	To          string `json:"to"`
	LeadID      string `json:"leadId"`
	OrgID       string `json:"orgId"`
	FlowVariant string `json:"flowVariant"`
}

// Handler exposes the campaign dial trigger over HTTP.
type Handler struct {
	logger *zap.Logger
	dialer Dialer
}

// NewHandler builds the campaign endpoint handler.
func NewHandler(logger *zap.Logger, dialer Dialer) *Handler {
	return &Handler{logger: logger, dialer: dialer}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	var req dialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)

		return
	}
	if req.To == "" || req.FlowVariant == "" {
		http.Error(w, "to and flowVariant are required", http.StatusBadRequest)

		return
	}

	sid, err := h.dialer.PlaceCall(req.To, telephony.CallMetadata{
		LeadID:      req.LeadID,
		OrgID:       req.OrgID,
		FlowVariant: req.FlowVariant,
	})
	if err != nil {
		h.logger.Error("Campaign dial failed", zap.Error(err))
		http.Error(w, "dial failed", http.StatusBadGateway)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"callSid": sid})
}
