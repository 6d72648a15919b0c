// Package dialer places outbound campaign calls through the telephony
// provider's REST API and routes them back into the bridge via the answer
// webhook.
package dialer

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/dwellio/voicebridge/internal/config"
	"github.com/dwellio/voicebridge/internal/telephony"
)

// Dialer places outbound calls.
type Dialer interface {
	// PlaceCall dials the lead and returns the provider's call SID.
	PlaceCall(to string, meta telephony.CallMetadata) (string, error)
}

type twilioDialer struct {
	logger    *zap.Logger
	client    *twilio.RestClient
	callerID  string
	publicURL string
}

// NewDialer builds the provider-backed dialer from configuration.
func NewDialer(logger *zap.Logger, cfg *config.Config) Dialer {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.Telephony.AccountSID,
		Password: cfg.Telephony.AuthToken,
	})

	return &twilioDialer{
		logger:    logger,
		client:    client,
		callerID:  cfg.Telephony.CallerID,
		publicURL: strings.TrimSuffix(cfg.Server.PublicURL, "/"),
	}
}

func (d *twilioDialer) PlaceCall(to string, meta telephony.CallMetadata) (string, error) {
	if meta.LeadID == "" {
		meta.LeadID = uuid.NewString()
	}

	q := url.Values{}
	q.Set("leadId", meta.LeadID)
	q.Set("orgId", meta.OrgID)
	q.Set("flowVariant", meta.FlowVariant)

	params := &twilioapi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(d.callerID)
	params.SetUrl(d.publicURL + "/voice/answer?" + q.Encode())

	resp, err := d.client.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("place call: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}

	d.logger.Info("Outbound call placed",
		zap.String("to", to),
		zap.String("call_sid", sid),
		zap.String("flow_variant", meta.FlowVariant))

	return sid, nil
}
