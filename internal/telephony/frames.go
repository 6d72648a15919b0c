// Package telephony carries the caller-side media stream leg: the WebSocket
// wire frames, the HTTP listener the provider connects to, and the TwiML
// answer documents that point calls at it.
package telephony

import (
	"encoding/base64"
	"encoding/json"
)

// Media stream event names.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventMark      = "mark"
	EventStop      = "stop"
)

// StreamMessage is one JSON frame on the media stream socket.
type StreamMessage struct {
	Event     string        `json:"event"`
	StreamSid string        `json:"streamSid,omitempty"`
	Start     *StartPayload `json:"start,omitempty"`
	Media     *MediaPayload `json:"media,omitempty"`
	Mark      *MarkPayload  `json:"mark,omitempty"`
}

// StartPayload opens a stream and may carry custom parameters from the
// TwiML <Stream> verb.
type StartPayload struct {
	StreamSid        string            `json:"streamSid"`
	CallSid          string            `json:"callSid"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

// MediaPayload carries one base64 companded-audio chunk.
type MediaPayload struct {
	Payload   string `json:"payload"`
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// MarkPayload echoes a playback marker back once the provider has played
// all audio queued before it.
type MarkPayload struct {
	Name string `json:"name"`
}

// ParseMessage decodes one wire frame. Callers drop malformed frames
// silently per the transport contract.
func ParseMessage(data []byte) (*StreamMessage, error) {
	var msg StreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}

	return &msg, nil
}

// AudioBytes decodes the media payload, or nil when absent/invalid.
func (m *StreamMessage) AudioBytes() []byte {
	if m.Media == nil || m.Media.Payload == "" {
		return nil
	}
	audio, err := base64.StdEncoding.DecodeString(m.Media.Payload)
	if err != nil {
		return nil
	}

	return audio
}

// NewMediaMessage builds an outbound audio frame for the caller leg.
func NewMediaMessage(streamSid string, mulaw []byte) *StreamMessage {
	return &StreamMessage{
		Event:     EventMedia,
		StreamSid: streamSid,
		Media:     &MediaPayload{Payload: base64.StdEncoding.EncodeToString(mulaw)},
	}
}

// NewMarkMessage builds a playback marker frame.
func NewMarkMessage(streamSid, name string) *StreamMessage {
	return &StreamMessage{
		Event:     EventMark,
		StreamSid: streamSid,
		Mark:      &MarkPayload{Name: name},
	}
}
