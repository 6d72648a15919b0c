package telephony

import (
	"strings"

	"github.com/twilio/twilio-go/twiml"
)

// AnswerDocument renders the TwiML that connects an answered call to the
// media stream endpoint, smuggling call metadata in as a stream parameter.
func AnswerDocument(publicURL string, meta CallMetadata) (string, error) {
	stream := &twiml.VoiceStream{
		Url: streamURL(publicURL),
		InnerElements: []twiml.Element{
			&twiml.VoiceParameter{
				Name:  MetadataParameter,
				Value: EncodeMetadata(meta),
			},
		},
	}
	connect := &twiml.VoiceConnect{
		InnerElements: []twiml.Element{stream},
	}

	return twiml.Voice([]twiml.Element{connect})
}

// RejectDocument renders the TwiML for calls the bridge refuses to take.
func RejectDocument(reason string) (string, error) {
	say := &twiml.VoiceSay{
		Message: reason,
	}
	hangup := &twiml.VoiceHangup{}

	return twiml.Voice([]twiml.Element{say, hangup})
}

func streamURL(publicURL string) string {
	u := publicURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}

	return strings.TrimSuffix(u, "/") + "/media"
}
