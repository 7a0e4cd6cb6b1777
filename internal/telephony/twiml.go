package telephony

import (
	"encoding/xml"
	"errors"
	"strings"

	"fieldservice-crm/internal/callsession"
)

// Minimal TwiML builder for the scripted outbound leg.
// It intentionally avoids the provider SDK; only the verbs this adapter
// needs are modeled.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

const defaultVoice = "alice"

// RenderCallScript maps a session's script and speech plan to TwiML.
// answeredBy is Twilio's machine-detection result for this fetch; a machine
// answer hangs up unless the speech plan allows leaving voicemail.
func RenderCallScript(s callsession.CallSession, answeredBy string) (string, error) {
	script := strings.TrimSpace(s.ScriptBody)
	if script == "" {
		return "", errors.New("telephony: session has no script body")
	}

	var r twimlResponse

	if IsMachineAnswer(answeredBy) && (s.SpeechPlan == nil || !s.SpeechPlan.AllowVoicemail) {
		r.Verbs = append(r.Verbs, twimlHangup{})
		return renderTwiML(r)
	}

	voice := defaultVoice
	if s.SpeechPlan != nil && s.SpeechPlan.Voice != "" {
		voice = s.SpeechPlan.Voice
	}

	// Short leading pause so the first words are not clipped while the
	// callee raises the handset (or the voicemail beep fades).
	r.Verbs = append(r.Verbs, twimlPause{Length: 1})
	r.Verbs = append(r.Verbs, twimlSay{Voice: voice, Text: script})
	r.Verbs = append(r.Verbs, twimlHangup{})
	return renderTwiML(r)
}

func renderTwiML(r twimlResponse) (string, error) {
	var b strings.Builder
	b.WriteString(xml.Header)
	enc := xml.NewEncoder(&b)
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return b.String(), nil
}
