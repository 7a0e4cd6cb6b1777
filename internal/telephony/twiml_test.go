package telephony

import (
	"strings"
	"testing"

	"fieldservice-crm/internal/callsession"
)

func scriptedSession() callsession.CallSession {
	return callsession.CallSession{
		ID:          "c1",
		WorkspaceID: "w1",
		ScriptBody:  "Hi, following up on your quote.",
	}
}

func TestRenderCallScript_Human(t *testing.T) {
	out, err := RenderCallScript(scriptedSession(), "human")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Hi, following up on your quote.") {
		t.Fatalf("script missing from twiml: %s", out)
	}
	if !strings.Contains(out, `voice="alice"`) {
		t.Fatalf("expected default voice, got: %s", out)
	}
	if !strings.Contains(out, "<Hangup>") {
		t.Fatalf("expected trailing hangup, got: %s", out)
	}
}

func TestRenderCallScript_CustomVoice(t *testing.T) {
	s := scriptedSession()
	s.SpeechPlan = &callsession.SpeechPlan{Voice: "Polly.Joanna"}
	out, err := RenderCallScript(s, "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `voice="Polly.Joanna"`) {
		t.Fatalf("expected configured voice, got: %s", out)
	}
}

func TestRenderCallScript_MachineNoVoicemail(t *testing.T) {
	out, err := RenderCallScript(scriptedSession(), "machine_start")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<Say") {
		t.Fatalf("machine answer without voicemail must not speak: %s", out)
	}
	if !strings.Contains(out, "<Hangup>") {
		t.Fatalf("expected hangup, got: %s", out)
	}
}

func TestRenderCallScript_MachineVoicemailAllowed(t *testing.T) {
	s := scriptedSession()
	s.SpeechPlan = &callsession.SpeechPlan{AllowVoicemail: true}
	out, err := RenderCallScript(s, "machine_end_beep")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Hi, following up on your quote.") {
		t.Fatalf("voicemail message missing: %s", out)
	}
}

func TestRenderCallScript_EmptyScript(t *testing.T) {
	s := scriptedSession()
	s.ScriptBody = "   "
	if _, err := RenderCallScript(s, "human"); err == nil {
		t.Fatalf("expected error for empty script")
	}
}
