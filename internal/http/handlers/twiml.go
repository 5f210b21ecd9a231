// Package handlers contains the Twilio-facing webhook endpoints.
package handlers

import (
	"encoding/xml"
	"net/http"

	"github.com/orbyn-ai/nova-voice-agent/internal/session"
)

// TwiML verb structs. Marshalled field order is the order Twilio executes
// the verbs, so the struct layouts below are load-bearing.

// Say speaks text to the caller.
type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

// Gather collects caller speech and posts it to Action.
type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr,omitempty"`
	Action        string   `xml:"action,attr,omitempty"`
	Method        string   `xml:"method,attr,omitempty"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Language      string   `xml:"language,attr,omitempty"`
	Say           *Say     `xml:"Say,omitempty"`
}

// Redirect transfers control to another webhook.
type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// VoiceResponse is the TwiML document returned to Twilio.
type VoiceResponse struct {
	XMLName  xml.Name `xml:"Response"`
	Gather   *Gather
	Say      *Say
	Redirect *Redirect
	Hangup   *Hangup
}

func writeTwiML(w http.ResponseWriter, resp *VoiceResponse) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Encode(resp)
}

// voiceFor picks the Polly voice for a call language.
func voiceFor(lang session.Language) string {
	if lang == session.LanguageSpanish {
		return "Polly.Lupe"
	}
	return "Polly.Joanna"
}

// localeFor picks the speech recognition locale for a call language.
func localeFor(lang session.Language) string {
	if lang == session.LanguageSpanish {
		return "es-US"
	}
	return "en-US"
}
