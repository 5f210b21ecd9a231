// Package session holds per-call conversation state for the voice agent.
// All state is process-local; a restart drops in-progress calls by design.
package session

import "time"

// Language is the spoken language of a call.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"
)

// Status tracks the lifecycle of a call. A session moves from StatusNew to
// exactly one terminal status and never transitions again.
type Status string

const (
	StatusNew           Status = "new"
	StatusBooked        Status = "booked"
	StatusNoBooking     Status = "no_booking"
	StatusNeedsCallback Status = "needs_callback"
)

// Terminal reports whether s is one of the terminal call statuses.
func (s Status) Terminal() bool {
	return s == StatusBooked || s == StatusNoBooking || s == StatusNeedsCallback
}

// Turn is a single utterance in the conversation, in insertion order.
type Turn struct {
	Role string    `json:"role"` // "user" or "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ContactInfo is the partial contact record collected during a call. Fields
// fill monotonically: once set they are only ever overwritten with another
// non-empty value, never cleared.
type ContactInfo struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Service string `json:"service,omitempty"`
}

// CallSession is the stateful record of one phone call, keyed by the
// telephony provider's call ID.
type CallSession struct {
	CallID          string      `json:"call_id"`
	CallerPhone     string      `json:"caller_phone,omitempty"`
	Language        Language    `json:"language"`
	Turns           []Turn      `json:"turns"`
	Collected       ContactInfo `json:"collected"`
	Status          Status      `json:"status"`
	AppointmentTime string      `json:"appointment_time,omitempty"`
	LeadRecorded    bool        `json:"lead_recorded"`
	StartedAt       time.Time   `json:"started_at"`
	LastActivityAt  time.Time   `json:"last_activity_at"`
}

// AppendTurn records one utterance at the end of the conversation history.
func (s *CallSession) AppendTurn(role, text string) {
	now := time.Now().UTC()
	s.Turns = append(s.Turns, Turn{Role: role, Text: text, At: now})
	s.LastActivityAt = now
}

// TransitionTo moves the session to a terminal status. It returns false and
// leaves the session untouched when a terminal status was already set.
func (s *CallSession) TransitionTo(status Status) bool {
	if s.Status != StatusNew || !status.Terminal() {
		return false
	}
	s.Status = status
	return true
}
