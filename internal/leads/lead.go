// Package leads persists the contact record captured during a call.
package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/orbyn-ai/nova-voice-agent/internal/session"
)

// Lead is one row/page written to the CRM for a finished call.
type Lead struct {
	ID              string    `json:"id"`
	CallID          string    `json:"call_id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email"`
	Service         string    `json:"service"`
	Status          string    `json:"status"`
	AppointmentTime string    `json:"appointment_time,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Sink records leads. Implementations are best-effort collaborators: callers
// log a failed Record and move on — a lost lead never alters the reply
// already decided for the caller.
type Sink interface {
	Record(ctx context.Context, lead *Lead) error
}

// FromSession builds the lead record for a call's terminal state.
func FromSession(sess *session.CallSession) *Lead {
	name := sess.Collected.Name
	if name == "" {
		name = "Unknown"
	}
	return &Lead{
		CallID:          sess.CallID,
		Name:            name,
		Phone:           sess.Collected.Phone,
		Email:           sess.Collected.Email,
		Service:         sess.Collected.Service,
		Status:          string(sess.Status),
		AppointmentTime: sess.AppointmentTime,
		Notes:           fmt.Sprintf("Call SID: %s", sess.CallID),
	}
}
