package notify

import (
	"fmt"

	"github.com/orbyn-ai/nova-voice-agent/internal/session"
)

// ConfirmationSMS builds the confirmation text sent after a booking.
func ConfirmationSMS(lang session.Language, name, when string) string {
	if name == "" {
		name = "there"
	}
	if lang == session.LanguageSpanish {
		return fmt.Sprintf(`¡Hola %s!

Tu consulta gratuita con Orbyn.ai está confirmada para %s.

Te llamaremos a este número. ¡Esperamos hablar contigo pronto!

- El equipo de Orbyn.ai`, name, when)
	}
	return fmt.Sprintf(`Hi %s!

Your free consultation with Orbyn.ai is confirmed for %s.

We'll call you at this number. Looking forward to speaking with you!

- The Orbyn.ai Team`, name, when)
}

// ConfirmationEmail builds the subject and body for the booking
// confirmation email.
func ConfirmationEmail(lang session.Language, name, when string) (subject, body string) {
	if name == "" {
		name = "there"
	}
	if lang == session.LanguageSpanish {
		subject = "Tu consulta con Orbyn.ai está confirmada"
		body = fmt.Sprintf(`Hola %s,

Tu consulta gratuita con Orbyn.ai está confirmada para %s.

Te llamaremos al número que nos proporcionaste. Si necesitas cambiar la cita, responde a este correo.

El equipo de Orbyn.ai`, name, when)
		return subject, body
	}
	subject = "Your Orbyn.ai consultation is confirmed"
	body = fmt.Sprintf(`Hi %s,

Your free consultation with Orbyn.ai is confirmed for %s.

We'll call you at the number you provided. If you need to reschedule, just reply to this email.

The Orbyn.ai Team`, name, when)
	return subject, body
}
