// Package call orchestrates one phone call end to end: turns, the booking
// hand-off, and finalization when the call ends.
package call

import (
	"fmt"

	"github.com/orbyn-ai/nova-voice-agent/internal/session"
)

// Greeting opens the call when the caller connects.
func Greeting(lang session.Language) string {
	if lang == session.LanguageSpanish {
		return "¡Hola! Soy Nova de Orbyn A I. ¡Gracias por llamar! ¿Cómo te puedo ayudar hoy?"
	}
	return "Hi! This is Nova from Orbyn A I. Thanks for calling! How can I help you today?"
}

// RePrompt asks the caller to repeat after an empty speech result.
func RePrompt(lang session.Language) string {
	if lang == session.LanguageSpanish {
		return "No te escuché bien. ¿Puedes repetirlo?"
	}
	return "I didn't catch that. Could you repeat?"
}

// NoInputGoodbye closes the call when the caller never speaks.
func NoInputGoodbye(lang session.Language) string {
	if lang == session.LanguageSpanish {
		return "No escuché nada. Por favor llama de nuevo cuando estés listo. ¡Adiós!"
	}
	return "I didn't hear anything. Please call back when you're ready. Goodbye!"
}

// StillThere nudges a silent caller mid-conversation.
func StillThere(lang session.Language) string {
	if lang == session.LanguageSpanish {
		return "¿Sigues ahí?"
	}
	return "Are you still there?"
}

// ApologyGoodbye closes the call after an internal failure.
func ApologyGoodbye(lang session.Language) string {
	if lang == session.LanguageSpanish {
		return "Estoy teniendo dificultades técnicas. Haré que alguien te devuelva la llamada. ¡Adiós!"
	}
	return "I'm having some technical difficulties. Let me have someone call you back. Goodbye!"
}

// CallbackGoodbye closes the call when booking could not complete.
func CallbackGoodbye(lang session.Language) string {
	if lang == session.LanguageSpanish {
		return "Tengo problemas para agendar en este momento. Haré que alguien te devuelva la llamada. ¡Adiós!"
	}
	return "I'm having trouble booking right now. Let me have someone call you back. Goodbye!"
}

// BookedGoodbye confirms the appointment and closes the call.
func BookedGoodbye(lang session.Language, when string) string {
	if lang == session.LanguageSpanish {
		return fmt.Sprintf("¡Perfecto! Te agendé para %s. Acabo de enviarte un mensaje de confirmación. ¡Esperamos hablar contigo! ¡Adiós!", when)
	}
	return fmt.Sprintf("Perfect! I've booked you for %s. I just sent a confirmation text. Looking forward to speaking with you! Goodbye!", when)
}
