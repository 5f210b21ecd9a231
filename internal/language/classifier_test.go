package language

import (
	"testing"

	"github.com/orbyn-ai/nova-voice-agent/internal/session"
)

func TestDetect(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name      string
		utterance string
		current   session.Language
		want      session.Language
	}{
		{
			name:      "three indicators flip to spanish",
			utterance: "Hola, necesito ayuda con mi negocio",
			current:   session.LanguageEnglish,
			want:      session.LanguageSpanish,
		},
		{
			name:      "single borrowed word stays english",
			utterance: "We met at the hola bar downtown",
			current:   session.LanguageEnglish,
			want:      session.LanguageEnglish,
		},
		{
			name:      "plain english stays english",
			utterance: "I'd like to book a consultation next week",
			current:   session.LanguageEnglish,
			want:      session.LanguageEnglish,
		},
		{
			name:      "two indicators flip",
			utterance: "Quisiera agendar para mañana",
			current:   session.LanguageEnglish,
			want:      session.LanguageSpanish,
		},
		{
			name:      "spanish is sticky through weak english turn",
			utterance: "ok",
			current:   session.LanguageSpanish,
			want:      session.LanguageSpanish,
		},
		{
			name:      "empty current defaults to english",
			utterance: "hello there",
			current:   "",
			want:      session.LanguageEnglish,
		},
		{
			name:      "case insensitive matching",
			utterance: "HOLA, NECESITO una cita",
			current:   session.LanguageEnglish,
			want:      session.LanguageSpanish,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Detect(tt.utterance, tt.current)
			if got != tt.want {
				t.Fatalf("Detect(%q, %s) = %s, want %s", tt.utterance, tt.current, got, tt.want)
			}
		})
	}
}
