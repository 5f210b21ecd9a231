// Package language decides which language a call should continue in.
package language

import (
	"strings"

	"github.com/orbyn-ai/nova-voice-agent/internal/session"
)

// spanishIndicators are tokens that signal a Spanish utterance. Matching is
// case-insensitive substring containment; tokens are chosen to be unlikely
// inside ordinary English speech.
var spanishIndicators = []string{
	"hola",
	"necesito",
	"ayuda",
	"gracias",
	"buenos días",
	"buenos dias",
	"buenas tardes",
	"buenas noches",
	"quiero",
	"quisiera",
	"por favor",
	"hablar",
	"español",
	"espanol",
	"una cita",
	"agendar",
	"me llamo",
	"mi nombre es",
	"teléfono",
	"telefono",
	"correo",
}

// defaultThreshold is the number of distinct indicators required before a
// call flips to Spanish. One borrowed word must never switch the language
// mid-call; two independent signals is the product policy.
const defaultThreshold = 2

// Classifier detects the language of a single utterance.
type Classifier struct {
	indicators []string
	threshold  int
}

// NewClassifier returns a classifier with the default lexicon and threshold.
func NewClassifier() *Classifier {
	return &Classifier{indicators: spanishIndicators, threshold: defaultThreshold}
}

// Detect returns the language the call should continue in. The current
// language is sticky: it changes only when at least the threshold number of
// distinct Spanish indicators appear in the utterance.
func (c *Classifier) Detect(utterance string, current session.Language) session.Language {
	if current == "" {
		current = session.LanguageEnglish
	}
	lowered := strings.ToLower(utterance)
	matches := 0
	for _, token := range c.indicators {
		if strings.Contains(lowered, token) {
			matches++
			if matches >= c.threshold {
				return session.LanguageSpanish
			}
		}
	}
	return current
}
