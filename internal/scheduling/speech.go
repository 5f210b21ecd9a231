package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/orbyn-ai/nova-voice-agent/internal/session"
)

var spanishWeekdays = map[time.Weekday]string{
	time.Sunday:    "domingo",
	time.Monday:    "lunes",
	time.Tuesday:   "martes",
	time.Wednesday: "miércoles",
	time.Thursday:  "jueves",
	time.Friday:    "viernes",
	time.Saturday:  "sábado",
}

// FormatSlotsForSpeech renders up to the first three slots as a natural
// spoken sentence, grouped by day.
func FormatSlotsForSpeech(slots []SlotOffer, lang session.Language) string {
	if len(slots) == 0 {
		if lang == session.LanguageSpanish {
			return "No tengo horarios disponibles en este momento."
		}
		return "I don't have any available slots right now."
	}

	if len(slots) > 3 {
		slots = slots[:3]
	}

	// Preserve chronological order while grouping times under each date.
	var dates []string
	byDate := make(map[string][]string)
	for _, slot := range slots {
		if _, ok := byDate[slot.Date]; !ok {
			dates = append(dates, slot.Date)
		}
		byDate[slot.Date] = append(byDate[slot.Date], slot.DisplayTime)
	}

	spanish := lang == session.LanguageSpanish
	var parts []string
	for _, date := range dates {
		times := byDate[date]
		day := dayName(date, spanish)
		if spanish {
			parts = append(parts, fmt.Sprintf("el %s a las %s", day, joinTimes(times, "o")))
		} else {
			parts = append(parts, fmt.Sprintf("%s at %s", day, joinTimes(times, "or")))
		}
	}

	if spanish {
		return "Tengo disponibilidad " + strings.Join(parts, ", ") + ". ¿Cuál te conviene más?"
	}
	return "I have openings " + strings.Join(parts, ", ") + ". Which works best for you?"
}

// FormatSlotWhen renders one slot as "<date> at <time>" for confirmation
// messages and the spoken booking confirmation.
func FormatSlotWhen(slot SlotOffer, lang session.Language) string {
	if lang == session.LanguageSpanish {
		return fmt.Sprintf("%s a las %s", slot.Date, slot.DisplayTime)
	}
	return fmt.Sprintf("%s at %s", slot.Date, slot.DisplayTime)
}

func dayName(date string, spanish bool) string {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	if spanish {
		return spanishWeekdays[parsed.Weekday()]
	}
	return parsed.Weekday().String()
}

func joinTimes(times []string, conj string) string {
	switch len(times) {
	case 1:
		return times[0]
	default:
		return strings.Join(times[:len(times)-1], ", ") + ", " + conj + " " + times[len(times)-1]
	}
}
