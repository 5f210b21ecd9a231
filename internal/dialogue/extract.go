package dialogue

import (
	"encoding/json"
	"strings"

	"github.com/orbyn-ai/nova-voice-agent/internal/session"
)

// ExtractedFields is the structured tail of one generated reply. Values live
// only for the turn: non-empty fields are merged into the session's contact
// record and the struct is discarded.
type ExtractedFields struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Service     string `json:"service"`
	ReadyToBook bool   `json:"ready_to_book"`
}

// parseReply splits raw generator output into the spoken reply and the
// trailing JSON block. The block is located between the last "{" and the
// last "}" of the output; anything that fails to decode degrades to an empty
// extraction with the full raw text spoken. Parsing never fails a turn.
func parseReply(raw string) (string, ExtractedFields) {
	var fields ExtractedFields

	open := strings.LastIndex(raw, "{")
	end := strings.LastIndex(raw, "}")
	if open == -1 || end < open {
		return strings.TrimSpace(raw), fields
	}

	if err := json.Unmarshal([]byte(raw[open:end+1]), &fields); err != nil {
		return strings.TrimSpace(raw), ExtractedFields{}
	}

	fields.Name = cleanValue(fields.Name)
	fields.Phone = cleanValue(fields.Phone)
	fields.Email = cleanValue(fields.Email)
	fields.Service = cleanValue(fields.Service)

	return strings.TrimSpace(raw[:open]), fields
}

// cleanValue normalizes model spellings of "no value" to the empty string.
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "null", "none", "n/a", "unknown":
		return ""
	}
	return v
}

// mergeCollected fills the contact record monotonically: a field already set
// is only ever replaced by another non-empty value.
func mergeCollected(collected *session.ContactInfo, fields ExtractedFields) {
	if fields.Name != "" {
		collected.Name = fields.Name
	}
	if fields.Phone != "" {
		collected.Phone = fields.Phone
	}
	if fields.Email != "" {
		collected.Email = fields.Email
	}
	if fields.Service != "" {
		collected.Service = fields.Service
	}
}
