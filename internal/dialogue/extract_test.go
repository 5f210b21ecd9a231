package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantSpoken string
		wantFields ExtractedFields
	}{
		{
			name:       "spoken text with trailing block",
			raw:        `Nice to meet you, John! {"name": "John Smith", "phone": "+15551234567", "email": null, "service": null, "ready_to_book": false}`,
			wantSpoken: "Nice to meet you, John!",
			wantFields: ExtractedFields{Name: "John Smith", Phone: "+15551234567"},
		},
		{
			name:       "ready to book",
			raw:        `Let's do it! {"name": "Ana", "phone": "+15550001111", "email": "ana@example.com", "service": "marketing", "ready_to_book": true}`,
			wantSpoken: "Let's do it!",
			wantFields: ExtractedFields{Name: "Ana", Phone: "+15550001111", Email: "ana@example.com", Service: "marketing", ReadyToBook: true},
		},
		{
			name:       "no block at all",
			raw:        "How can I help you today?",
			wantSpoken: "How can I help you today?",
		},
		{
			name:       "malformed block degrades to full raw",
			raw:        `Sure thing {"name": "John",`,
			wantSpoken: `Sure thing {"name": "John",`,
		},
		{
			name:       "placeholder strings cleaned",
			raw:        `Got it. {"name": "unknown", "phone": "N/A", "email": "none", "service": "NULL", "ready_to_book": false}`,
			wantSpoken: "Got it.",
			wantFields: ExtractedFields{},
		},
		{
			name:       "braces mid-sentence use last pair",
			raw:        `The {best} option works. {"name": "Lee", "phone": null, "email": null, "service": null, "ready_to_book": false}`,
			wantSpoken: "The {best} option works.",
			wantFields: ExtractedFields{Name: "Lee"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spoken, fields := parseReply(tt.raw)
			assert.Equal(t, tt.wantSpoken, spoken)
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}
