package scheduling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/orbyn-ai/nova-voice-agent/internal/session"
	"github.com/orbyn-ai/nova-voice-agent/pkg/logging"
)

var calTracer = otel.Tracer("nova.internal.scheduling.calcom")

// calAPIVersion is the cal-api-version header Cal.com v2 bookings require.
const calAPIVersion = "2024-08-13"

// CalClient calls the Cal.com v2 API for availability and bookings.
type CalClient struct {
	apiKey      string
	eventTypeID int
	baseURL     string
	loc         *time.Location
	httpClient  *http.Client
	logger      *logging.Logger
}

// NewCalClient builds a Cal.com client. loc is the clinic's local zone used
// for slot display; baseURL defaults to the public v2 endpoint.
func NewCalClient(apiKey string, eventTypeID int, baseURL string, loc *time.Location, logger *logging.Logger) *CalClient {
	if baseURL == "" {
		baseURL = "https://api.cal.com/v2"
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CalClient{
		apiKey:      apiKey,
		eventTypeID: eventTypeID,
		baseURL:     baseURL,
		loc:         loc,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type slotsResponse struct {
	Data struct {
		Slots map[string][]struct {
			Time string `json:"time"`
		} `json:"slots"`
	} `json:"data"`
}

// ListSlots fetches available slots for the next horizonDays, converted to
// the clinic zone and sorted chronologically.
func (c *CalClient) ListSlots(ctx context.Context, horizonDays int) ([]SlotOffer, error) {
	ctx, span := calTracer.Start(ctx, "scheduling.calcom.list_slots")
	defer span.End()
	span.SetAttributes(attribute.Int("nova.cal.horizon_days", horizonDays))

	start := time.Now().In(c.loc)
	end := start.AddDate(0, 0, horizonDays)

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("eventTypeId", strconv.Itoa(c.eventTypeID))
	params.Set("startTime", start.Format("2006-01-02"))
	params.Set("endTime", end.Format("2006-01-02"))

	endpoint := fmt.Sprintf("%s/slots/available?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("scheduling: build slots request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("scheduling: fetch slots: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("scheduling: slots request returned %d: %s", resp.StatusCode, body)
		span.RecordError(err)
		return nil, err
	}

	var parsed slotsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("scheduling: decode slots: %w", err)
	}

	type timedSlot struct {
		at    time.Time
		offer SlotOffer
	}
	var timed []timedSlot
	for _, entries := range parsed.Data.Slots {
		for _, entry := range entries {
			at, err := time.Parse(time.RFC3339, entry.Time)
			if err != nil {
				c.logger.Warn("skipping unparsable slot time", "time", entry.Time, "error", err)
				continue
			}
			local := at.In(c.loc)
			timed = append(timed, timedSlot{
				at: at,
				offer: SlotOffer{
					Date:        local.Format("2006-01-02"),
					DisplayTime: local.Format("3:04 PM"),
					Start:       entry.Time,
				},
			})
		}
	}
	sort.Slice(timed, func(i, j int) bool { return timed[i].at.Before(timed[j].at) })

	slots := make([]SlotOffer, 0, len(timed))
	for _, s := range timed {
		slots = append(slots, s.offer)
	}
	span.SetAttributes(attribute.Int("nova.cal.slots", len(slots)))
	return slots, nil
}

type bookingPayload struct {
	EventTypeID int             `json:"eventTypeId"`
	Start       string          `json:"start"`
	Attendee    bookingAttendee `json:"attendee"`
	Metadata    map[string]any  `json:"metadata"`
}

type bookingAttendee struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"timeZone"`
	Language string `json:"language"`
}

// Book submits a booking for the given slot. The slot's Start timestamp is
// sent verbatim; the provider owns its interpretation.
func (c *CalClient) Book(ctx context.Context, booking BookingRequest) error {
	ctx, span := calTracer.Start(ctx, "scheduling.calcom.book")
	defer span.End()
	span.SetAttributes(attribute.String("nova.cal.start", booking.Start))

	payload := bookingPayload{
		EventTypeID: c.eventTypeID,
		Start:       booking.Start,
		Attendee: bookingAttendee{
			Name:     booking.Name,
			Email:    booking.Email,
			TimeZone: c.loc.String(),
			Language: string(session.LanguageEnglish),
		},
		Metadata: map[string]any{
			"source": "nova-voice-agent",
			"phone":  booking.Phone,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("scheduling: marshal booking: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bookings", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("scheduling: build booking request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("cal-api-version", calAPIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("scheduling: booking request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("scheduling: booking returned %d: %s", resp.StatusCode, respBody)
		span.RecordError(err)
		return err
	}

	c.logger.Info("cal.com booking created", "start", booking.Start)
	return nil
}
