// Package notify delivers best-effort confirmations to callers. Nothing in
// this package may block or fail the primary call flow; callers log errors
// and move on.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/orbyn-ai/nova-voice-agent/pkg/logging"
)

var smsTracer = otel.Tracer("nova.internal.notify.sms")

// SMSSender sends a single text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// TwilioSMSSender posts messages through Twilio's REST API.
type TwilioSMSSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTwilioSMSSender builds a sender with sane defaults.
func NewTwilioSMSSender(accountSID, authToken, from string, logger *logging.Logger) *TwilioSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSMSSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    "https://api.twilio.com/2010-04-01",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// SendSMS dispatches one SMS, retrying transient failures.
func (s *TwilioSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if s.accountSID == "" || s.authToken == "" {
		return errors.New("notify: twilio credentials missing")
	}
	if to == "" {
		return errors.New("notify: to required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("notify: body required")
	}

	ctx, span := smsTracer.Start(ctx, "notify.twilio.send")
	defer span.End()
	span.SetAttributes(attribute.String("nova.sms.to", to))

	payload := url.Values{}
	payload.Set("To", to)
	payload.Set("From", s.from)
	payload.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
		if err != nil {
			lastErr = err
			break
		}
		req.SetBasicAuth(s.accountSID, s.authToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				var parsed struct {
					SID string `json:"sid"`
				}
				_ = json.Unmarshal(respBody, &parsed)
				s.logger.Info("sms sent", "to", to, "provider_message_id", parsed.SID)
				return nil
			}
			lastErr = fmt.Errorf("notify: twilio send returned %d: %s", resp.StatusCode, respBody)
			// Don't retry non-rate-limit 4xx errors.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				break
			}
		}

		if attempt < 3 {
			time.Sleep(time.Duration(200+rand.Intn(300)) * time.Millisecond)
		}
	}

	if lastErr != nil {
		span.RecordError(lastErr)
	}
	return lastErr
}
