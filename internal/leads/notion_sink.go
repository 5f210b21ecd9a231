package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/orbyn-ai/nova-voice-agent/pkg/logging"
)

// notionVersion pins the Notion API revision the payload shape targets.
const notionVersion = "2022-06-28"

// NotionSink writes leads as pages in a Notion database.
type NotionSink struct {
	token      string
	databaseID string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewNotionSink creates a sink for the given Notion database.
func NewNotionSink(token, databaseID, baseURL string, logger *logging.Logger) *NotionSink {
	if baseURL == "" {
		baseURL = "https://api.notion.com/v1"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &NotionSink{
		token:      token,
		databaseID: databaseID,
		baseURL:    baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Record creates one page with the lead's properties.
func (s *NotionSink) Record(ctx context.Context, lead *Lead) error {
	notes := lead.Notes
	if lead.AppointmentTime != "" {
		notes += fmt.Sprintf("\nAppointment: %s", lead.AppointmentTime)
	}

	payload := map[string]any{
		"parent": map[string]string{"database_id": s.databaseID},
		"properties": map[string]any{
			"Name": map[string]any{
				"title": []map[string]any{{"text": map[string]string{"content": lead.Name}}},
			},
			"Phone_Number": map[string]any{"phone_number": lead.Phone},
			"Email":        map[string]any{"email": lead.Email},
			"service": map[string]any{
				"rich_text": []map[string]any{{"text": map[string]string{"content": lead.Service}}},
			},
			"status": map[string]any{"select": map[string]string{"name": lead.Status}},
			"Date":   map[string]any{"date": map[string]string{"start": time.Now().UTC().Format(time.RFC3339)}},
			"notes": map[string]any{
				"rich_text": []map[string]any{{"text": map[string]string{"content": notes}}},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("leads: marshal notion page: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/pages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("leads: build notion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", notionVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("leads: notion request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("leads: notion returned %d: %s", resp.StatusCode, respBody)
	}

	s.logger.Info("notion lead created", "call_id", lead.CallID, "status", lead.Status)
	return nil
}
