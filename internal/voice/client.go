// Package voice places outbound telephony calls through the Vapi API.
// Without an API key the client runs in simulate mode: calls are logged and
// assigned synthetic IDs so the rest of the lifecycle still exercises.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aurahome/aura/internal/config"
	"github.com/aurahome/aura/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// HomeStatus supplies the current home state for the resolution report.
type HomeStatus interface {
	State() models.HomeState
}

// Client talks to the telephony provider. Each call is attempted exactly
// once; a retried dial risks ringing the homeowner twice.
type Client struct {
	apiKey        string
	phoneNumberID string
	baseURL       string
	home          HomeStatus
	httpClient    *http.Client
}

func NewClient(cfg config.VoiceConfig, home HomeStatus) *Client {
	if cfg.APIKey == "" {
		log.Warn().Msg("telephony API key not configured, voice calls will be simulated")
	}
	return &Client{
		apiKey:        cfg.APIKey,
		phoneNumberID: cfg.PhoneNumberID,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		home:          home,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// simulated reports whether the client is running without provider access.
func (c *Client) simulated() bool {
	return c.apiKey == ""
}

// PlaceWarningCall dials a homeowner about an active threat and returns the
// provider's call ID.
func (c *Client) PlaceWarningCall(ctx context.Context, phoneNumber, alertMessage string) (string, error) {
	phone := NormalizeE164(phoneNumber)
	firstMessage := "This is AURA. " + alertMessage
	assistantContext := fmt.Sprintf(`You are AURA, an AI smart home management system. You are calling a homeowner about a potential weather event.

URGENT ALERT: %s

INSTRUCTIONS:
1. Clearly communicate the urgent alert message above
2. Ask if they want you to prepare their home for the event
3. If they agree, confirm that resilience actions are being executed and that you will call back with a plan
4. If they decline, confirm that you will keep monitoring and call back if conditions change
5. Keep the conversation brief and professional
6. Always end with a clear next step`, alertMessage)

	return c.placeCall(ctx, "warning", phone, firstMessage, assistantContext)
}

// PlaceResolutionCall dials a homeowner with the post-action report,
// including the profit from any energy sales. Implements calls.Dialer.
func (c *Client) PlaceResolutionCall(ctx context.Context, phoneNumber string) (string, error) {
	phone := NormalizeE164(phoneNumber)
	profit := c.home.State().Financials.ProfitTodayUSD
	firstMessage := fmt.Sprintf(
		"This is AURA with a final report. The home is now secure and operating on battery power. The energy sale was successful, generating a profit of $%.2f. The situation is managed.",
		profit)
	assistantContext := fmt.Sprintf(`You are AURA, an AI smart home management system. You are calling a homeowner with a final report after successfully managing a weather event.

FINAL REPORT: %s

INSTRUCTIONS:
1. Clearly communicate the final report message above
2. Summarize what was accomplished: the home is secure on battery power and the energy sale generated $%.2f
3. Ask if they have any questions about the actions taken
4. Keep the conversation brief and professional
5. End with reassurance that their home is protected`, firstMessage, profit)

	return c.placeCall(ctx, "resolution", phone, firstMessage, assistantContext)
}

func (c *Client) placeCall(ctx context.Context, kind, phone, firstMessage, assistantContext string) (string, error) {
	if c.simulated() {
		callID := "sim_" + uuid.NewString()
		log.Info().
			Str("kind", kind).
			Str("phone", phone).
			Str("call_id", callID).
			Str("message", firstMessage).
			Msg("📞 simulated voice call")
		return callID, nil
	}

	payload := map[string]any{
		"phoneNumberId": c.phoneNumberID,
		"customer":      map[string]any{"number": phone},
		"assistant": map[string]any{
			"firstMessage": firstMessage,
			"model": map[string]any{
				"provider":    "xai",
				"model":       "grok-3",
				"temperature": 0.1,
				"messages": []map[string]any{
					{"role": "system", "content": assistantContext},
					{"role": "user", "content": firstMessage},
				},
			},
			"voice": map[string]any{"provider": "11labs", "voiceId": "burt"},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal call payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/call", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create call request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to place %s call: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%s call rejected with status %d: %s", kind, resp.StatusCode, respBody)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode call response: %w", err)
	}

	log.Info().
		Str("kind", kind).
		Str("phone", phone).
		Str("call_id", created.ID).
		Msg("📞 voice call placed")
	return created.ID, nil
}

// NormalizeE164 coerces common US number formats into E.164.
func NormalizeE164(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits
	case len(digits) == 10:
		return "+1" + digits
	}
	return phone
}
