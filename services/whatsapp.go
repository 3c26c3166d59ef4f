package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"evara-backend/config"
)

// WhatsAppService talks to the WhatsApp Cloud API. It is constructed once at
// startup and passed into the dispatcher, reconciler and handlers — never a
// package-level singleton, so tests can swap it for a fake.
type WhatsAppService struct {
	APIURL        string
	PhoneNumberID string
	AccessToken   string
	VerifyToken   string
	CountryCode   string
	MessageDelay  time.Duration // pause between the sub-sends of one invite
	HTTPClient    *http.Client
}

func NewWhatsAppService(cfg *config.Config) *WhatsAppService {
	return &WhatsAppService{
		APIURL:        cfg.WhatsAppAPIURL,
		PhoneNumberID: cfg.WhatsAppPhoneID,
		AccessToken:   cfg.WhatsAppAccessToken,
		VerifyToken:   cfg.WhatsAppVerifyToken,
		CountryCode:   cfg.WhatsAppCountryCode,
		MessageDelay:  1 * time.Second,
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

// IsConfigured reports whether provider credentials are present. Callers must
// treat "not configured" as a distinct, non-retriable condition.
func (ws *WhatsAppService) IsConfigured() bool {
	return ws.PhoneNumberID != "" && ws.AccessToken != ""
}

// InviteContent is the renderable content of one invite version.
type InviteContent struct {
	Title  string   `json:"title"`
	Text   string   `json:"text"`
	Images []string `json:"images"`
	Videos []string `json:"videos"`
}

// SendResult is the outcome of one provider API call. The serialized form is
// stored on Distribution rows and later matched by message id, so MessageID
// must survive a round trip through JSON.
type SendResult struct {
	Success   bool            `json:"success"`
	MessageID string          `json:"messageId,omitempty"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Response  json.RawMessage `json:"response,omitempty"`
}

// InviteSendResult aggregates the sub-sends of one invite (text + media).
type InviteSendResult struct {
	Success bool         `json:"success"`
	Status  string       `json:"status"` // sent, partial_failure, failed
	Results []SendResult `json:"results"`
}

// Cloud API request/response shapes
type waTextMessage struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             *waTextBody `json:"text,omitempty"`
	Image            *waMedia    `json:"image,omitempty"`
	Video            *waMedia    `json:"video,omitempty"`
	Template         *waTemplate `json:"template,omitempty"`
}

type waTextBody struct {
	Body string `json:"body"`
}

type waMedia struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

type waTemplate struct {
	Name       string        `json:"name"`
	Language   waTemplateLang `json:"language"`
	Components []interface{} `json:"components"`
}

type waTemplateLang struct {
	Code string `json:"code"`
}

type waSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// FormatPhoneNumber normalizes a number to the provider's digits-only form:
// strip everything that is not a digit (including a leading +) and prepend
// the default country code when the remainder looks like a bare local number.
// Idempotent: formatting an already-formatted number is a no-op.
func (ws *WhatsAppService) FormatPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	formatted := b.String()

	if len(formatted) == 10 {
		formatted = ws.CountryCode + formatted
	}

	return formatted
}

// SendText sends a plain text message.
func (ws *WhatsAppService) SendText(ctx context.Context, to, body string) SendResult {
	msg := waTextMessage{
		MessagingProduct: "whatsapp",
		To:               ws.FormatPhoneNumber(to),
		Type:             "text",
		Text:             &waTextBody{Body: body},
	}
	return ws.post(ctx, msg)
}

// SendMedia sends one image or video by URL with an optional caption.
func (ws *WhatsAppService) SendMedia(ctx context.Context, to, mediaURL, mediaType, caption string) SendResult {
	msg := waTextMessage{
		MessagingProduct: "whatsapp",
		To:               ws.FormatPhoneNumber(to),
		Type:             mediaType,
	}
	media := &waMedia{Link: mediaURL, Caption: caption}
	if mediaType == "video" {
		msg.Video = media
	} else {
		msg.Image = media
	}
	return ws.post(ctx, msg)
}

// SendTemplate sends a pre-approved template message (business accounts).
func (ws *WhatsAppService) SendTemplate(ctx context.Context, to, templateName string, components []interface{}) SendResult {
	msg := waTextMessage{
		MessagingProduct: "whatsapp",
		To:               ws.FormatPhoneNumber(to),
		Type:             "template",
		Template: &waTemplate{
			Name:       templateName,
			Language:   waTemplateLang{Code: "en_US"},
			Components: components,
		},
	}
	return ws.post(ctx, msg)
}

// SendInvite sends the text first, then each image, then each video, pausing
// MessageDelay between messages as rate-limit courtesy. Success only if every
// sub-send succeeded; otherwise partial_failure with all sub-results attached.
func (ws *WhatsAppService) SendInvite(ctx context.Context, to string, content InviteContent) InviteSendResult {
	text := content.Text
	if content.Title != "" {
		text = fmt.Sprintf("*%s*\n\n%s", content.Title, content.Text)
	}

	results := []SendResult{ws.SendText(ctx, to, text)}

	for _, imageURL := range content.Images {
		if err := sleepCtx(ctx, ws.MessageDelay); err != nil {
			break
		}
		results = append(results, ws.SendMedia(ctx, to, imageURL, "image", ""))
	}

	for _, videoURL := range content.Videos {
		if err := sleepCtx(ctx, ws.MessageDelay); err != nil {
			break
		}
		results = append(results, ws.SendMedia(ctx, to, videoURL, "video", ""))
	}

	allSuccessful := true
	for _, r := range results {
		if !r.Success {
			allSuccessful = false
			break
		}
	}

	status := "sent"
	if !allSuccessful {
		status = "partial_failure"
	}

	return InviteSendResult{
		Success: allSuccessful,
		Status:  status,
		Results: results,
	}
}

func (ws *WhatsAppService) post(ctx context.Context, msg waTextMessage) SendResult {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return SendResult{Success: false, Status: "failed", Error: err.Error()}
	}

	url := fmt.Sprintf("%s/%s/messages", ws.APIURL, ws.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return SendResult{Success: false, Status: "failed", Error: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ws.AccessToken)

	resp, err := ws.HTTPClient.Do(req)
	if err != nil {
		// Timeouts count as provider errors, never indeterminate state.
		log.Printf("❌ WhatsApp send error: %v", err)
		return SendResult{Success: false, Status: "failed", Error: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("⚠️  WhatsApp API returned status %d: %s", resp.StatusCode, string(body))
		return SendResult{
			Success:  false,
			Status:   "failed",
			Error:    fmt.Sprintf("provider returned status %d", resp.StatusCode),
			Response: json.RawMessage(body),
		}
	}

	var parsed waSendResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Messages) == 0 {
		return SendResult{
			Success:  false,
			Status:   "failed",
			Error:    "provider response missing message id",
			Response: json.RawMessage(body),
		}
	}

	return SendResult{
		Success:   true,
		MessageID: parsed.Messages[0].ID,
		Status:    "sent",
		Response:  json.RawMessage(body),
	}
}

// sleepCtx waits for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ============================================================
// WEBHOOK PARSING
// ============================================================

type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []WebhookMessage `json:"messages"`
	Contacts         []WebhookContact `json:"contacts"`
	Statuses         []WebhookStatus  `json:"statuses"`
}

type WebhookMessage struct {
	ID        string          `json:"id"`
	From      string          `json:"from"`
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Text      json.RawMessage `json:"text,omitempty"`
}

type WebhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type WebhookStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// WebhookEvent is a classified callback: either inbound messages or delivery
// status updates.
type WebhookEvent struct {
	Type     string // "message" or "status"
	Messages []WebhookMessage
	Contacts []WebhookContact
	Statuses []WebhookStatus
}

// VerifyWebhook returns the challenge only for the subscription handshake
// with the configured verify token; otherwise "".
func (ws *WhatsAppService) VerifyWebhook(mode, token, challenge string) string {
	if mode == "subscribe" && token != "" && token == ws.VerifyToken {
		return challenge
	}
	return ""
}

// ProcessWebhook classifies a raw callback body. Unrecognized or malformed
// payloads return nil — the provider retries on error responses, so parsing
// must never fail outward.
func (ws *WhatsAppService) ProcessWebhook(body []byte) *WebhookEvent {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("⚠️  WhatsApp webhook parse error: %v", err)
		return nil
	}

	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return nil
	}

	value := payload.Entry[0].Changes[0].Value

	if len(value.Messages) > 0 {
		return &WebhookEvent{
			Type:     "message",
			Messages: value.Messages,
			Contacts: value.Contacts,
		}
	}

	if len(value.Statuses) > 0 {
		return &WebhookEvent{
			Type:     "status",
			Statuses: value.Statuses,
		}
	}

	return nil
}
