package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"

	"evara-backend/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailService renders an invite as an email through SendGrid. Used for
// content previews when a reviewer has no WhatsApp number handy; email sends
// do not touch the distribution/analytics bookkeeping.
type EmailService struct {
	APIKey   string
	From     string
	FromName string
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		APIKey:   cfg.SendGridAPIKey,
		From:     cfg.SendGridFrom,
		FromName: cfg.AppName,
	}
}

func (es *EmailService) IsConfigured() bool {
	return es.APIKey != ""
}

// SendInvitePreview emails a rendered invite to one recipient.
func (es *EmailService) SendInvitePreview(toEmail, toName string, content InviteContent) error {
	if !es.IsConfigured() {
		return ErrNotConfigured
	}

	from := mail.NewEmail(es.FromName, es.From)
	to := mail.NewEmail(toName, toEmail)
	subject := fmt.Sprintf("Invite preview: %s", content.Title)
	htmlBody := buildInvitePreviewHTML(content)

	message := mail.NewSingleEmail(from, subject, to, content.Text, htmlBody)
	client := sendgrid.NewSendClient(es.APIKey)

	resp, err := client.Send(message)
	if err != nil {
		log.Printf("❌ Email send error: %v", err)
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("⚠️  SendGrid returned status: %d", resp.StatusCode)
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}

	log.Printf("✅ Invite preview emailed to %s", toEmail)
	return nil
}

func buildInvitePreviewHTML(content InviteContent) string {
	tmpl := `
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="margin-top: 0;">{{.Title}}</h2>
		<p style="white-space: pre-line;">{{.Text}}</p>
		{{range .Images}}
		<img src="{{.}}" alt="invite media" style="max-width: 100%; border-radius: 8px; margin: 8px 0;" />
		{{end}}
		{{range .Videos}}
		<p><a href="{{.}}">🎬 Watch video</a></p>
		{{end}}
		<p style="color: #999; font-size: 12px; margin-top: 24px;">This is a preview of your invite content.</p>
	</div>
</body>
</html>`

	t, _ := template.New("invite_preview").Parse(tmpl)
	var buf bytes.Buffer
	t.Execute(&buf, content)
	return buf.String()
}
