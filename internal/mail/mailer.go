// Package mail renders and sends transactional email over SMTP. Templates
// are embedded so the binary carries everything it needs; a missing template
// falls back to a plain layout rather than failing the job.
package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/stacklane/saasbase/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

const fallbackTemplate = `<html><body><h2>{{.Subject}}</h2><p>{{.Body}}</p></body></html>`

type Mailer struct {
	cfg       config.MailConfig
	templates *template.Template
	fallback  *template.Template
	send      func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg config.MailConfig) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	fb, err := template.New("fallback").Parse(fallbackTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse fallback template: %w", err)
	}
	return &Mailer{cfg: cfg, templates: tmpl, fallback: fb, send: smtp.SendMail}, nil
}

func (m *Mailer) SendWelcome(to, firstName, lastName string) error {
	name := firstName
	if lastName != "" {
		name = firstName + " " + lastName
	}
	return m.sendTemplate(to, "Welcome aboard", "welcome.html", map[string]any{
		"Name":        name,
		"FrontendURL": m.cfg.FrontendURL,
	})
}

func (m *Mailer) SendInvitation(to, inviterName, tenantName, token string, expiresAt time.Time) error {
	return m.sendTemplate(to, fmt.Sprintf("You're invited to join %s", tenantName), "invitation.html", map[string]any{
		"InviterName": inviterName,
		"TenantName":  tenantName,
		"AcceptURL":   fmt.Sprintf("%s/invitations/accept?token=%s", m.cfg.FrontendURL, token),
		"ExpiresAt":   expiresAt.Format("January 2, 2006"),
	})
}

func (m *Mailer) SendPasswordReset(to, token string) error {
	return m.sendTemplate(to, "Reset your password", "reset-password.html", map[string]any{
		"ResetURL": fmt.Sprintf("%s/reset-password?token=%s", m.cfg.FrontendURL, token),
	})
}

func (m *Mailer) SendInvoice(to, invoiceNumber string, amount float64, dueDate time.Time) error {
	return m.sendTemplate(to, fmt.Sprintf("Invoice %s", invoiceNumber), "invoice.html", map[string]any{
		"InvoiceNumber": invoiceNumber,
		"Amount":        fmt.Sprintf("$%.2f", amount),
		"DueDate":       dueDate.Format("January 2, 2006"),
	})
}

func (m *Mailer) sendTemplate(to, subject, name string, data map[string]any) error {
	body, err := m.render(name, data)
	if err != nil {
		slog.Warn("mail template render failed, using fallback", "template", name, "error", err)
		body, err = m.renderFallback(subject, data)
		if err != nil {
			return fmt.Errorf("render fallback for %s: %w", name, err)
		}
	}
	return m.deliver(to, subject, body)
}

func (m *Mailer) render(name string, data map[string]any) (string, error) {
	if m.templates.Lookup(name) == nil {
		return "", fmt.Errorf("template %s not found", name)
	}
	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (m *Mailer) renderFallback(subject string, data map[string]any) (string, error) {
	var buf bytes.Buffer
	err := m.fallback.Execute(&buf, map[string]any{
		"Subject": subject,
		"Body":    fmt.Sprintf("%v", data),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (m *Mailer) deliver(to, subject, htmlBody string) error {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	// Local dev catchers (mailpit, mailhog) take unauthenticated mail.
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
