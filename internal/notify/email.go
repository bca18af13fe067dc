package notify

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"github.com/proposalkb/proposalkb/internal/log"
)

// TokenTTL is how long an emailed validation link stays valid.
const TokenTTL = 7 * 24 * time.Hour

// ErrEmailNotConfigured is returned when no SMTP host is set.
var ErrEmailNotConfigured = errors.New("smtp configuration not available")

// TokenStore persists the token behind an emailed response link.
type TokenStore interface {
	SentMarker
	InsertValidationToken(ctx context.Context, token string, validationID uuid.UUID, ttl time.Duration) error
}

// mailTransport is the slice of *mail.Client the sender needs; tests
// substitute it to avoid a live SMTP session.
type mailTransport interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailConfig carries SMTP settings and the portal the CTA link points at.
type EmailConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	PortalBaseURL string
}

// EmailSender delivers validation requests as HTML email. The response link
// carries a random token mapped to the validation row with a 7-day TTL.
type EmailSender struct {
	cfg       EmailConfig
	store     TokenStore
	transport mailTransport
	logger    log.Logger
}

// EmailOption customizes an EmailSender.
type EmailOption func(*EmailSender)

// WithMailTransport substitutes the SMTP transport, mainly for tests.
func WithMailTransport(t mailTransport) EmailOption {
	return func(s *EmailSender) { s.transport = t }
}

// NewEmailSender creates an EmailSender. A missing SMTP host is allowed at
// construction so a partially configured server can still start; Send fails
// fast instead.
func NewEmailSender(cfg EmailConfig, store TokenStore, logger log.Logger, opts ...EmailOption) (*EmailSender, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if cfg.From == "" {
		cfg.From = "proposals@example.com"
	}
	s := &EmailSender{cfg: cfg, store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EmailRequest describes one validation delivery.
type EmailRequest struct {
	ValidationID       uuid.UUID
	RecipientEmail     string
	RecipientName      string
	ValidationQuestion string
	CurrentInformation map[string]any
	EntityName         string
}

// Send persists a response token, renders and sends the email, and marks the
// validation row sent with the token as message ID.
func (s *EmailSender) Send(ctx context.Context, req EmailRequest, progress ProgressFunc) (string, error) {
	if s.cfg.Host == "" {
		return "", ErrEmailNotConfigured
	}
	report := func(p float64, msg string) {
		if progress != nil {
			progress(p, 100, msg)
		}
	}

	report(0, "Creating email")
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	if err := s.store.InsertValidationToken(ctx, token, req.ValidationID, TokenTTL); err != nil {
		return "", err
	}

	responseURL := fmt.Sprintf("%s/validate/%s", strings.TrimRight(s.cfg.PortalBaseURL, "/"), token)
	body, err := renderValidationEmail(req, responseURL)
	if err != nil {
		return "", err
	}

	report(50, "Sending email")
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return "", fmt.Errorf("invalid from address %q: %w", s.cfg.From, err)
	}
	if err := msg.To(req.RecipientEmail); err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", req.RecipientEmail, err)
	}
	msg.Subject(fmt.Sprintf("Validation Required: %s", req.EntityName))
	msg.SetBodyString(mail.TypeTextHTML, body)

	transport := s.transport
	if transport == nil {
		transport, err = s.dial()
		if err != nil {
			return "", err
		}
	}
	if err := transport.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("sending email: %w", err)
	}

	if err := s.store.MarkValidationSent(ctx, req.ValidationID, token); err != nil {
		return "", err
	}

	report(100, "Validation email sent")
	s.logger.Info("sent email validation", "validation_id", req.ValidationID,
		"recipient", req.RecipientEmail)
	return fmt.Sprintf("Validation email sent to %s", req.RecipientEmail), nil
}

func (s *EmailSender) dial() (mailTransport, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return client, nil
}

// GenerateToken returns a 32-byte cryptographically random URL-safe token.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

var validationEmailTmpl = template.Must(template.New("validation").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #667eea; color: white; padding: 30px; border-radius: 10px 10px 0 0;">
    <h1 style="margin: 0; font-size: 24px;">Resource Validation Request</h1>
    <p style="margin: 10px 0 0 0;">Regarding: {{.EntityName}}</p>
  </div>
  <div style="background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; border: 1px solid #ddd; border-top: none;">
    <p style="font-size: 16px;">Hi {{.RecipientName}},</p>
    <p style="font-size: 16px;">{{.Question}}</p>
    <div style="background: white; border: 1px solid #ddd; border-radius: 8px; padding: 20px; margin: 20px 0;">
      <h3 style="margin-top: 0; color: #667eea;">Current Information:</h3>
      <table style="width: 100%; border-collapse: collapse;">
        {{- range .Facts}}
        <tr>
          <td style="padding: 8px; font-weight: bold; color: #555;">{{.Title}}</td>
          <td style="padding: 8px; color: #333;">{{.Value}}</td>
        </tr>
        {{- end}}
      </table>
    </div>
    <p style="font-size: 14px; color: #666;">Please review the information above and confirm its accuracy or provide corrections.</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="{{.ResponseURL}}" style="display: inline-block; background: #667eea; color: white; padding: 15px 40px; text-decoration: none; border-radius: 5px; font-weight: bold; font-size: 16px;">Respond to Validation Request</a>
    </div>
    <p style="font-size: 12px; color: #999; margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd;">This validation request will expire in 7 days. If you need more time, please contact the proposal team.</p>
  </div>
</body>
</html>
`))

type emailFact struct {
	Title string
	Value string
}

func renderValidationEmail(req EmailRequest, responseURL string) (string, error) {
	keys := make([]string, 0, len(req.CurrentInformation))
	for k := range req.CurrentInformation {
		if !sensitiveKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	facts := make([]emailFact, 0, len(keys))
	for _, k := range keys {
		facts = append(facts, emailFact{
			Title: titleCase(k),
			Value: fmt.Sprintf("%v", req.CurrentInformation[k]),
		})
	}

	var b strings.Builder
	err := validationEmailTmpl.Execute(&b, map[string]any{
		"EntityName":    req.EntityName,
		"RecipientName": req.RecipientName,
		"Question":      req.ValidationQuestion,
		"Facts":         facts,
		"ResponseURL":   responseURL,
	})
	if err != nil {
		return "", fmt.Errorf("rendering email: %w", err)
	}
	return b.String(), nil
}
