package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

// dateLayout is how period end dates appear in emails.
const dateLayout = "January 2, 2006"

// =============================================================================
// SMTP Email Service Implementation
// =============================================================================

// SMTPEmailService sends emails via SMTP.
//
// This implementation works with:
// - Mailhog (development): No authentication required
// - Postmark SMTP (production): Uses username/password authentication
// - Any standard SMTP server
//
// Templates are embedded in the binary and rendered with html/template.
type SMTPEmailService struct {
	config    SMTPConfig
	baseURL   string
	templates *template.Template
	logger    *slog.Logger
}

// NewSMTPEmailService creates a new SMTP-based email service.
//
// Parameters:
// - config: SMTP server configuration
// - baseURL: Storefront base URL for constructing links (e.g., "http://localhost:3000")
// - logger: Structured logger for error reporting
func NewSMTPEmailService(
	config SMTPConfig,
	baseURL string,
	logger *slog.Logger,
) (*SMTPEmailService, error) {
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	templates, err := template.New("email").Funcs(emailTemplateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &SMTPEmailService{
		config:    config,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		templates: templates,
		logger:    logger,
	}, nil
}

// =============================================================================
// EmailService Interface Implementation
// =============================================================================

// SendPaymentFailedEmail tells a customer their renewal payment failed.
func (s *SMTPEmailService) SendPaymentFailedEmail(ctx context.Context, to, name, planName string, attempt int64) error {
	email, err := s.paymentFailedEmail(to, name, planName, attempt)
	if err != nil {
		return err
	}
	return s.send(ctx, email)
}

// SendSubscriptionCanceledEmail confirms that a subscription has ended.
func (s *SMTPEmailService) SendSubscriptionCanceledEmail(ctx context.Context, to, name, planName string) error {
	email, err := s.subscriptionCanceledEmail(to, name, planName)
	if err != nil {
		return err
	}
	return s.send(ctx, email)
}

// SendCancellationScheduledEmail confirms a cancel-at-period-end request.
func (s *SMTPEmailService) SendCancellationScheduledEmail(ctx context.Context, to, name, planName string, periodEnd time.Time) error {
	email, err := s.cancellationScheduledEmail(to, name, planName, periodEnd)
	if err != nil {
		return err
	}
	return s.send(ctx, email)
}

// SendPlanChangedEmail confirms a switch to a different plan.
func (s *SMTPEmailService) SendPlanChangedEmail(ctx context.Context, to, name, planName string) error {
	email, err := s.planChangedEmail(to, name, planName)
	if err != nil {
		return err
	}
	return s.send(ctx, email)
}

// =============================================================================
// Message Composition
// =============================================================================

func (s *SMTPEmailService) paymentFailedEmail(to, name, planName string, attempt int64) (Email, error) {
	data := s.baseData(name, planName)
	data["Attempt"] = attempt

	htmlBody, err := s.renderTemplate("payment_failed.html", data)
	if err != nil {
		return Email{}, fmt.Errorf("failed to render payment failed email template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

We couldn't collect the renewal payment for your %s plan. Your subscription stays active while we retry.

Update your payment method here:

%s

Thanks,
The Samplebase Team
`, data["Name"], data["PlanName"], data["BillingURL"])

	return Email{
		To:       to,
		Subject:  "Action needed: your Samplebase payment failed",
		HTMLBody: htmlBody,
		TextBody: textBody,
	}, nil
}

func (s *SMTPEmailService) subscriptionCanceledEmail(to, name, planName string) (Email, error) {
	data := s.baseData(name, planName)

	htmlBody, err := s.renderTemplate("subscription_canceled.html", data)
	if err != nil {
		return Email{}, fmt.Errorf("failed to render subscription canceled email template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

Your %s subscription has ended. Credits you already hold stay on your account.

You can subscribe again at any time: %s

Thanks,
The Samplebase Team
`, data["Name"], data["PlanName"], data["BillingURL"])

	return Email{
		To:       to,
		Subject:  "Your Samplebase subscription has ended",
		HTMLBody: htmlBody,
		TextBody: textBody,
	}, nil
}

func (s *SMTPEmailService) cancellationScheduledEmail(to, name, planName string, periodEnd time.Time) (Email, error) {
	data := s.baseData(name, planName)
	data["PeriodEnd"] = periodEnd.Format(dateLayout)

	htmlBody, err := s.renderTemplate("cancellation_scheduled.html", data)
	if err != nil {
		return Email{}, fmt.Errorf("failed to render cancellation scheduled email template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

Your %s subscription will cancel on %s. You keep full access until then.

Changed your mind? Resume before that date: %s

Thanks,
The Samplebase Team
`, data["Name"], data["PlanName"], data["PeriodEnd"], data["BillingURL"])

	return Email{
		To:       to,
		Subject:  "Your Samplebase subscription will cancel",
		HTMLBody: htmlBody,
		TextBody: textBody,
	}, nil
}

func (s *SMTPEmailService) planChangedEmail(to, name, planName string) (Email, error) {
	data := s.baseData(name, planName)

	htmlBody, err := s.renderTemplate("plan_changed.html", data)
	if err != nil {
		return Email{}, fmt.Errorf("failed to render plan changed email template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

You're now on the %s plan. Any price difference is prorated on your next invoice.

Billing details: %s

Thanks,
The Samplebase Team
`, data["Name"], data["PlanName"], data["BillingURL"])

	return Email{
		To:       to,
		Subject:  fmt.Sprintf("You're now on Samplebase %s", data["PlanName"]),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}, nil
}

func (s *SMTPEmailService) baseData(name, planName string) map[string]interface{} {
	if name == "" {
		name = "there"
	}
	return map[string]interface{}{
		"Name":       name,
		"PlanName":   PlanLabel(planName),
		"BillingURL": s.baseURL + "/account/billing",
	}
}

// PlanLabel formats a plan or tier name for display: "pro" becomes "Pro",
// "starter_annual" becomes "Starter Annual".
func PlanLabel(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	if name == "" {
		return "Samplebase"
	}
	return cases.Title(language.English).String(name)
}

// =============================================================================
// Internal Methods
// =============================================================================

// send sends an email via SMTP.
func (s *SMTPEmailService) send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.buildMessage(email)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Create auth if credentials are provided (not needed for Mailhog)
	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	err := smtp.SendMail(addr, auth, s.config.From, []string{email.To}, msg)
	if err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
	)

	return nil
}

// buildMessage constructs the raw email message with headers.
func (s *SMTPEmailService) buildMessage(email Email) []byte {
	var buf bytes.Buffer

	fromHeader := fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)

	buf.WriteString(fmt.Sprintf("From: %s\r\n", fromHeader))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	// Multipart message for HTML + text
	boundary := "===============SAMPLEBASE_BOUNDARY==============="
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.TextBody)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.HTMLBody)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return buf.Bytes()
}

// renderTemplate renders an email template with the given data.
func (s *SMTPEmailService) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// =============================================================================
// Template Functions
// =============================================================================

// emailTemplateFuncs returns template functions available in email templates.
func emailTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"currentYear": func() int {
			return time.Now().Year()
		},
	}
}

// =============================================================================
// Compile-time interface check
// =============================================================================

var _ EmailService = (*SMTPEmailService)(nil)
