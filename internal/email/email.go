// Package email provides email sending functionality for samplebase.
//
// This package defines an EmailService interface with an SMTP implementation
// (Mailhog in development, Postmark SMTP or any standard relay in production).
package email

import (
	"context"
	"time"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EmailService defines the interface for sending billing notifications.
//
// All methods are context-aware for timeout and cancellation support.
type EmailService interface {
	// SendPaymentFailedEmail tells a customer their renewal payment failed.
	// attempt is the provider's attempt count for the invoice.
	SendPaymentFailedEmail(ctx context.Context, to, name, planName string, attempt int64) error

	// SendSubscriptionCanceledEmail confirms that a subscription has ended.
	SendSubscriptionCanceledEmail(ctx context.Context, to, name, planName string) error

	// SendCancellationScheduledEmail confirms a cancel-at-period-end request.
	SendCancellationScheduledEmail(ctx context.Context, to, name, planName string, periodEnd time.Time) error

	// SendPlanChangedEmail confirms a switch to a different plan.
	SendPlanChangedEmail(ctx context.Context, to, name, planName string) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To       string // Recipient email address
	Subject  string // Email subject line
	HTMLBody string // HTML content of the email
	TextBody string // Plain text fallback content
}

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string // Default sender email address
	FromName string // Default sender display name
}

// =============================================================================
// Common Constants
// =============================================================================

const (
	// DefaultFromEmail is the default sender email for transactional emails.
	DefaultFromEmail = "billing@samplebase.io"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "Samplebase"
)
