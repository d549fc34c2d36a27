// Package notification is the outbound messaging port. Sends are fire and
// forget: failures are logged by callers, never retried here.
package notification

import (
	"context"
	"log/slog"

	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
)

// Template names the message rendered downstream.
type Template string

const (
	// TemplateDeadlineWarning goes out within 24h of the verification
	// deadline.
	TemplateDeadlineWarning Template = "verification_deadline_warning"

	// TemplateAccountDeactivated goes out when the sweep deactivates an
	// account.
	TemplateAccountDeactivated Template = "account_deactivated"

	// TemplateVerificationDecided goes out after an administrator review.
	TemplateVerificationDecided Template = "verification_decided"
)

// Notifier delivers a templated message to a principal.
type Notifier interface {
	Send(ctx context.Context, principalID id.PrincipalID, template Template, data map[string]string) error
}

// LogNotifier writes notifications to the log. Default for local runs and
// tests.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, principalID id.PrincipalID, template Template, data map[string]string) error {
	n.logger.InfoContext(ctx, "notification",
		"principal_id", principalID,
		"template", template,
		"data", data,
	)
	return nil
}
