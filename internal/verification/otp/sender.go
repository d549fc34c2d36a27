package otp

import (
	"context"
	"log/slog"
)

// LogSender writes codes to the log instead of sending email. Local runs
// and tests only; never wire it in production.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendCode(ctx context.Context, email, code string) error {
	s.logger.InfoContext(ctx, "otp code issued", "email", email, "code", code)
	return nil
}
