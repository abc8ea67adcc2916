package delivery

import (
	"context"
	"log/slog"
)

const previewLength = 120

// LogProvider only logs notices. Used when no outbound transport is configured.
type LogProvider struct {
	logger *slog.Logger
}

func NewLogProvider(logger *slog.Logger) *LogProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProvider{logger: logger}
}

func (p *LogProvider) Type() string { return "log" }

func (p *LogProvider) Deliver(ctx context.Context, address, subject, body string) error {
	p.logger.InfoContext(ctx, "Notice (not sent, no transport configured)",
		"to", address,
		"subject", subject,
		"preview", preview(PlainText(body), previewLength),
	)
	return nil
}
