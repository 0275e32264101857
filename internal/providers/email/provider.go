package email

import "context"

// Provider sends templated HTML mail. Callers treat delivery as
// fire-and-forget: a send failure is logged, never escalated.
type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}
