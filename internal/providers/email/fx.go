package email

import (
	"github.com/evacdesk/evacdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if cfg.SMTP.Host == "" {
		log.Named("providers.email").Info("smtp host not configured, using noop email provider")
		return &NoOpProvider{}
	}
	return NewSMTP(cfg.SMTP)
}
