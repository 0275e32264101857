package onboarding

import (
	"github.com/evacdesk/evacdesk/internal/onboarding/service"
	"go.uber.org/fx"
)

var Module = fx.Module("onboarding",
	fx.Provide(service.New),
)
