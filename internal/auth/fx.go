package auth

import (
	"github.com/evacdesk/evacdesk/internal/auth/service"
	"github.com/evacdesk/evacdesk/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
)
