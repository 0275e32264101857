package identity

import (
	"github.com/evacdesk/evacdesk/internal/identity/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("identity",
	fx.Provide(repository.New),
)
