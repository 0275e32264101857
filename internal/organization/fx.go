package organization

import (
	"github.com/evacdesk/evacdesk/internal/organization/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("organization",
	fx.Provide(repository.New),
)
