package payment

import (
	"github.com/evacdesk/evacdesk/internal/payment/adapters/stripe"
	"github.com/evacdesk/evacdesk/internal/payment/domain"
	"github.com/evacdesk/evacdesk/internal/payment/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("payment",
	fx.Provide(repository.New),
	fx.Provide(func(gw *stripe.Gateway) domain.Gateway { return gw }),
	fx.Provide(stripe.New),
)
