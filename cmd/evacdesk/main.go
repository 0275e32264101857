package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/evacdesk/evacdesk/internal/clock"
	"github.com/evacdesk/evacdesk/internal/config"
	"github.com/evacdesk/evacdesk/internal/server"
	"github.com/evacdesk/evacdesk/pkg/db"
	"github.com/evacdesk/evacdesk/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Domain modules are pulled in transitively by server.Module:
		// identity, token, email, organization, payment, auth,
		// onboarding, migration, bootstrap.
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
