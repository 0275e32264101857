package migration

import (
	"github.com/evacdesk/evacdesk/internal/config"
	identitydomain "github.com/evacdesk/evacdesk/internal/identity/domain"
	orgdomain "github.com/evacdesk/evacdesk/internal/organization/domain"
	paymentdomain "github.com/evacdesk/evacdesk/internal/payment/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// The versioned SQL is written for postgres; other dialects
			// (local sqlite, mysql) get the schema from the models.
			return conn.AutoMigrate(
				&orgdomain.Organization{},
				&identitydomain.User{},
				&paymentdomain.Payment{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
