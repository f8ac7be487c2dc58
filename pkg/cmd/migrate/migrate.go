package migrate

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/coachboard/coachboard-service/log"
	"github.com/coachboard/coachboard-service/pkg/config"
	dbMigrate "github.com/coachboard/coachboard-service/pkg/db/migrate"
	"github.com/coachboard/coachboard-service/pkg/utils"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration()
		},
	}

	cmd.Flags().StringVarP(&config.MigrationSourceURL,
		"migration-source-url",
		"m",
		"",
		"url to migration files (e.g. file:///migrations), empty uses the embedded ones")

	return cmd
}

func startMigration() error {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}
	if postgresAddr := utils.ExtractFromDBURL(config.DB); postgresAddr != "" {
		if err = utils.WaitForTCP(postgresAddr, timeout); err != nil {
			log.Error("database not ready", log.ErrorField(err))
			return err
		}
	}

	if config.MigrationSourceURL == "" {
		log.Info("Using embedded migrations")
		err = dbMigrate.MigrateDb(config.DB)
	} else {
		log.Info("Using migrations files at", log.String("source", config.MigrationSourceURL))
		err = dbMigrate.MigrateDbFromSource(config.MigrationSourceURL, config.DB)
	}
	if err != nil {
		log.Error("migration failed", log.ErrorField(err))
		return err
	}
	log.Info("Database is up to date")
	return nil
}
