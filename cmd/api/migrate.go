package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deskline/helpdesk-service/internal/persistence"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "apply the embedded sql migrations",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the latest migration")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	db, err := persistence.OpenDatabase(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrateRollback {
		err = persistence.RollbackMigration(ctx, db.Pool(), logger)
	} else {
		err = persistence.RunMigrations(ctx, db.Pool(), logger)
	}
	if err != nil {
		logger.Error("migration failed", zap.Error(err))
	}
	return err
}
