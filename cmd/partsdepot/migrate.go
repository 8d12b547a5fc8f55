package main

import (
	"github.com/jogardn/partsdepot/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		db, err := store.Open(cmd.Context(), cfg.Database, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.New(db, logger).Migrate(cmd.Context()); err != nil {
			return err
		}
		logger.Info("Schema is up to date")
		return nil
	},
}
