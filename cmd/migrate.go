package main

import (
	"github.com/boskojeremic/iflowx/pkg/logger"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			s, closeStore, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()
			if err := migrate(s); err != nil {
				return err
			}
			log.Info("Schema is up to date")
			return nil
		},
	}
}
