package main

import (
	"context"
	"fmt"
	"time"

	mongoMigration "pgstay/internal/migrations/mongo"
	"pgstay/pkg/config"
	mongodb "pgstay/pkg/db/mongo"

	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create collections, schema validators and indexes in MongoDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")

			cfg := config.FromEnv(ToolName + "-migrate")
			if cfg.MongoURI == "" || cfg.MongoDatabaseName == "" {
				return fmt.Errorf("%s and %s must be set", config.EnvMongoURI, config.EnvMongoDatabaseName)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoConnTimeout)
			if err != nil {
				return err
			}
			defer client.Disconnect(context.Background())

			if err := mongoMigration.RunMigration(ctx, client.Database(cfg.MongoDatabaseName), cfg.Log); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("Migration completed successfully.")
			return nil
		},
	}
	cmd.Flags().Duration("timeout", 2*time.Minute, "overall migration timeout")
	return cmd
}
