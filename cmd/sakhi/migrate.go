package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/sakhi/internal/cli"
	"github.com/Veraticus/sakhi/internal/common"
	"github.com/Veraticus/sakhi/internal/config"
	"github.com/Veraticus/sakhi/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply history database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			dbPath := cfg.Database.Path

			store, err := storage.NewSQLiteStorage(dbPath, slog.Default())
			if err != nil {
				return err
			}
			defer store.Close()

			version, err := store.SchemaVersion(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get schema version: %w", err)
			}

			if status {
				fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n", dbPath)
				fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d (latest %d)\n", version, storage.ExpectedSchemaVersion)
				if version < storage.ExpectedSchemaVersion {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Migrations pending. Run: sakhi migrate"))
				}
				return nil
			}

			if version >= storage.ExpectedSchemaVersion {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Database is up to date"))
				return nil
			}

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			common.LogInfo("Migrated history database", common.Fields{
				"path": dbPath,
				"from": version,
				"to":   storage.ExpectedSchemaVersion,
			})
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Migrated from version %d to %d", version, storage.ExpectedSchemaVersion)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "show the schema version without migrating")
	return cmd
}
