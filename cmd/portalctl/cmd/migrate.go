package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vhu/portal/internal/config"
	"github.com/vhu/portal/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(db.RunMigrations)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(db.MigrateDown)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(func(conn *sql.DB, driver string) error {
				version, err := db.Version(conn, driver)
				if err != nil {
					return err
				}
				fmt.Printf("schema version %d\n", version)
				return nil
			})
		},
	})

	return cmd
}

func migrate(run func(*sql.DB, string) error) error {
	cfg := config.Load()

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(database) }()

	err = run(database.DB, cfg.DBDriver)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Println("done")
	return nil
}
