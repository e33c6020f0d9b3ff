package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vhu/portal/internal/config"
	"github.com/vhu/portal/internal/db"
	"github.com/vhu/portal/internal/logger"
	"github.com/vhu/portal/internal/repository"
	"github.com/vhu/portal/internal/service"
	"github.com/vhu/portal/internal/storage"
)

// SweepCmd runs one janitor pass outside the server.
func SweepCmd() *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete media that has been unowned longer than the grace period",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger.Init(cfg.IsDevelopment(), cfg.SentryDSN, cfg.AppEnv)

			if grace <= 0 {
				grace = cfg.OrphanGracePeriod
			}

			database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(database) }()

			store, err := storage.New(cfg)
			if err != nil {
				return err
			}

			janitor := service.NewJanitor(repository.NewAssetRepository(database), store, cfg.JanitorInterval, grace)
			deleted, err := janitor.Sweep(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("deleted %d orphaned media files\n", deleted)
			return nil
		},
	}

	cmd.Flags().DurationVar(&grace, "grace", 0, "minimum age of orphans to delete (default ORPHAN_GRACE_PERIOD)")
	return cmd
}
