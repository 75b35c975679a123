package cmd

import (
	"encoding/json"
	"fmt"

	"pr-dashboard/core/config"
	"pr-dashboard/core/database"
	"pr-dashboard/core/logger"
	"pr-dashboard/core/upstream"
	"pr-dashboard/feature/triage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronization pass against the upstream source",
	Long: `Fetches changed pull requests from the upstream repository and reconciles
the local store. Suitable for cron scheduling; each run resumes from the
persisted cursor.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logg.Sync()

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("database connection required: %w", err)
		}

		store := triage.NewStore(db)
		if err := store.Migrate(); err != nil {
			return err
		}

		gh, err := upstream.NewClient(cfg.Upstream)
		if err != nil {
			return fmt.Errorf("failed to create upstream client: %w", err)
		}

		feature := triage.NewFeature(db, gh, cfg.Upstream, logg)

		logg.Info("Syncing pull requests (this might take a while)...",
			zap.String("repository", cfg.Upstream.Owner+"/"+cfg.Upstream.Repo))

		result, err := feature.Service().Sync(ctx)
		if err != nil {
			return err
		}

		out, _ := json.Marshal(result)
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(syncCmd)
}
