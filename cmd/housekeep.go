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
)

// housekeepCmd represents the housekeep command
var housekeepCmd = &cobra.Command{
	Use:   "housekeep",
	Short: "Recompute categories and expire stale reservations",
	Long: `Runs one housekeeping pass over the local store: every pull request is
recategorized from its current labels and state, and reservations older than
the lease timeout are released. Repeated runs are no-ops without new state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		result, err := feature.Service().Housekeep()
		if err != nil {
			return err
		}

		out, _ := json.Marshal(result)
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(housekeepCmd)
}
