package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perchapp/perch/internal/config"
	"github.com/perchapp/perch/internal/database"
	"github.com/perchapp/perch/internal/knowledge"
	"github.com/perchapp/perch/internal/log"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Recompute embeddings for all indexed documents",
	Long: `Recomputes the stored embedding of every document from its content.
Run after restoring a dump or whenever stored vectors are suspect.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validating config: %w", err)
		}

		logger := log.New(log.Config{Level: parseLogLevel(cfg.LogLevel), JSON: cfg.LogJSON})
		ctx := cmd.Context()

		pool, err := database.Open(ctx, cfg.PostgresConnectionString())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		store := knowledge.NewStore(pool, logger)
		n, err := store.Reindex(ctx)
		if err != nil {
			return fmt.Errorf("reindexing documents: %w", err)
		}

		fmt.Printf("reindexed %d documents\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
