package commands

import (
	"context"
	"database/sql"
	"fmt"

	"tutoria/internal/database"
	"tutoria/internal/observability"
	contextutils "tutoria/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the database management commands
func DatabaseCommands(logger *observability.Logger, dbManager *database.Manager, db *sql.DB, databaseURL string) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for the tutoring platform.

Available commands:
  stats     - Show database statistics
  migrate   - Run pending schema migrations`,
	}

	dbCmd.AddCommand(statsCmd(logger, db))
	dbCmd.AddCommand(migrateCmd(logger, dbManager, db, databaseURL))

	return dbCmd
}

// statsCmd returns the stats command
func statsCmd(logger *observability.Logger, db *sql.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Long:  `Show row counts for the main tables.`,
		RunE:  runStats(logger, db),
	}
}

// migrateCmd returns the migrate command
func migrateCmd(logger *observability.Logger, dbManager *database.Manager, db *sql.DB, databaseURL string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run pending schema migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()
			logger.Info(ctx, "Running migrations", map[string]interface{}{"database_url": maskDatabaseURL(databaseURL)})

			if err := dbManager.RunMigrations(db, databaseURL); err != nil {
				logger.Error(ctx, "Migrations failed", err, nil)
				return contextutils.WrapError(err, "migrations failed")
			}

			fmt.Println("Migrations applied")
			return nil
		},
	}
}

// runStats returns a function that shows database statistics
func runStats(logger *observability.Logger, db *sql.DB) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		logger.Info(ctx, "Diagnostic info", map[string]interface{}{"database": getDatabaseInfo(db)})

		tables := []string{"users", "classes", "quizzes", "study_cards", "games", "game_completions", "conversations", "messages", "documents"}
		for _, table := range tables {
			var count int
			if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
				logger.Error(ctx, "Failed to count table", err, map[string]interface{}{"table": table})
				return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to count table %s: %v", table, err)
			}
			fmt.Printf("%-18s %d\n", table, count)
		}

		return nil
	}
}
