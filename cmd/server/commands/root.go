package commands

import (
	"fmt"
	"os"

	"github.com/anonto42/postboard/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCmd starts the server when no subcommand is given
var rootCmd = &cobra.Command{
	Use:   "postboard",
	Short: "Postboard - posts, groups, comments and follows over HTTP",
	Long: `Postboard serves a small blogging site: authors write posts, file them
under groups, comment on each other's posts and follow authors.

Configuration is read from the environment, after loading .env if present.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is what every command needs before it can touch the database.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *config.DB
}

func bootstrap() (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := config.InitDB(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, db: db}, nil
}

func (a *app) close() {
	a.db.CloseDB()
	_ = a.logger.Sync()
}
