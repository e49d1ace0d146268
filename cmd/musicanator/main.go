// Command musicanator runs the Musicanator web application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/justestif/musicanator/internal/config"
	"github.com/justestif/musicanator/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "musicanator.toml",
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:   "musicanator",
		Usage:  "Turn a playlist idea into a Spotify playlist",
		Flags:  []cli.Flag{configFlag()},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the web server (default)",
				Flags:  []cli.Flag{configFlag()},
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "Create or update the database schema",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recent PostgreSQL migration",
					},
				},
				Action: migrate,
			},
		},
	}
}

// loadConfig reads the configuration named by --config.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.Log.Level)

	if cfg.Database.URL == "" {
		// Opening the SQLite store migrates it.
		st, err := openStore(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		st.Close()
		logger.Info("sqlite schema up to date", "path", cfg.Database.SQLitePath)
		return nil
	}

	database, err := openPostgres(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer database.Close()

	if cmd.Bool("rollback") {
		if err := database.Rollback(ctx); err != nil {
			return fmt.Errorf("rolling back: %w", err)
		}
		logger.Info("rolled back latest migration")
		return nil
	}

	applied, err := database.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	logger.Info("migrations applied", "count", applied)
	return nil
}
