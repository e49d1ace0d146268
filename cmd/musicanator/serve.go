package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/justestif/musicanator/internal/accounts"
	"github.com/justestif/musicanator/internal/auth"
	"github.com/justestif/musicanator/internal/gemini"
	"github.com/justestif/musicanator/internal/history"
	"github.com/justestif/musicanator/internal/logging"
	"github.com/justestif/musicanator/internal/playlists"
	"github.com/justestif/musicanator/internal/spotify"
	"github.com/justestif/musicanator/internal/tokens"
	"github.com/justestif/musicanator/internal/web"
	assets "github.com/justestif/musicanator/web"
)

// serve wires every component explicitly and runs the HTTP server until ctx
// is cancelled.
func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.Log.Level)
	timeout := cfg.Server.HTTPTimeout.Duration

	st, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	authenticator, err := auth.New(auth.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURL:  cfg.Spotify.RedirectURI,
		Timeout:      timeout,
	})
	if err != nil {
		return fmt.Errorf("creating spotify authenticator: %w", err)
	}

	tokenManager := tokens.NewManager(tokens.ManagerConfig{
		Store:     st.credentials,
		Refresher: authenticator,
		Logger:    logger,
	})

	catalog := spotify.New(spotify.Config{Timeout: timeout})

	model, err := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: timeout,
	})
	if err != nil {
		return fmt.Errorf("creating gemini client: %w", err)
	}

	historyService := history.New(st.playlists)

	builder := playlists.NewBuilder(playlists.Config{
		Tokens:    tokenManager,
		Catalog:   catalog,
		Suggester: gemini.NewGenerator(model, cfg.Gemini.SongCount),
		History:   historyService,
		Logger:    logger,
	})

	sessions, err := web.NewSessions(web.SessionConfig{
		Secret: cfg.Session.Secret,
		Secure: cfg.SecureCookies(),
	})
	if err != nil {
		return err
	}

	templates, static, err := assets.Assets()
	if err != nil {
		return err
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:        cfg.Server.Addr,
		TemplatesFS: templates,
		StaticFS:    static,
		Sessions:    sessions,
		Accounts:    accounts.New(st.users),
		OAuth:       authenticator,
		Links:       tokenManager,
		Profiles:    catalog,
		Playlists:   builder,
		History:     historyService,
		Health:      st,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run(ctx)
}
