package main

import (
	"context"

	"github.com/ternarybob/banner"
	"github.com/urfave/cli/v3"

	"github.com/rsilvagit/joblist/internal/i18n"
	"github.com/rsilvagit/joblist/internal/logging"
	"github.com/rsilvagit/joblist/internal/server"
	"github.com/rsilvagit/joblist/internal/web"
)

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("host") {
		cfg.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Server.Port = cmd.Int("port")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	banner.Print("joblist", version)
	logger := logging.New(cfg.Logging)

	bundle, err := i18n.Load(cfg.I18n.DefaultLanguage)
	if err != nil {
		return err
	}
	renderer, err := web.NewRenderer()
	if err != nil {
		return err
	}

	api, err := newAPI(ctx, cfg, logger)
	if err != nil {
		return err
	}

	sessions, err := newSessionStore(cfg)
	if err != nil {
		return err
	}
	defer sessions.Close()

	logger.Info().
		Str("api", cfg.API.BaseURL).
		Str("sessions", cfg.Session.Backend).
		Str("language", cfg.I18n.DefaultLanguage).
		Bool("demo", cfg.Demo.Enabled).
		Msg("Starting joblist")

	srv := server.New(cfg, server.Deps{
		Logger:   logger,
		API:      api,
		Sessions: sessions,
		Bundle:   bundle,
		Renderer: renderer,
	})
	return srv.Run(ctx)
}
