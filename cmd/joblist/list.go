package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/rsilvagit/joblist/internal/httpclient"
	"github.com/rsilvagit/joblist/internal/i18n"
	"github.com/rsilvagit/joblist/internal/listing"
	"github.com/rsilvagit/joblist/internal/logging"
	"github.com/rsilvagit/joblist/internal/model"
	"github.com/rsilvagit/joblist/internal/output"
	"github.com/rsilvagit/joblist/internal/query"
	"github.com/rsilvagit/joblist/internal/session"
)

func listAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)

	bundle, err := i18n.Load(cfg.I18n.DefaultLanguage)
	if err != nil {
		return err
	}
	tr := bundle.Match(cmd.String("lang"), os.Getenv("LANG"))

	params, err := listParams(cmd)
	if err != nil {
		return err
	}

	api, err := newAPI(ctx, cfg, logger)
	if err != nil {
		return err
	}

	ctx = httpclient.WithLanguage(ctx, tr.Lang())
	if token := envOrFlag(cmd.String("token"), "JOBLIST_TOKEN"); token != "" {
		ctx = session.WithUser(ctx, &model.User{ID: "cli", Token: token})
	} else if cfg.Demo.Enabled {
		ctx = session.WithUser(ctx, demoUser(cfg))
	}

	view := listing.Fetch(ctx, api, params, logger)
	if view.IsFailed() {
		return fmt.Errorf("%s: %w", tr.T("Error loading jobs"), view.Err)
	}

	client, err := newHTTPClient(cfg, logger)
	if err != nil {
		return err
	}
	writers := []output.PageWriter{output.NewConsolePrinter(os.Stdout, tr)}

	tkn := envOrFlag(cmd.String("telegram-token"), "TELEGRAM_TOKEN")
	chatID := envOrFlag(cmd.String("telegram-chat-id"), "TELEGRAM_CHAT_ID")
	if tkn != "" && chatID != "" {
		writers = append(writers, output.NewTelegramWriter(tkn, chatID, client, tr))
	}
	if webhook := envOrFlag(cmd.String("discord-webhook"), "DISCORD_WEBHOOK_URL"); webhook != "" {
		writers = append(writers, output.NewDiscordWriter(webhook, client, tr))
	}

	for _, w := range writers {
		if err := w.WritePage(ctx, view); err != nil {
			logger.Warn().Err(err).Msg("Failed to write results")
		}
	}
	return nil
}

// listParams turns the flags into listing parameters, with the same
// validation as the page URL.
func listParams(cmd *cli.Command) (query.Params, error) {
	values := url.Values{}
	values.Set(query.KeyPage, strconv.Itoa(cmd.Int("page")))
	values.Set(query.KeyPerPage, strconv.Itoa(cmd.Int("per-page")))
	values.Set(query.KeySearchField, cmd.String("field"))
	values.Set(query.KeySearchQuery, cmd.String("query"))
	values.Set(query.KeyOrderByField, cmd.String("order-by"))
	values.Set(query.KeyOrderByDirection, cmd.String("direction"))
	return query.Parse(values, query.Default())
}
