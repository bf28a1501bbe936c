package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "joblist",
		Usage:   "Paginated, filterable job listing backed by the jobs API",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Serve the listing page",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "host",
						Usage: "Listen host",
					},
					&cli.IntFlag{
						Name:  "port",
						Usage: "Listen port",
					},
				),
				Action: serveAction,
			},
			{
				Name:  "list",
				Usage: "Print one page of jobs",
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "per-page",
						Usage: "Jobs per page",
						Value: 10,
					},
					&cli.StringFlag{
						Name:  "field",
						Usage: "Search field: name, companyName, location",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Search text; commas separate alternatives",
					},
					&cli.StringFlag{
						Name:  "order-by",
						Usage: "Sort field: createdAt, name, companyName, location, salary",
						Value: "createdAt",
					},
					&cli.StringFlag{
						Name:  "direction",
						Usage: "Sort direction: asc, desc",
						Value: "asc",
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: "Access token forwarded to the jobs API (env JOBLIST_TOKEN)",
					},
					&cli.StringFlag{
						Name:  "lang",
						Usage: "Output language: en, pt-BR",
					},
					&cli.StringFlag{
						Name:  "telegram-token",
						Usage: "Telegram bot token (env TELEGRAM_TOKEN)",
					},
					&cli.StringFlag{
						Name:  "telegram-chat-id",
						Usage: "Telegram chat id (env TELEGRAM_CHAT_ID)",
					},
					&cli.StringFlag{
						Name:  "discord-webhook",
						Usage: "Discord webhook URL (env DISCORD_WEBHOOK_URL)",
					},
				),
				Action: listAction,
			},
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "TOML configuration file",
		},
		&cli.StringFlag{
			Name:  "env",
			Usage: "Environment file",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "api-url",
			Usage: "Base URL of the jobs API",
		},
		&cli.BoolFlag{
			Name:  "demo",
			Usage: "Serve the bundled jobs from memory",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
	}
}
