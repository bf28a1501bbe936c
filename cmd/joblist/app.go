package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/urfave/cli/v3"

	"github.com/rsilvagit/joblist/internal/config"
	"github.com/rsilvagit/joblist/internal/httpclient"
	"github.com/rsilvagit/joblist/internal/jobapi"
	"github.com/rsilvagit/joblist/internal/model"
	"github.com/rsilvagit/joblist/internal/session"
)

// demoApplications are the jobs the demo user has applied to at startup.
var demoApplications = []string{"job-02", "job-05", "job-11"}

// loadConfig reads file, .env and environment, then applies the flags that
// were set explicitly. It does not validate.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"), cmd.String("env"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("api-url") {
		cfg.API.BaseURL = cmd.String("api-url")
	}
	if cmd.IsSet("demo") {
		cfg.Demo.Enabled = cmd.Bool("demo")
	}
	if cmd.IsSet("log-level") {
		cfg.Logging.Level = cmd.String("log-level")
	}
	return cfg, nil
}

func envOrFlag(flagVal, envKey string) string {
	if flagVal != "" {
		return flagVal
	}
	return os.Getenv(envKey)
}

func newHTTPClient(cfg *config.Config, logger arbor.ILogger) (*httpclient.Client, error) {
	return httpclient.New(httpclient.Options{
		ProxyURL:      cfg.API.ProxyURL,
		Timeout:       cfg.API.Timeout.Duration,
		RatePerSecond: cfg.API.RatePerSecond,
		Burst:         cfg.API.Burst,
		MaxRetries:    cfg.API.MaxRetries,
	}, logger)
}

// newAPI returns the jobs API: the remote service, or the bundled jobs in
// demo mode.
func newAPI(ctx context.Context, cfg *config.Config, logger arbor.ILogger) (jobapi.API, error) {
	if !cfg.Demo.Enabled {
		client, err := newHTTPClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		return jobapi.NewHTTP(client, cfg.API.BaseURL), nil
	}

	jobs, err := jobapi.Seed()
	if err != nil {
		return nil, err
	}
	mem := jobapi.NewMemory(jobs)

	demoCtx := session.WithUser(ctx, demoUser(cfg))
	for _, id := range demoApplications {
		if err := mem.Apply(demoCtx, id); err != nil {
			return nil, fmt.Errorf("demo: applying to %s: %w", id, err)
		}
	}
	logger.Info().
		Int("jobs", len(jobs)).
		Str("user_id", cfg.Demo.UserID).
		Msg("Demo mode: serving bundled jobs")
	return mem, nil
}

func demoUser(cfg *config.Config) *model.User {
	return &model.User{ID: cfg.Demo.UserID, Email: cfg.Demo.Email}
}

func newSessionStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "redis":
		return session.NewRedisStore(cfg.Session.RedisURL, cfg.Session.TTL.Duration)
	default:
		return session.NewMemoryStore(cfg.Session.TTL.Duration), nil
	}
}
