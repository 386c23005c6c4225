package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/replypilot/internal/alerts"
	"github.com/replypilot/internal/api"
	"github.com/replypilot/internal/audit"
	"github.com/replypilot/internal/classifier"
	"github.com/replypilot/internal/config"
	"github.com/replypilot/internal/esign"
	"github.com/replypilot/internal/jobqueue"
	"github.com/replypilot/internal/mailer"
	"github.com/replypilot/internal/state"
)

// ServeCommand returns the CLI command for starting the webhook server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the ReplyPilot webhook server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides config)",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if port := c.Int("port"); port > 0 {
		cfg.Server.Port = port
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	connector, err := classifier.NewConnector(context.Background(), classifier.ConnectorOptions{
		Provider:    classifier.Provider(cfg.Classifier.Provider),
		APIKey:      cfg.Classifier.APIKey,
		BaseURL:     cfg.Classifier.BaseURL,
		Model:       cfg.Classifier.Model,
		Temperature: cfg.Classifier.Temperature,
		MaxTokens:   cfg.Classifier.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to create classifier connector: %w", err)
	}
	clf := classifier.New(connector, time.Duration(cfg.Classifier.TimeoutSec)*time.Second)

	sender := mailer.NewClient(cfg.Mailer.BaseURL, cfg.Mailer.APIKey,
		cfg.Mailer.FromAddress, cfg.Mailer.RatePerMinute)
	dispatcher := esign.NewClient(cfg.Esign.BaseURL, cfg.Esign.APIKey, cfg.Esign.TemplateID)

	var sink alerts.Sink
	if cfg.Alerts.WebhookURL != "" {
		sink = alerts.NewWebhookSink(cfg.Alerts.WebhookURL)
	} else {
		sink = alerts.NopSink{}
	}

	// Postgres is optional: with it, alerts are queued through River and
	// decisions are persisted; without it, alerts go out synchronously and
	// the audit trail is in-memory only for the process lifetime.
	var alerter api.Alerter = api.SinkAlerter{Sink: sink}
	var recorder audit.Recorder = audit.NopRecorder{}
	if cfg.Database.URL != "" {
		queue, err := jobqueue.NewJobQueue(cfg.Database.URL, sink)
		if err != nil {
			return fmt.Errorf("failed to create job queue: %w", err)
		}
		if err := queue.Start(context.Background()); err != nil {
			return fmt.Errorf("failed to start job queue: %w", err)
		}
		defer queue.Stop(context.Background())
		alerter = queue

		dbRecorder, err := audit.Open(cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to open audit store: %w", err)
		}
		defer dbRecorder.Close()
		recorder = dbRecorder
	} else {
		log.Printf("[INFO] No database configured; alerts are synchronous and decisions are not persisted")
	}

	store := state.NewStore()
	orchestrator := api.NewOrchestrator(cfg, store, clf, sender, dispatcher, alerter, recorder)
	server := api.NewServer(cfg, store, orchestrator, recorder)

	fmt.Printf("Starting ReplyPilot server on port %d...\n", cfg.Server.Port)
	return server.Start()
}
