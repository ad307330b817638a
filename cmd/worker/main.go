package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/pos-handoff/internal/aws"
	"github.com/imrishuroy/pos-handoff/internal/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Error("load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		logger.Error("init aws clients", "error", err)
		os.Exit(1)
	}
	p := NewProcessor(clients, cfg.EventsTable, cfg.MetricsNS, logger)

	// RUN_LOCAL processes one event from LOCAL_SQS_BODY and exits.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"id":"local-event-1","eventType":"lookup","lookupType":"sku","queryValue":"LOCAL-1","createdAt":"2026-01-01T00:00:00Z"}`
		}
		ev := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "local", Body: body}}}
		if err := p.Handle(context.Background(), ev); err != nil {
			logger.Error("local handler error", "error", err)
			os.Exit(1)
		}
		return
	}

	lambda.Start(p.Handle)
}
