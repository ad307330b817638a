package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/pos-handoff/internal/analytics"
	"github.com/imrishuroy/pos-handoff/internal/aws"
)

// metricName is the CloudWatch metric counting recorded events.
const metricName = "PriceCheckerEvents"

// Processor persists analytics events delivered through SQS and counts them
// in CloudWatch.
type Processor struct {
	dynamo      aws.DynamoDBAPI
	eventsTable string
	metrics     *aws.Metrics
	logger      *slog.Logger
	nowFunc     func() time.Time
}

// NewProcessor creates a worker processor with AWS clients injected.
func NewProcessor(clients *aws.AWSClients, eventsTable, metricsNamespace string, logger *slog.Logger) *Processor {
	return &Processor{
		dynamo:      clients.DynamoDB,
		eventsTable: eventsTable,
		metrics:     aws.NewMetrics(clients.CloudWatch, metricsNamespace),
		logger:      logger,
		nowFunc:     time.Now,
	}
}

// Handle receives an SQS batch event and processes each message. Any
// failure fails the batch so Lambda redelivers it; redelivered events that
// were already stored are skipped.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.ErrorContext(ctx, "worker error", "message_id", rec.MessageId, "error", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var e analytics.Event
	if err := json.Unmarshal([]byte(rec.Body), &e); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if e.ID == "" || e.EventType == "" {
		return fmt.Errorf("message %s: event id and type are required", rec.MessageId)
	}

	item, err := attributevalue.MarshalMap(newEventItem(&e, p.nowFunc().UTC()))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = p.dynamo.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &p.eventsTable,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(id)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		p.logger.InfoContext(ctx, "duplicate analytics event", "id", e.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("put event %s: %w", e.ID, err)
	}

	// Metrics are best effort; the event is already stored.
	dims := map[string]string{"EventType": e.EventType, "Outcome": e.Outcome(), "LookupType": e.LookupType}
	if err := p.metrics.Count(ctx, metricName, 1, dims); err != nil {
		attrs := []any{"id", e.ID, "error", err}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			attrs = append(attrs, "code", apiErr.ErrorCode())
		}
		p.logger.WarnContext(ctx, "emit event metric", attrs...)
	}

	p.logger.InfoContext(ctx, "recorded analytics event", "id", e.ID, "event_type", e.EventType)
	return nil
}

func awsString(s string) *string { return &s }
