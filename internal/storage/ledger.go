package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ignite/ad-insights/internal/config"
	"github.com/ignite/ad-insights/internal/domain"
)

const timeKeyFormat = "2006-01-02T15:04:05.000Z"

// ledgerItem is one run as stored in the ledger table. Runs of a kind
// share a partition and sort by start time.
type ledgerItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	RunID      string `dynamodbav:"RunID"`
	Scope      string `dynamodbav:"Scope"`
	Status     string `dynamodbav:"Status"`
	StartedAt  string `dynamodbav:"StartedAt"`
	FinishedAt string `dynamodbav:"FinishedAt"`
	DurationMS int64  `dynamodbav:"DurationMS"`
	Stats      string `dynamodbav:"Stats,omitempty"`
	Error      string `dynamodbav:"Error,omitempty"`
	TTL        int64  `dynamodbav:"TTL,omitempty"`
}

// RunLedger records finished runs in DynamoDB. It implements
// runlog.Recorder.
type RunLedger struct {
	client  DynamoAPI
	table   string
	ttlDays int
	now     func() time.Time
}

// NewRunLedger creates a ledger writing to the configured table.
func NewRunLedger(client DynamoAPI, cfg config.DynamoDBConfig) *RunLedger {
	return &RunLedger{
		client:  client,
		table:   cfg.RunLedgerTable,
		ttlDays: cfg.TTLDays,
		now:     time.Now,
	}
}

func partitionKey(kind domain.RunKind) string { return "RUN#" + string(kind) }

// RecordRun writes run to the ledger.
func (l *RunLedger) RecordRun(ctx context.Context, run domain.RunRecord) error {
	item := ledgerItem{
		PK:         partitionKey(run.Kind),
		SK:         run.StartedAt.UTC().Format(timeKeyFormat) + "#" + run.RunID,
		RunID:      run.RunID,
		Scope:      run.Scope,
		Status:     string(run.Status),
		StartedAt:  run.StartedAt.UTC().Format(time.RFC3339Nano),
		FinishedAt: run.FinishedAt.UTC().Format(time.RFC3339Nano),
		DurationMS: run.Duration().Milliseconds(),
		Error:      run.Error,
	}
	if len(run.Stats) > 0 {
		data, err := json.Marshal(run.Stats)
		if err != nil {
			return fmt.Errorf("marshaling stats: %w", err)
		}
		item.Stats = string(data)
	}
	if l.ttlDays > 0 {
		item.TTL = l.now().Add(time.Duration(l.ttlDays) * 24 * time.Hour).Unix()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshaling item: %w", err)
	}
	if _, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("putting item to DynamoDB: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs of kind, newest first.
func (l *RunLedger) RecentRuns(ctx context.Context, kind domain.RunKind, limit int) ([]domain.RunRecord, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(l.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: partitionKey(kind)},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}
	result, err := l.client.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("querying DynamoDB: %w", err)
	}

	var items []ledgerItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("unmarshaling items: %w", err)
	}
	runs := make([]domain.RunRecord, 0, len(items))
	for _, it := range items {
		run := domain.RunRecord{
			RunID:  it.RunID,
			Kind:   kind,
			Scope:  it.Scope,
			Status: domain.JobStatus(it.Status),
			Error:  it.Error,
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, it.StartedAt)
		run.FinishedAt, _ = time.Parse(time.RFC3339Nano, it.FinishedAt)
		if it.Stats != "" {
			if err := json.Unmarshal([]byte(it.Stats), &run.Stats); err != nil {
				return nil, fmt.Errorf("decoding stats for %s: %w", it.RunID, err)
			}
		}
		runs = append(runs, run)
	}
	return runs, nil
}
