package events

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

// PutItemAPI is the part of *dynamodb.Client used by DynamoDBJournal.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDBConfig holds journal table settings.
type DynamoDBConfig struct {
	Region    string
	TableName string
	// Endpoint overrides the service endpoint, e.g. for LocalStack.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// TTL expires journal entries after this long. Zero keeps them forever.
	TTL time.Duration
}

// DynamoDBJournal appends every event as an item keyed by mapper_id and event time.
type DynamoDBJournal struct {
	client    PutItemAPI
	tableName string
	ttl       time.Duration
	logger    zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewDynamoDBJournal loads the default AWS config for cfg.Region, optionally
// overriding credentials and endpoint.
func NewDynamoDBJournal(ctx context.Context, cfg DynamoDBConfig, logger zerolog.Logger) (*DynamoDBJournal, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}
	if cfg.TableName == "" {
		return nil, fmt.Errorf("table name is required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	var opts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return NewDynamoDBJournalWithClient(dynamodb.NewFromConfig(awsCfg, opts...), cfg.TableName, cfg.TTL, logger), nil
}

// NewDynamoDBJournalWithClient uses an existing client.
func NewDynamoDBJournalWithClient(client PutItemAPI, tableName string, ttl time.Duration, logger zerolog.Logger) *DynamoDBJournal {
	return &DynamoDBJournal{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		logger:    logger.With().Str("component", "dynamodb").Str("table", tableName).Logger(),
	}
}

// Publish writes event as a single item.
func (j *DynamoDBJournal) Publish(ctx context.Context, event *core.MapperEvent) error {
	j.mu.RLock()
	closed := j.closed
	j.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}

	data, err := encodeEvent(event)
	if err != nil {
		return err
	}

	item := map[string]types.AttributeValue{
		"mapper_id":  &types.AttributeValueMemberS{Value: event.MapperID},
		"event_time": &types.AttributeValueMemberS{Value: event.Timestamp.UTC().Format(time.RFC3339Nano)},
		"event_id":   &types.AttributeValueMemberS{Value: event.ID},
		"event_type": &types.AttributeValueMemberS{Value: string(event.Type)},
		"name":       &types.AttributeValueMemberS{Value: event.Name},
		"elements":   &types.AttributeValueMemberN{Value: strconv.Itoa(event.Elements)},
		"payload":    &types.AttributeValueMemberB{Value: data},
	}
	if j.ttl > 0 {
		expiresAt := event.Timestamp.Add(j.ttl).Unix()
		item["ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt, 10)}
	}

	_, err = j.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(j.tableName),
		Item:      item,
	})
	if err != nil {
		j.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to journal event")
		return fmt.Errorf("failed to put event %s: %w", event.ID, err)
	}
	return nil
}

// Close marks the journal closed. The AWS client needs no explicit shutdown.
func (j *DynamoDBJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = true
	return nil
}
