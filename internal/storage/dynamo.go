package storage

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ignite/polite-popup/internal/popup"
)

// DynamoStore keeps one item per visitor in a shared key-value table.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
	prefix    string
}

type dynamoExposureItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	Status     string `dynamodbav:"Status"`
	SeenCount  int    `dynamodbav:"SeenCount"`
	LastSeenAt int64  `dynamodbav:"LastSeenAt"`
}

// NewDynamoStore creates a DynamoDB-backed store using the default AWS
// credential chain, optionally pinned to a shared config profile.
func NewDynamoStore(ctx context.Context, tableName, region, profile, prefix string) (*DynamoStore, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &DynamoStore{
		client:    dynamodb.NewFromConfig(cfg),
		tableName: tableName,
		prefix:    prefix,
	}, nil
}

func (s *DynamoStore) itemKey(visitorID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: s.prefix + "#" + visitorID},
		"SK": &types.AttributeValueMemberS{Value: "EXPOSURE"},
	}
}

func (s *DynamoStore) Read(ctx context.Context, visitorID string) (popup.ExposureRecord, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.itemKey(visitorID),
	})
	if err != nil {
		return popup.DefaultExposureRecord(), fmt.Errorf("reading exposure record: %w", err)
	}
	if result.Item == nil {
		return popup.DefaultExposureRecord(), nil
	}

	var item dynamoExposureItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		log.Printf("WARN corrupt exposure item visitor=%s: %v", visitorID, err)
		return popup.DefaultExposureRecord(), nil
	}
	return popup.ExposureRecord{
		Status:     popup.SubscriptionStatus(item.Status),
		SeenCount:  item.SeenCount,
		LastSeenAt: item.LastSeenAt,
	}, nil
}

func (s *DynamoStore) Write(ctx context.Context, visitorID string, rec popup.ExposureRecord) error {
	av, err := attributevalue.MarshalMap(dynamoExposureItem{
		PK:         s.prefix + "#" + visitorID,
		SK:         "EXPOSURE",
		Status:     string(rec.Status),
		SeenCount:  rec.SeenCount,
		LastSeenAt: rec.LastSeenAt,
	})
	if err != nil {
		return fmt.Errorf("marshaling exposure item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("writing exposure record: %w", err)
	}
	return nil
}
