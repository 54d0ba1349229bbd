/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// keyAttribute is the table's partition key.
const keyAttribute = "composite_key"

// DynamoConfig selects the table and an optional endpoint (DynamoDB Local).
type DynamoConfig struct {
	Table    string
	Endpoint string
}

// dynamoAPI is the subset of the DynamoDB client the store uses.
type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoStore implements Store on a DynamoDB table keyed by composite_key.
type DynamoStore struct {
	client dynamoAPI
	table  string
	logger zerolog.Logger
}

// NewDynamoStore creates a DynamoDB-backed index from a resolved AWS config.
func NewDynamoStore(awsCfg aws.Config, cfg DynamoConfig, logger zerolog.Logger) *DynamoStore {
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newDynamoStore(client, cfg.Table, logger)
}

func newDynamoStore(client dynamoAPI, table string, logger zerolog.Logger) *DynamoStore {
	return &DynamoStore{client: client, table: table, logger: logger}
}

// Put writes one item.
func (d *DynamoStore) Put(ctx context.Context, rec Record) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", rec.CompositeKey, err)
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("dynamodb put: %w", err)
	}
	return nil
}

// BatchPut issues one BatchWriteItem and maps UnprocessedItems back to the
// records they came from.
func (d *DynamoStore) BatchPut(ctx context.Context, recs []Record) ([]Record, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	byKey := make(map[string]Record, len(recs))
	reqs := make([]types.WriteRequest, 0, len(recs))
	for _, rec := range recs {
		item, err := attributevalue.MarshalMap(rec)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", rec.CompositeKey, err)
		}
		byKey[rec.CompositeKey] = rec
		reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	out, err := d.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{d.table: reqs},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb batch write: %w", err)
	}

	// An unprocessed entry that cannot be matched to a sent record fails the
	// request; skipping it would count an unwritten record as written.
	var unprocessed []Record
	for _, wr := range out.UnprocessedItems[d.table] {
		if wr.PutRequest == nil {
			return nil, errors.New("dynamodb batch write: unprocessed entry without put request")
		}
		var key struct {
			CompositeKey string `dynamodbav:"composite_key"`
		}
		if err := attributevalue.UnmarshalMap(wr.PutRequest.Item, &key); err != nil {
			return nil, fmt.Errorf("dynamodb batch write: unreadable unprocessed item: %w", err)
		}
		rec, ok := byKey[key.CompositeKey]
		if !ok {
			return nil, fmt.Errorf("dynamodb batch write: unprocessed item %q was not sent", key.CompositeKey)
		}
		unprocessed = append(unprocessed, rec)
	}
	if len(unprocessed) > 0 {
		d.logger.Debug().Int("unprocessed", len(unprocessed)).Int("sent", len(recs)).Msg("dynamodb returned unprocessed items")
	}
	return unprocessed, nil
}

// Get reads one item with a strongly consistent read.
func (d *DynamoStore) Get(ctx context.Context, compositeKey string) (*Record, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            map[string]types.AttributeValue{keyAttribute: &types.AttributeValueMemberS{Value: compositeKey}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", compositeKey, err)
	}
	return &rec, nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (d *DynamoStore) Close() error { return nil }
