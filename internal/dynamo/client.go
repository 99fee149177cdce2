// Package dynamo wraps the AWS SDK DynamoDB client behind the narrow store
// surface the chat core needs: conditional put, prefix query, full scan,
// and delete against one single-table design keyed by PK/SK.
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	// PartitionKey is the table's partition key attribute name.
	PartitionKey = "PK"

	// SortKey is the table's sort key attribute name.
	SortKey = "SK"
)

// ErrConditionalCheckFailed is returned by Put when the conditional guard
// rejected the write, meaning the exact (PK, SK) pair already exists.
var ErrConditionalCheckFailed = errors.New("conditional check failed")

// API is the subset of the DynamoDB SDK client used by Client. It exists so
// tests can inject a mock.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Store is the key-value surface consumed by the repositories. Client is
// the production implementation.
type Store interface {
	Put(ctx context.Context, item map[string]dynamodbtypes.AttributeValue, onlyIfAbsent bool) error
	Query(ctx context.Context, pk, skPrefix string, ascending bool, limit int32) ([]map[string]dynamodbtypes.AttributeValue, error)
	Scan(ctx context.Context, projected ...string) ([]map[string]dynamodbtypes.AttributeValue, error)
	Delete(ctx context.Context, pk, sk string) error
}

// Client is a DynamoDB-backed implementation of [Store]. It is safe for
// concurrent use once Connect has returned.
type Client struct {
	client    API
	tableName string
	awsCfg    *aws.Config
	logger    *zap.Logger
	opts      *Options
}

// New creates a Client for the given AWS config and table name. Call
// [Client.Connect] before use.
func New(awsCfg *aws.Config, tableName string, logger *zap.Logger, opts ...Option) *Client {
	options := newOptions()
	for _, o := range opts {
		o(options)
	}

	return &Client{
		awsCfg:    awsCfg,
		tableName: tableName,
		logger:    logger,
		opts:      options,
	}
}

// Connect initializes the underlying DynamoDB client from the AWS config,
// unless a custom API was injected via [WithAPI].
func (c *Client) Connect() error {
	if c.tableName == "" {
		return errors.New("table name cannot be empty")
	}

	if c.opts.api != nil {
		c.client = c.opts.api
	} else {
		c.client = dynamodb.NewFromConfig(*c.awsCfg)
	}

	return nil
}

// Put writes one item. With onlyIfAbsent set, the write is guarded by a
// condition requiring that no item with the same (PK, SK) exists; a guard
// rejection surfaces as [ErrConditionalCheckFailed] so callers can
// distinguish a key collision from an outage.
func (c *Client) Put(ctx context.Context, item map[string]dynamodbtypes.AttributeValue, onlyIfAbsent bool) error {
	input := &dynamodb.PutItemInput{
		TableName: &c.tableName,
		Item:      item,
	}
	if onlyIfAbsent {
		input.ConditionExpression = aws.String(
			fmt.Sprintf("attribute_not_exists(%s) AND attribute_not_exists(%s)", PartitionKey, SortKey))
	}

	if _, err := c.client.PutItem(ctx, input); err != nil {
		var conditionErr *dynamodbtypes.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			return ErrConditionalCheckFailed
		}
		observeTableOp("put", "error")
		return fmt.Errorf("failed to write item to table %s: %w", c.tableName, err)
	}

	observeTableOp("put", "ok")
	return nil
}

// Query returns items in the pk partition whose sort key starts with
// skPrefix, in the requested sort-key order, following pagination until
// limit items have been collected. A limit of zero or less means no cap.
func (c *Client) Query(ctx context.Context, pk, skPrefix string, ascending bool, limit int32) ([]map[string]dynamodbtypes.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName: &c.tableName,
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":pk":       &dynamodbtypes.AttributeValueMemberS{Value: pk},
			":skprefix": &dynamodbtypes.AttributeValueMemberS{Value: skPrefix},
		},
		KeyConditionExpression: aws.String(
			fmt.Sprintf("%s = :pk AND begins_with(%s, :skprefix)", PartitionKey, SortKey)),
		ScanIndexForward: aws.Bool(ascending),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	var items []map[string]dynamodbtypes.AttributeValue
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		output, err := c.client.Query(ctx, input)
		if err != nil {
			observeTableOp("query", "error")
			return nil, fmt.Errorf("failed to query table %s: %w", c.tableName, err)
		}

		items = append(items, output.Items...)
		if limit > 0 && int32(len(items)) >= limit {
			items = items[:limit]
			break
		}
		if output.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}

	observeTableOp("query", "ok")
	return items, nil
}

// Scan reads the whole table, following pagination to exhaustion. When
// projected attribute names are given, only those attributes are fetched.
func (c *Client) Scan(ctx context.Context, projected ...string) ([]map[string]dynamodbtypes.AttributeValue, error) {
	input := &dynamodb.ScanInput{
		TableName: &c.tableName,
	}
	if len(projected) > 0 {
		names := map[string]string{}
		expr := ""
		for i, attr := range projected {
			placeholder := fmt.Sprintf("#p%d", i)
			names[placeholder] = attr
			if i > 0 {
				expr += ", "
			}
			expr += placeholder
		}
		input.ExpressionAttributeNames = names
		input.ProjectionExpression = aws.String(expr)
	}

	var items []map[string]dynamodbtypes.AttributeValue
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		output, err := c.client.Scan(ctx, input)
		if err != nil {
			observeTableOp("scan", "error")
			return nil, fmt.Errorf("failed to scan table %s: %w", c.tableName, err)
		}

		items = append(items, output.Items...)
		if output.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}

	if c.logger != nil {
		c.logger.Debug("table scan completed", zap.Int("items", len(items)))
	}
	observeTableOp("scan", "ok")
	return items, nil
}

// Delete removes the item addressed by (pk, sk). Deleting a missing item
// is not an error.
func (c *Client) Delete(ctx context.Context, pk, sk string) error {
	input := &dynamodb.DeleteItemInput{
		TableName: &c.tableName,
		Key: map[string]dynamodbtypes.AttributeValue{
			PartitionKey: &dynamodbtypes.AttributeValueMemberS{Value: pk},
			SortKey:      &dynamodbtypes.AttributeValueMemberS{Value: sk},
		},
	}

	if _, err := c.client.DeleteItem(ctx, input); err != nil {
		observeTableOp("delete", "error")
		return fmt.Errorf("failed to delete item from table %s: %w", c.tableName, err)
	}

	observeTableOp("delete", "ok")
	return nil
}
