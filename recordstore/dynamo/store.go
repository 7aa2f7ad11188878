// Package dynamo implements a recordstore.Store over a DynamoDB table.
//
// Table layout: partition key "dataset" (S), sort key "row_key" (S, the
// 8-digit record key) and the record payload in "record" (B). Sort-key
// order is row order, so a Query walks the dataset sequentially and a
// GetItem serves companion reads.
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/labelsampler/recordstore"
	"github.com/hupe1980/labelsampler/resource"
)

const (
	attrDataset = "dataset"
	attrKey     = "row_key"
	attrRecord  = "record"

	// DefaultPageSize is the number of records fetched per cursor Query.
	DefaultPageSize = 256
)

// ErrInvalidItem is returned for items missing the expected attributes.
var ErrInvalidItem = errors.New("dynamo: invalid item")

// Client is the subset of the DynamoDB API used by Store.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Option configures a Store.
type Option func(*Store)

// WithPageSize sets the cursor page size.
func WithPageSize(n int32) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithResourceController bounds concurrent requests through rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(s *Store) {
		s.rc = rc
	}
}

// Store is a recordstore.Store for one dataset of a DynamoDB table.
type Store struct {
	client   Client
	table    string
	dataset  string
	pageSize int32
	rc       *resource.Controller
	n        int
	closed   bool
}

var _ recordstore.Store = (*Store)(nil)

// Open counts the records of dataset and returns a Store over them.
func Open(ctx context.Context, client Client, table, dataset string, optFns ...Option) (*Store, error) {
	s := New(client, table, dataset, optFns...)
	n, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	s.n = n
	return s, nil
}

// New returns a Store without counting; use it for loading records.
func New(client Client, table, dataset string, optFns ...Option) *Store {
	s := &Store{
		client:   client,
		table:    table,
		dataset:  dataset,
		pageSize: DefaultPageSize,
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Count queries the number of records in the dataset.
func (s *Store) Count(ctx context.Context) (int, error) {
	input := s.query()
	input.Select = types.SelectCount

	total := 0
	p := dynamodb.NewQueryPaginator(s.client, input)
	for p.HasMorePages() {
		page, err := s.page(ctx, p)
		if err != nil {
			return 0, fmt.Errorf("dynamo: count %s: %w", s.dataset, err)
		}
		total += int(page.Count)
	}
	return total, nil
}

func (s *Store) page(ctx context.Context, p *dynamodb.QueryPaginator) (*dynamodb.QueryOutput, error) {
	if err := s.rc.AcquireRead(ctx); err != nil {
		return nil, err
	}
	defer s.rc.ReleaseRead()
	return p.NextPage(ctx)
}

func (s *Store) query() *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("#ds = :ds"),
		ExpressionAttributeNames: map[string]string{
			"#ds": attrDataset,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ds": &types.AttributeValueMemberS{Value: s.dataset},
		},
		ScanIndexForward: aws.Bool(true),
	}
}

func (s *Store) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrDataset: &types.AttributeValueMemberS{Value: s.dataset},
		attrKey:     &types.AttributeValueMemberS{Value: key},
	}
}

// Put stores value under the key of row.
func (s *Store) Put(ctx context.Context, row int, value []byte) error {
	item := s.itemKey(recordstore.Key(row))
	item[attrRecord] = &types.AttributeValueMemberB{Value: value}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamo: put %s/%s: %w", s.dataset, recordstore.Key(row), err)
	}
	if row >= s.n {
		s.n = row + 1
	}
	return nil
}

// Delete removes the record of row. Deleting a missing row is not an error.
func (s *Store) Delete(ctx context.Context, row int) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.itemKey(recordstore.Key(row)),
	})
	if err != nil {
		return fmt.Errorf("dynamo: delete %s/%s: %w", s.dataset, recordstore.Key(row), err)
	}
	if row == s.n-1 {
		s.n--
	}
	return nil
}

// Len returns the record count observed at Open plus rows put since.
func (s *Store) Len() int { return s.n }

func (s *Store) Close() error {
	s.closed = true
	return nil
}

func (s *Store) NewCursor() recordstore.Cursor {
	return &cursor{s: s}
}

func (s *Store) NewTransaction() recordstore.Transaction {
	return &transaction{s: s}
}

func decodeItem(item map[string]types.AttributeValue) (string, []byte, error) {
	k, ok := item[attrKey].(*types.AttributeValueMemberS)
	if !ok {
		return "", nil, fmt.Errorf("%w: missing %s", ErrInvalidItem, attrKey)
	}
	v, ok := item[attrRecord].(*types.AttributeValueMemberB)
	if !ok {
		return "", nil, fmt.Errorf("%w: missing %s for %s", ErrInvalidItem, attrRecord, k.Value)
	}
	return k.Value, v.Value, nil
}

// cursor buffers one Query page at a time.
type cursor struct {
	s     *Store
	items []map[string]types.AttributeValue
	pos   int
	next  map[string]types.AttributeValue // LastEvaluatedKey of the buffered page
	key   string
	value []byte
	valid bool
}

func (c *cursor) Valid() bool { return c.valid }

func (c *cursor) Key() string { return c.key }

func (c *cursor) Value() []byte { return c.value }

func (c *cursor) SeekToFirst(ctx context.Context) error {
	c.items, c.pos, c.next, c.valid = nil, 0, nil, false
	if err := c.fetch(ctx, nil); err != nil {
		return err
	}
	return c.load()
}

func (c *cursor) Next(ctx context.Context) error {
	if !c.valid {
		return nil
	}
	c.pos++
	if c.pos >= len(c.items) {
		if len(c.next) == 0 {
			c.valid = false
			return nil
		}
		if err := c.fetch(ctx, c.next); err != nil {
			c.valid = false
			return err
		}
	}
	return c.load()
}

func (c *cursor) fetch(ctx context.Context, start map[string]types.AttributeValue) error {
	if c.s.closed {
		return recordstore.ErrClosed
	}
	// Pages may come back empty while LastEvaluatedKey is set.
	for {
		input := c.s.query()
		input.Limit = aws.Int32(c.s.pageSize)
		input.ExclusiveStartKey = start

		if err := c.s.rc.AcquireRead(ctx); err != nil {
			return err
		}
		out, err := c.s.client.Query(ctx, input)
		c.s.rc.ReleaseRead()
		if err != nil {
			return fmt.Errorf("dynamo: query %s: %w", c.s.dataset, err)
		}

		c.items, c.pos = out.Items, 0
		c.next = out.LastEvaluatedKey
		if len(c.items) > 0 || len(c.next) == 0 {
			return nil
		}
		start = c.next
	}
}

func (c *cursor) load() error {
	if c.pos >= len(c.items) {
		c.valid = false
		return nil
	}
	k, v, err := decodeItem(c.items[c.pos])
	if err != nil {
		c.valid = false
		return err
	}
	c.key, c.value, c.valid = k, v, true
	return nil
}

type transaction struct {
	s *Store
}

func (t *transaction) Get(ctx context.Context, key string) ([]byte, error) {
	if t.s.closed {
		return nil, recordstore.ErrClosed
	}
	if err := t.s.rc.AcquireRead(ctx); err != nil {
		return nil, err
	}
	defer t.s.rc.ReleaseRead()

	out, err := t.s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.s.table),
		Key:            t.s.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo: get %s/%s: %w", t.s.dataset, key, err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", recordstore.ErrKeyNotFound, t.s.dataset, key)
	}
	_, v, err := decodeItem(out.Item)
	return v, err
}
