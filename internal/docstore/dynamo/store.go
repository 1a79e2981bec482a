// Package dynamo is a DynamoDB docstore backend. Each collection is one table
// keyed by the string attribute "_id". Identifiers are stored in hex and
// instants in docstore.TimeLayout so that range filters compare correctly.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

// API is the subset of *dynamodb.Client the backend uses.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	ListTables(ctx context.Context, in *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

// Options configures Open.
type Options struct {
	Region      string
	Endpoint    string // optional, e.g. http://localhost:8000 for DynamoDB Local
	TablePrefix string
}

// Database maps collections onto tables named TablePrefix+collection.
type Database struct {
	client API
	prefix string
}

// Open builds a client from the default AWS credential chain.
func Open(ctx context.Context, opts Options) (*Database, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return New(client, opts.TablePrefix), nil
}

// New wraps an existing client.
func New(client API, tablePrefix string) *Database {
	return &Database{client: client, prefix: tablePrefix}
}

func (d *Database) Collection(name string) docstore.Collection {
	return &Collection{client: d.client, name: name, table: d.prefix + name}
}

// EnsureIndexes creates any missing tables. DynamoDB has no unique secondary
// indexes, so uniqueness on these tables relies on the pre-insert checks.
func (d *Database) EnsureIndexes(ctx context.Context, specs ...docstore.IndexSpec) error {
	seen := make(map[string]bool)
	for _, spec := range specs {
		if spec.Unique {
			slog.Warn("dynamodb: unique index not enforced by store", "collection", spec.Collection, "fields", spec.Fields)
		}
		if seen[spec.Collection] {
			continue
		}
		seen[spec.Collection] = true
		if err := d.ensureTable(ctx, d.prefix+spec.Collection); err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) ensureTable(ctx context.Context, table string) error {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describing table %s: %w", table, err)
	}

	_, err = d.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(docstore.KeyID), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(docstore.KeyID), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("creating table %s: %w", table, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(d.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, 2*time.Minute); err != nil {
		return fmt.Errorf("waiting for table %s: %w", table, err)
	}
	slog.Info("dynamodb table created", "table", table)
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	_, err := d.client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
	return err
}

// Close is a no-op; the SDK client holds no connections that need releasing.
func (d *Database) Close(context.Context) error { return nil }

// Collection is one table.
type Collection struct {
	client API
	name   string
	table  string
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) Insert(ctx context.Context, doc docstore.Document) (docstore.ID, error) {
	id := docstore.NewID()
	stored := doc.Clone()
	stored[docstore.KeyID] = id

	item, err := encodeDocument(stored)
	if err != nil {
		return docstore.NilID, err
	}
	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(c.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": docstore.KeyID},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return docstore.NilID, fmt.Errorf("%w: %s", docstore.ErrDuplicateKey, id.Hex())
		}
		return docstore.NilID, fmt.Errorf("put %s: %w", c.table, err)
	}
	return id, nil
}

func (c *Collection) Find(ctx context.Context, filter docstore.Filter) iter.Seq2[docstore.Document, error] {
	return func(yield func(docstore.Document, error) bool) {
		input, err := scanInput(c.table, filter)
		if err != nil {
			yield(nil, err)
			return
		}
		if input == nil {
			return
		}

		paginator := dynamodb.NewScanPaginator(c.client, input)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(nil, fmt.Errorf("scan %s: %w", c.table, err))
				return
			}
			for _, raw := range page.Items {
				doc, err := decodeItem(raw)
				if err != nil {
					yield(nil, err)
					return
				}
				// Predicates that cannot be expressed server-side are applied here.
				if !docstore.Match(doc, filter) {
					continue
				}
				if !yield(doc, nil) {
					return
				}
			}
		}
	}
}

func (c *Collection) FindOne(ctx context.Context, filter docstore.Filter) (docstore.Document, error) {
	for doc, err := range c.Find(ctx, filter) {
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
	return nil, docstore.ErrNoDocument
}

func (c *Collection) UpdateOne(ctx context.Context, id docstore.ID, set docstore.Document) (docstore.Document, error) {
	fields := set.Clone()
	delete(fields, docstore.KeyID)
	if len(fields) == 0 {
		return c.FindOne(ctx, docstore.ByID(id))
	}

	update, names, values, err := setExpression(fields)
	if err != nil {
		return nil, err
	}
	names["#id"] = docstore.KeyID

	out, err := c.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(c.table),
		Key:                       itemKey(id),
		UpdateExpression:          aws.String(update),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, docstore.ErrNoDocument
		}
		return nil, fmt.Errorf("update %s: %w", c.table, err)
	}
	return decodeItem(out.Attributes)
}

func (c *Collection) DeleteOne(ctx context.Context, id docstore.ID) (int64, error) {
	_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(c.table),
		Key:                      itemKey(id),
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": docstore.KeyID},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, nil
		}
		return 0, fmt.Errorf("delete %s: %w", c.table, err)
	}
	return 1, nil
}

func itemKey(id docstore.ID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		docstore.KeyID: &types.AttributeValueMemberS{Value: id.Hex()},
	}
}

var (
	_ docstore.Database   = (*Database)(nil)
	_ docstore.Collection = (*Collection)(nil)
)
