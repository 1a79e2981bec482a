package dynamo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

// fakeAPI keeps items in memory. Scan ignores the filter expression, so
// every predicate is exercised through the client-side match.
type fakeAPI struct {
	tables map[string]map[string]map[string]types.AttributeValue
	order  map[string][]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		tables: make(map[string]map[string]map[string]types.AttributeValue),
		order:  make(map[string][]string),
	}
}

func keyOf(key map[string]types.AttributeValue) string {
	return key[docstore.KeyID].(*types.AttributeValueMemberS).Value
}

func (f *fakeAPI) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := f.tables[name]
	if !ok {
		t = make(map[string]map[string]types.AttributeValue)
		f.tables[name] = t
	}
	return t
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	t := f.table(*in.TableName)
	k := keyOf(in.Item)
	if _, ok := t[k]; ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	t[k] = in.Item
	f.order[*in.TableName] = append(f.order[*in.TableName], k)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	item, ok := f.table(*in.TableName)[keyOf(in.Key)]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	for ph, field := range in.ExpressionAttributeNames {
		if strings.HasPrefix(ph, "#a") {
			item[field] = in.ExpressionAttributeValues[":a"+ph[2:]]
		}
	}
	return &dynamodb.UpdateItemOutput{Attributes: item}, nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	t := f.table(*in.TableName)
	k := keyOf(in.Key)
	if _, ok := t[k]; !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	delete(t, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeAPI) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	t := f.table(*in.TableName)
	out := &dynamodb.ScanOutput{}
	for _, k := range f.order[*in.TableName] {
		if item, ok := t[k]; ok {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

func (f *fakeAPI) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if _, ok := f.tables[*in.TableName]; !ok {
		return nil, &types.ResourceNotFoundException{}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeAPI) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.table(*in.TableName)
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeAPI) ListTables(context.Context, *dynamodb.ListTablesInput, ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	return &dynamodb.ListTablesOutput{}, nil
}

func TestCollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	db := New(api, "test-")
	c := db.Collection("Orase")

	id, err := c.Insert(ctx, docstore.Document{"nume_oras": "Cluj", "latitudine": 46.77})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, ok := api.tables["test-Orase"]; !ok {
		t.Fatalf("expected prefixed table name")
	}
	if _, err := c.Insert(ctx, docstore.Document{"nume_oras": "Iasi", "latitudine": 47.15}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	doc, err := c.FindOne(ctx, docstore.Filter{docstore.EqFold("nume_oras", "CLUJ")})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got, _ := doc.ID(); got != id {
		t.Fatalf("found %v, want %v", got, id)
	}

	updated, err := c.UpdateOne(ctx, id, docstore.Document{"latitudine": 46.8})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if lat, _ := updated.FloatField("latitudine"); lat != 46.8 {
		t.Fatalf("expected updated latitude, got %v", lat)
	}

	if _, err := c.UpdateOne(ctx, docstore.NewID(), docstore.Document{"latitudine": 1.0}); !errors.Is(err, docstore.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}

	n, err := c.DeleteOne(ctx, id)
	if err != nil || n != 1 {
		t.Fatalf("delete: n=%d err=%v", n, err)
	}
	n, err = c.DeleteOne(ctx, id)
	if err != nil || n != 0 {
		t.Fatalf("second delete: n=%d err=%v", n, err)
	}

	var names []string
	for doc, err := range c.Find(ctx, nil) {
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		name, _ := doc.StringField("nume_oras")
		names = append(names, name)
	}
	if len(names) != 1 || names[0] != "Iasi" {
		t.Fatalf("unexpected remaining cities %v", names)
	}
}

func TestFindEmptyInSkipsScan(t *testing.T) {
	c := New(newFakeAPI(), "").Collection("Temperaturi")
	for range c.Find(context.Background(), docstore.Filter{docstore.In[docstore.ID]("id_oras")}) {
		t.Fatalf("expected no documents")
	}
}
