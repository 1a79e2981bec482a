package dynamo

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/i474232898/weather-telemetry/internal/docstore"
)

// maxInValues is DynamoDB's limit on IN operands.
const maxInValues = 100

// scanInput builds a Scan request pushing down every predicate DynamoDB can
// evaluate. It returns nil when the filter cannot match anything.
func scanInput(table string, f docstore.Filter) (*dynamodb.ScanInput, error) {
	var clauses []string
	names := make(map[string]string)
	values := make(map[string]types.AttributeValue)

	for i, p := range f {
		name := fmt.Sprintf("#f%d", i)
		switch p.Op {
		case docstore.OpEq, docstore.OpGte, docstore.OpLte:
			av, err := encodeValue(p.Value)
			if err != nil {
				return nil, err
			}
			ph := fmt.Sprintf(":v%d", i)
			names[name] = p.Field
			values[ph] = av
			clauses = append(clauses, fmt.Sprintf("%s %s %s", name, comparator(p.Op), ph))
		case docstore.OpIn:
			if len(p.Values) == 0 {
				return nil, nil
			}
			if len(p.Values) > maxInValues {
				continue
			}
			phs := make([]string, len(p.Values))
			for j, v := range p.Values {
				av, err := encodeValue(v)
				if err != nil {
					return nil, err
				}
				phs[j] = fmt.Sprintf(":v%d_%d", i, j)
				values[phs[j]] = av
			}
			names[name] = p.Field
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", name, strings.Join(phs, ", ")))
		case docstore.OpEqFold:
			// No case-insensitive comparison in DynamoDB expressions.
			continue
		}
	}

	input := &dynamodb.ScanInput{TableName: aws.String(table)}
	if len(clauses) > 0 {
		input.FilterExpression = aws.String(strings.Join(clauses, " AND "))
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}
	return input, nil
}

func comparator(op docstore.Op) string {
	switch op {
	case docstore.OpGte:
		return ">="
	case docstore.OpLte:
		return "<="
	}
	return "="
}

// setExpression builds "SET #a0 = :a0, ..." in stable field order.
func setExpression(fields docstore.Document) (string, map[string]string, map[string]types.AttributeValue, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := make(map[string]string, len(keys))
	values := make(map[string]types.AttributeValue, len(keys))
	clauses := make([]string, 0, len(keys))
	for i, k := range keys {
		av, err := encodeValue(fields[k])
		if err != nil {
			return "", nil, nil, err
		}
		name, ph := fmt.Sprintf("#a%d", i), fmt.Sprintf(":a%d", i)
		names[name] = k
		values[ph] = av
		clauses = append(clauses, name+" = "+ph)
	}
	return "SET " + strings.Join(clauses, ", "), names, values, nil
}

func encodeValue(v any) (types.AttributeValue, error) {
	switch x := v.(type) {
	case docstore.ID:
		return &types.AttributeValueMemberS{Value: x.Hex()}, nil
	case time.Time:
		return &types.AttributeValueMemberS{Value: x.UTC().Format(docstore.TimeLayout)}, nil
	}
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	return av, nil
}

func encodeDocument(doc docstore.Document) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, len(doc))
	for k, v := range doc {
		av, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		item[k] = av
	}
	return item, nil
}

func decodeItem(item map[string]types.AttributeValue) (docstore.Document, error) {
	var m map[string]any
	if err := attributevalue.UnmarshalMap(item, &m); err != nil {
		return nil, fmt.Errorf("decoding item: %w", err)
	}
	return docstore.Document(m), nil
}
