package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBClient defines the interface needed for scanning.
type DynamoDBClient interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBSource loads one dataset by scanning a table. Params become an equality
// filter on string attributes.
type DynamoDBSource struct {
	Client DynamoDBClient
	Table  string
	Params map[string]string
}

func NewDynamoDBSource(cfg aws.Config, table string, params map[string]string) *DynamoDBSource {
	return &DynamoDBSource{Client: dynamodb.NewFromConfig(cfg), Table: table, Params: params}
}

func (s *DynamoDBSource) scanInput() *dynamodb.ScanInput {
	input := &dynamodb.ScanInput{TableName: aws.String(s.Table)}
	if len(s.Params) == 0 {
		return input
	}

	keys := make([]string, 0, len(s.Params))
	for k := range s.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := make(map[string]string, len(keys))
	values := make(map[string]types.AttributeValue, len(keys))
	conditions := make([]string, 0, len(keys))
	for i, k := range keys {
		// placeholders avoid clashes with reserved words
		kName, vName := fmt.Sprintf("#k%d", i), fmt.Sprintf(":v%d", i)
		conditions = append(conditions, kName+" = "+vName)
		names[kName] = k
		values[vName] = &types.AttributeValueMemberS{Value: s.Params[k]}
	}
	input.FilterExpression = aws.String(strings.Join(conditions, " AND "))
	input.ExpressionAttributeNames = names
	input.ExpressionAttributeValues = values
	return input
}

func (s *DynamoDBSource) Load(ctx context.Context) ([]*Sheet, error) {
	paginator := dynamodb.NewScanPaginator(s.Client, s.scanInput())
	var items []map[string]interface{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table %s: %w", s.Table, err)
		}
		var pageItems []map[string]interface{}
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		items = append(items, pageItems...)
	}
	return []*Sheet{recordsToSheet(s.Table, nil, items)}, nil
}
