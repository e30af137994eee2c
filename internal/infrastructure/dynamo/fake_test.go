package dynamo

import (
	"context"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeTable is a single-table, hash-key-only DynamoDB stand-in that
// understands the condition expressions used by the repos.
type fakeTable struct {
	mu    sync.Mutex
	pk    string
	items map[string]map[string]types.AttributeValue
	fail  map[string]error // operation name -> error

	// afterQuery runs between Query and the next call, to model GSI lag.
	afterQuery func()
	gets       []*dynamodb.GetItemInput
}

func newFakeTable(pk string) *fakeTable {
	return &fakeTable{pk: pk, items: map[string]map[string]types.AttributeValue{}, fail: map[string]error{}}
}

func strOf(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeTable) key(k map[string]types.AttributeValue) string { return strOf(k[f.pk]) }

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, in)
	if err := f.fail["GetItem"]; err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: f.items[f.key(in.Key)]}, nil
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["PutItem"]; err != nil {
		return nil, err
	}
	k := f.key(in.Item)
	if strings.HasPrefix(aws.ToString(in.ConditionExpression), "attribute_not_exists") {
		if _, ok := f.items[k]; ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["DeleteItem"]; err != nil {
		return nil, err
	}
	k := f.key(in.Key)
	if in.ConditionExpression != nil {
		item, ok := f.items[k]
		attr := in.ExpressionAttributeNames["#t"]
		if !ok || strOf(item[attr]) != strOf(in.ExpressionAttributeValues[":tid"]) {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("mismatch")}
		}
	}
	delete(f.items, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeTable) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["UpdateItem"]; err != nil {
		return nil, err
	}
	k := f.key(in.Key)
	item, ok := f.items[k]
	if !ok {
		if strings.HasPrefix(aws.ToString(in.ConditionExpression), "attribute_exists") {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}
		}
		item = map[string]types.AttributeValue{f.pk: in.Key[f.pk]}
		f.items[k] = item
	}
	for nameKey, attr := range in.ExpressionAttributeNames {
		item[attr] = in.ExpressionAttributeValues[":v"+strings.TrimPrefix(nameKey, "#f")]
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeTable) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	if err := f.fail["Query"]; err != nil {
		f.mu.Unlock()
		return nil, err
	}
	attr := in.ExpressionAttributeNames["#t"]
	want := strOf(in.ExpressionAttributeValues[":v"])
	var out []map[string]types.AttributeValue
	for _, item := range f.items {
		if strOf(item[attr]) == want {
			out = append(out, item)
		}
	}
	hook := f.afterQuery
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func (f *fakeTable) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["CreateTable"]; err != nil {
		return nil, err
	}
	f.items[aws.ToString(in.TableName)] = map[string]types.AttributeValue{}
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeTable) UpdateTimeToLive(_ context.Context, in *dynamodb.UpdateTimeToLiveInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["UpdateTimeToLive"]; err != nil {
		return nil, err
	}
	f.items["ttl:"+aws.ToString(in.TableName)] = map[string]types.AttributeValue{
		"attr": &types.AttributeValueMemberS{Value: aws.ToString(in.TimeToLiveSpecification.AttributeName)},
	}
	return &dynamodb.UpdateTimeToLiveOutput{}, nil
}
