/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeClient is an in-memory table understanding the expressions the store
// emits. Filter expressions other than the EntityType term are ignored.
type fakeClient struct {
	mu        sync.Mutex
	items     map[string]map[string]types.AttributeValue
	failReads int
	calls     map[string]int
	lastScan  *sdk.ScanInput
	lastQuery *sdk.QueryInput
}

var _ Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{
		items: make(map[string]map[string]types.AttributeValue),
		calls: make(map[string]int),
	}
}

func pkOf(key map[string]types.AttributeValue) string {
	if s, ok := key[attrPK].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func copyItem(in map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// check evaluates the two condition forms the store uses.
func (f *fakeClient) check(pk string, cond *string) bool {
	_, exists := f.items[pk]
	switch aws.ToString(cond) {
	case "":
		return true
	case condAbsent:
		return !exists
	case condPresent:
		return exists
	default:
		panic("fake: unsupported condition " + aws.ToString(cond))
	}
}

func (f *fakeClient) applyUpdate(pk string, key map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) map[string]types.AttributeValue {
	item, ok := f.items[pk]
	if !ok {
		item = copyItem(key)
		f.items[pk] = item
	}
	updated := make(map[string]types.AttributeValue)

	switch {
	case strings.HasPrefix(expr, "ADD "):
		parts := strings.Fields(strings.TrimPrefix(expr, "ADD "))
		name, value := names[parts[0]], values[parts[1]].(*types.AttributeValueMemberN)
		var current int64
		if n, ok := item[name].(*types.AttributeValueMemberN); ok {
			current, _ = strconv.ParseInt(n.Value, 10, 64)
		}
		delta, _ := strconv.ParseInt(value.Value, 10, 64)
		item[name] = &types.AttributeValueMemberN{Value: strconv.FormatInt(current+delta, 10)}
		updated[name] = item[name]
	case strings.HasPrefix(expr, "SET "):
		for _, clause := range strings.Split(strings.TrimPrefix(expr, "SET "), ", ") {
			lhs, rhs, _ := strings.Cut(clause, " = ")
			item[names[lhs]] = values[rhs]
			updated[names[lhs]] = values[rhs]
		}
	default:
		panic("fake: unsupported update " + expr)
	}
	return updated
}

func (f *fakeClient) GetItem(_ context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetItem"]++
	item, ok := f.items[pkOf(in.Key)]
	if !ok {
		return &sdk.GetItemOutput{}, nil
	}
	return &sdk.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *fakeClient) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["PutItem"]++
	pk := pkOf(in.Item)
	if !f.check(pk, in.ConditionExpression) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	f.items[pk] = copyItem(in.Item)
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeClient) UpdateItem(_ context.Context, in *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["UpdateItem"]++
	pk := pkOf(in.Key)
	if !f.check(pk, in.ConditionExpression) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	updated := f.applyUpdate(pk, in.Key, aws.ToString(in.UpdateExpression), in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	return &sdk.UpdateItemOutput{Attributes: updated}, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteItem"]++
	pk := pkOf(in.Key)
	if !f.check(pk, in.ConditionExpression) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	delete(f.items, pk)
	return &sdk.DeleteItemOutput{}, nil
}

func (f *fakeClient) TransactWriteItems(_ context.Context, in *sdk.TransactWriteItemsInput, _ ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["TransactWriteItems"]++

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, ti := range in.TransactItems {
		var pk string
		var cond *string
		switch {
		case ti.Put != nil:
			pk, cond = pkOf(ti.Put.Item), ti.Put.ConditionExpression
		case ti.Update != nil:
			pk, cond = pkOf(ti.Update.Key), ti.Update.ConditionExpression
		case ti.Delete != nil:
			pk, cond = pkOf(ti.Delete.Key), ti.Delete.ConditionExpression
		}
		reasons[i].Code = aws.String("None")
		if !f.check(pk, cond) {
			reasons[i].Code = aws.String("ConditionalCheckFailed")
			failed = true
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, ti := range in.TransactItems {
		switch {
		case ti.Put != nil:
			f.items[pkOf(ti.Put.Item)] = copyItem(ti.Put.Item)
		case ti.Update != nil:
			f.applyUpdate(pkOf(ti.Update.Key), ti.Update.Key, aws.ToString(ti.Update.UpdateExpression),
				ti.Update.ExpressionAttributeNames, ti.Update.ExpressionAttributeValues)
		case ti.Delete != nil:
			delete(f.items, pkOf(ti.Delete.Key))
		}
	}
	return &sdk.TransactWriteItemsOutput{}, nil
}

func (f *fakeClient) Scan(_ context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Scan"]++
	f.lastScan = in
	if f.failReads > 0 {
		f.failReads--
		return nil, &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}
	}
	items, last := f.page(in.ExpressionAttributeValues, in.ExclusiveStartKey, in.Limit)
	return &sdk.ScanOutput{Items: items, LastEvaluatedKey: last, Count: int32(len(items))}, nil
}

func (f *fakeClient) Query(_ context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Query"]++
	f.lastQuery = in
	if in.IndexName == nil {
		return nil, fmt.Errorf("fake: query without index")
	}
	items, last := f.page(in.ExpressionAttributeValues, in.ExclusiveStartKey, in.Limit)
	return &sdk.QueryOutput{Items: items, LastEvaluatedKey: last, Count: int32(len(items))}, nil
}

// page returns items of the :et entity type in PK order, after start.
func (f *fakeClient) page(values map[string]types.AttributeValue, start map[string]types.AttributeValue, limit *int32) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	et := values[":et"].(*types.AttributeValueMemberS).Value
	after := pkOf(start)

	var keys []string
	for pk, item := range f.items {
		if entityTypeOf(item) == et && pk > after {
			keys = append(keys, pk)
		}
	}
	sort.Strings(keys)

	var last map[string]types.AttributeValue
	if limit != nil && int(*limit) < len(keys) {
		keys = keys[:*limit]
		last = keyOf(keys[len(keys)-1])
	}
	items := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, pk := range keys {
		items = append(items, copyItem(f.items[pk]))
	}
	return items, last
}

func (f *fakeClient) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeClient) has(pk string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[pk]
	return ok
}
