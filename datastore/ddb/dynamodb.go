/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/recordstore/datastore"
	rserrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/filter"
	"github.com/suparena/recordstore/internal/codec"
	"github.com/suparena/recordstore/storagemodels"
)

const (
	condAbsent  = "attribute_not_exists(PK)"
	condPresent = "attribute_exists(PK)"
)

// errVanished marks a record deleted between read and conditional write.
var errVanished = errors.New("record vanished")

// Store implements datastore.DataStore[T] on a single DynamoDB table.
type Store[T any] struct {
	client    Client
	tableName string
	binding   *datastore.Binding[T]
	logger    *slog.Logger
	maxPage   int
	typeIndex string
}

// New constructs a Store for T on tableName.
func New[T any](client Client, tableName string, opts ...Option) (*Store[T], error) {
	if tableName == "" {
		return nil, rserrors.NewInvalidArgumentError("table", "table name is required")
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	b, err := datastore.Bind[T](o.schema)
	if err != nil {
		return nil, err
	}
	if o.clock != nil {
		b.SetClock(o.clock)
	}
	return &Store[T]{
		client:    client,
		tableName: tableName,
		binding:   b,
		logger:    o.logger.With("store", "dynamodb", "table", tableName, "entity", b.Name()),
		maxPage:   o.maxPageSize,
		typeIndex: o.typeIndex,
	}, nil
}

// writeOp is one item of a (possibly transactional) write. column names the
// unique column a guard item reserves; it is empty for the record itself.
type writeOp struct {
	item   types.TransactWriteItem
	column string
	value  any
}

// Insert stores a new record. Serial keys left at zero are drawn from the
// table's counter item; uuid and string keys are generated when unset.
func (s *Store[T]) Insert(ctx context.Context, entity T) (*T, error) {
	b := s.binding
	b.StampInsert(ctx, &entity)
	row, err := b.Encode(&entity)
	if err != nil {
		return nil, err
	}
	b.MarkLive(row)

	id := b.KeyString(row)
	switch {
	case id == "" && b.Schema.KeyKind == storagemodels.KeySerial:
		// validate before consuming a sequence number
		if err := b.Validate(&entity, row); err != nil {
			return nil, err
		}
		n, err := s.nextSerial(ctx)
		if err != nil {
			return nil, err
		}
		row[b.Schema.Key] = n
		id = strconv.FormatInt(n, 10)
	case id == "":
		id = b.NewKey()
		row[b.Schema.Key] = id
	default:
		key, err := b.ParseKey(id)
		if err != nil {
			return nil, err
		}
		row[b.Schema.Key] = key
		id = fmt.Sprint(key)
	}

	saved, row, err := s.normalize(row)
	if err != nil {
		return nil, err
	}
	item, err := marshalRow(b.Schema.Table, b.Name(), id, row)
	if err != nil {
		return nil, err
	}

	ops := []writeOp{{item: types.TransactWriteItem{Put: &types.Put{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String(condAbsent),
	}}}}
	ops = append(ops, s.guardChanges(id, nil, row)...)

	err = s.write(ctx, ops, func(op writeOp) error {
		if op.column == "" {
			return rserrors.NewConflictError(b.Name(), "", id)
		}
		return rserrors.NewConflictError(b.Name(), op.column, fmt.Sprint(op.value))
	})
	if err != nil {
		return nil, wrapIfUnmapped(err, "insert", b.Name(), id)
	}
	s.logger.DebugContext(ctx, "inserted record", "key", id)
	return saved, nil
}

// FindByID returns the record with key id, or nil when there is none.
func (s *Store[T]) FindByID(ctx context.Context, id string) (*T, error) {
	key, err := s.binding.ParseKey(id)
	if err != nil {
		return nil, err
	}
	row, err := s.liveRow(ctx, fmt.Sprint(key))
	if err != nil || row == nil {
		return nil, err
	}
	return s.binding.Decode(row)
}

// Update replaces an existing record.
func (s *Store[T]) Update(ctx context.Context, entity T) (*T, error) {
	b := s.binding
	b.StampUpdate(ctx, &entity)
	row, err := b.Encode(&entity)
	if err != nil {
		return nil, err
	}
	key, id, err := b.EntityKey(row)
	if err != nil {
		return nil, err
	}
	row[b.Schema.Key] = key
	b.MarkLive(row)

	current, err := s.liveRow(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, rserrors.NewNotFoundError(b.Name(), id)
	}

	saved, row, err := s.normalize(row)
	if err != nil {
		return nil, err
	}
	item, err := marshalRow(b.Schema.Table, b.Name(), id, row)
	if err != nil {
		return nil, err
	}

	ops := []writeOp{{item: types.TransactWriteItem{Put: &types.Put{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String(condPresent),
	}}}}
	ops = append(ops, s.guardChanges(id, current, row)...)

	if err := s.write(ctx, ops, s.updateFailure(id)); err != nil {
		return nil, wrapIfUnmapped(err, "update", b.Name(), id)
	}
	s.logger.DebugContext(ctx, "updated record", "key", id)
	return saved, nil
}

// UpdateFields changes the named columns of an existing record with a
// conditional UpdateItem carrying only the changed attributes.
func (s *Store[T]) UpdateFields(ctx context.Context, id string, fields map[string]any) (*T, error) {
	b := s.binding
	key, err := b.ParseKey(id)
	if err != nil {
		return nil, err
	}
	if err := b.CheckFields(fields); err != nil {
		return nil, err
	}
	id = fmt.Sprint(key)

	current, err := s.liveRow(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, rserrors.NewNotFoundError(b.Name(), id)
	}

	merged := codec.Clone(current)
	for col, v := range fields {
		merged[col] = codec.Indirect(v)
	}
	entity, err := b.Decode(merged)
	if err != nil {
		return nil, rserrors.NewInvalidArgumentError("fields", err.Error())
	}
	b.StampUpdate(ctx, entity)
	row, err := b.Encode(entity)
	if err != nil {
		return nil, err
	}
	saved, row, err := s.normalize(row)
	if err != nil {
		return nil, err
	}

	changed := make(map[string]any, len(fields)+1)
	for _, col := range b.Schema.DataColumns() {
		if _, named := fields[col]; named || !reflect.DeepEqual(current[col], row[col]) {
			changed[col] = row[col]
		}
	}
	update, err := buildUpdateExpression(changed)
	if err != nil {
		return nil, err
	}
	ops := []writeOp{{item: types.TransactWriteItem{Update: &types.Update{
		TableName:                 aws.String(s.tableName),
		Key:                       keyOf(recordKey(s.binding.Schema.Table, id)),
		UpdateExpression:          aws.String(update.text),
		ConditionExpression:       aws.String(condPresent),
		ExpressionAttributeNames:  update.names,
		ExpressionAttributeValues: update.values,
	}}}}
	ops = append(ops, s.guardChanges(id, current, row)...)

	if err := s.write(ctx, ops, s.updateFailure(id)); err != nil {
		return nil, wrapIfUnmapped(err, "update", b.Name(), id)
	}
	s.logger.DebugContext(ctx, "updated record fields", "key", id, "fields", len(changed))
	return saved, nil
}

// DeleteByID removes the record with key id and its unique guards. With a
// soft delete column the record is marked instead and its guards are kept.
func (s *Store[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	b := s.binding
	key, err := b.ParseKey(id)
	if err != nil {
		return false, err
	}
	id = fmt.Sprint(key)

	current, err := s.liveRow(ctx, id)
	if err != nil {
		return false, err
	}
	if current == nil {
		return false, nil
	}

	var ops []writeOp
	if b.SoftDeletes() {
		mark, err := buildUpdateExpression(map[string]any{b.Schema.SoftDelete: b.DeletedValue()})
		if err != nil {
			return false, err
		}
		ops = []writeOp{{item: types.TransactWriteItem{Update: &types.Update{
			TableName:                 aws.String(s.tableName),
			Key:                       keyOf(recordKey(b.Schema.Table, id)),
			UpdateExpression:          aws.String(mark.text),
			ConditionExpression:       aws.String(condPresent),
			ExpressionAttributeNames:  mark.names,
			ExpressionAttributeValues: mark.values,
		}}}}
	} else {
		ops = []writeOp{{item: types.TransactWriteItem{Delete: &types.Delete{
			TableName:           aws.String(s.tableName),
			Key:                 keyOf(recordKey(b.Schema.Table, id)),
			ConditionExpression: aws.String(condPresent),
		}}}}
		ops = append(ops, s.guardChanges(id, current, nil)...)
	}

	err = s.write(ctx, ops, func(writeOp) error { return errVanished })
	if errors.Is(err, errVanished) {
		return false, nil
	}
	if err != nil {
		return false, wrapIfUnmapped(err, "delete", b.Name(), id)
	}
	s.logger.DebugContext(ctx, "deleted record", "key", id)
	return true, nil
}

// List reads every record of the entity type, filters and orders them in
// process and returns the requested page.
func (s *Store[T]) List(ctx context.Context, pred filter.Predicate, page storagemodels.PageSpec) (*storagemodels.Page[T], error) {
	b := s.binding
	if err := b.Predicate(pred); err != nil {
		return nil, err
	}
	spec, err := b.Page(page, s.maxPage)
	if err != nil {
		return nil, err
	}
	expr, err := buildFilter(pred)
	if err != nil {
		return nil, err
	}

	readOpts := storagemodels.DefaultStreamOptions()
	var (
		matches []map[string]any
		start   map[string]types.AttributeValue
	)
	for {
		items, next, err := s.readPage(ctx, expr, start, 0, readOpts)
		if err != nil {
			return nil, wrapIfUnmapped(err, "list", b.Name(), "")
		}
		for _, item := range items {
			row, err := s.rowOf(item)
			if err != nil {
				return nil, err
			}
			if !b.Deleted(row) && pred.Match(row) {
				matches = append(matches, row)
			}
		}
		if len(next) == 0 {
			break
		}
		start = next
	}

	b.SortRows(matches, spec)
	window := datastore.Slice(matches, spec)
	items := make([]T, 0, len(window))
	for _, row := range window {
		item, err := b.Decode(row)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	s.logger.DebugContext(ctx, "listed records", "predicate", pred.String(), "total", len(matches))
	return storagemodels.NewPage(items, int64(len(matches)), spec), nil
}

// getRow reads the canonical column map of record id, nil when absent.
func (s *Store[T]) getRow(ctx context.Context, id string) (map[string]any, error) {
	out, err := s.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            keyOf(recordKey(s.binding.Schema.Table, id)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, wrapError(err, "get", s.binding.Name(), id)
	}
	if len(out.Item) == 0 || entityTypeOf(out.Item) != s.binding.Name() {
		return nil, nil
	}
	return s.rowOf(out.Item)
}

// liveRow is getRow without soft deleted records.
func (s *Store[T]) liveRow(ctx context.Context, id string) (map[string]any, error) {
	row, err := s.getRow(ctx, id)
	if err != nil || row == nil || s.binding.Deleted(row) {
		return nil, err
	}
	return row, nil
}

// rowOf decodes an item into T and back so column values carry the entity's
// field types.
func (s *Store[T]) rowOf(item map[string]types.AttributeValue) (map[string]any, error) {
	raw, err := unmarshalRow(item, s.binding.Schema.Columns)
	if err != nil {
		return nil, err
	}
	entity, err := s.binding.Decode(raw)
	if err != nil {
		return nil, err
	}
	return s.binding.Encode(entity)
}

// normalize decodes row into T, validates it and re-encodes it.
func (s *Store[T]) normalize(row map[string]any) (*T, map[string]any, error) {
	b := s.binding
	entity, err := b.Decode(row)
	if err != nil {
		return nil, nil, rserrors.NewInvalidArgumentError(b.Name(), err.Error())
	}
	canonical, err := b.Encode(entity)
	if err != nil {
		return nil, nil, err
	}
	if err := b.Validate(entity, canonical); err != nil {
		return nil, nil, err
	}
	return entity, canonical, nil
}

// nextSerial atomically increments the table's counter item for this entity.
func (s *Store[T]) nextSerial(ctx context.Context) (int64, error) {
	out, err := s.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       keyOf(counterKey(s.binding.Schema.Table)),
		UpdateExpression:          aws.String("ADD #seq :one"),
		ExpressionAttributeNames:  map[string]string{"#seq": attrSeq},
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": &types.AttributeValueMemberN{Value: "1"}},
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, wrapError(err, "sequence", s.binding.Name(), "")
	}
	var n int64
	if err := attributevalue.Unmarshal(out.Attributes[attrSeq], &n); err != nil {
		return 0, fmt.Errorf("failed to read sequence value: %w", err)
	}
	return n, nil
}

// guardChanges returns the writes keeping unique guard items in step with a
// record moving from before to after. Either may be nil.
func (s *Store[T]) guardChanges(id string, before, after map[string]any) []writeOp {
	var ops []writeOp
	table := s.binding.Schema.Table
	for _, col := range s.binding.Schema.Unique {
		var old, cur any
		if before != nil {
			old = codec.Indirect(before[col])
		}
		if after != nil {
			cur = codec.Indirect(after[col])
		}
		if reflect.DeepEqual(old, cur) {
			continue
		}
		if old != nil {
			ops = append(ops, writeOp{item: types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(s.tableName),
				Key:       keyOf(guardKey(table, col, old)),
			}}, column: col, value: old})
		}
		if cur != nil {
			guard := keyOf(guardKey(table, col, cur))
			guard[attrEntityType] = &types.AttributeValueMemberS{Value: s.binding.Name() + "#unique"}
			guard["owner"] = &types.AttributeValueMemberS{Value: id}
			ops = append(ops, writeOp{item: types.TransactWriteItem{Put: &types.Put{
				TableName:           aws.String(s.tableName),
				Item:                guard,
				ConditionExpression: aws.String(condAbsent),
			}}, column: col, value: cur})
		}
	}
	return ops
}

// updateFailure maps a failed condition of an update: the record condition
// means it is gone, a guard condition means the new value is taken.
func (s *Store[T]) updateFailure(id string) func(writeOp) error {
	return func(op writeOp) error {
		if op.column == "" {
			return rserrors.NewNotFoundError(s.binding.Name(), id)
		}
		return rserrors.NewConflictError(s.binding.Name(), op.column, fmt.Sprint(op.value))
	}
}

// write executes ops, as a single request when there is one and as a
// transaction otherwise. A failed condition is mapped by onFail.
func (s *Store[T]) write(ctx context.Context, ops []writeOp, onFail func(writeOp) error) error {
	var err error
	if len(ops) == 1 {
		err = s.writeOne(ctx, ops[0].item)
	} else {
		items := make([]types.TransactWriteItem, len(ops))
		for i, op := range ops {
			items[i] = op.item
		}
		_, err = s.client.TransactWriteItems(ctx, &sdk.TransactWriteItemsInput{TransactItems: items})
	}
	if err == nil {
		return nil
	}
	if i, ok := conditionFailed(err); ok && i < len(ops) {
		return onFail(ops[i])
	}
	return err
}

func (s *Store[T]) writeOne(ctx context.Context, item types.TransactWriteItem) error {
	var err error
	switch {
	case item.Put != nil:
		_, err = s.client.PutItem(ctx, &sdk.PutItemInput{
			TableName:                 item.Put.TableName,
			Item:                      item.Put.Item,
			ConditionExpression:       item.Put.ConditionExpression,
			ExpressionAttributeNames:  item.Put.ExpressionAttributeNames,
			ExpressionAttributeValues: item.Put.ExpressionAttributeValues,
		})
	case item.Update != nil:
		_, err = s.client.UpdateItem(ctx, &sdk.UpdateItemInput{
			TableName:                 item.Update.TableName,
			Key:                       item.Update.Key,
			UpdateExpression:          item.Update.UpdateExpression,
			ConditionExpression:       item.Update.ConditionExpression,
			ExpressionAttributeNames:  item.Update.ExpressionAttributeNames,
			ExpressionAttributeValues: item.Update.ExpressionAttributeValues,
		})
	case item.Delete != nil:
		_, err = s.client.DeleteItem(ctx, &sdk.DeleteItemInput{
			TableName:           item.Delete.TableName,
			Key:                 item.Delete.Key,
			ConditionExpression: item.Delete.ConditionExpression,
		})
	default:
		err = fmt.Errorf("ddb: empty write")
	}
	return err
}

// wrapIfUnmapped leaves recordstore errors untouched and wraps SDK errors.
func wrapIfUnmapped(err error, op, entity, id string) error {
	if rserrors.IsConflict(err) || rserrors.IsNotFound(err) || rserrors.IsValidation(err) ||
		rserrors.IsInvalidArgument(err) || errors.Is(err, errVanished) {
		return err
	}
	return wrapError(err, op, entity, id)
}
