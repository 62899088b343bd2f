/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/recordstore/filter"
	"github.com/suparena/recordstore/storagemodels"
)

// Stream reads every record matching pred page by page and sends them over
// the returned channel in table order. Throttled pages are retried; a page
// that still fails ends the stream with an error result.
func (s *Store[T]) Stream(ctx context.Context, pred filter.Predicate, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	options := storagemodels.ApplyStreamOptions(opts...)

	// Create buffered result channel
	resultCh := make(chan storagemodels.StreamResult[T], options.BufferSize)

	// Start streaming in background
	go s.streamWorker(ctx, pred, options, resultCh)

	return resultCh
}

// streamWorker handles the actual streaming logic
func (s *Store[T]) streamWorker(
	ctx context.Context,
	pred filter.Predicate,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[T],
) {
	defer close(resultCh)

	send := func(r storagemodels.StreamResult[T]) bool {
		select {
		case <-ctx.Done():
			return false
		case resultCh <- r:
			return true
		}
	}

	if err := s.binding.Predicate(pred); err != nil {
		send(storagemodels.StreamResult[T]{Error: err})
		return
	}
	expr, err := buildFilter(pred)
	if err != nil {
		send(storagemodels.StreamResult[T]{Error: err})
		return
	}

	var itemIndex int64
	var pageNumber int
	var errs []error
	startTime := time.Now()

	// Progress reporting helper
	reportProgress := func() {
		if options.ProgressHandler == nil {
			return
		}
		progress := storagemodels.StreamProgress{
			ItemsProcessed: itemIndex,
			PagesProcessed: pageNumber,
			Errors:         errs,
			StartTime:      startTime,
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
		}
		options.ProgressHandler(progress)
	}

	var lastEvaluatedKey map[string]types.AttributeValue
	for {
		items, next, err := s.readPage(ctx, expr, lastEvaluatedKey, options.PageSize, options)
		if err != nil {
			errs = append(errs, err)
			send(storagemodels.StreamResult[T]{
				Error: fmt.Errorf("query failed: %w", err),
				Meta: storagemodels.StreamMeta{
					Index:      itemIndex,
					PageNumber: pageNumber + 1,
					Timestamp:  time.Now(),
				},
			})
			reportProgress()
			return
		}
		pageNumber++

		for _, item := range items {
			result := storagemodels.StreamResult[T]{
				Meta: storagemodels.StreamMeta{
					Index:      itemIndex,
					PageNumber: pageNumber,
					Timestamp:  time.Now(),
				},
			}
			row, err := s.rowOf(item)
			if err == nil && (s.binding.Deleted(row) || !pred.Match(row)) {
				continue
			}
			if err == nil {
				var entity *T
				entity, err = s.binding.Decode(row)
				if err == nil {
					result.Item = *entity
					result.Raw = row
				}
			}
			if err != nil {
				result.Error = err
				errs = append(errs, err)
			}

			if !send(result) {
				return
			}
			itemIndex++
			if result.Error != nil && options.ErrorHandler != nil && !options.ErrorHandler(result.Error) {
				return
			}
		}

		// Report progress after each page
		reportProgress()

		// Check for more pages
		if len(next) == 0 {
			return
		}
		lastEvaluatedKey = next
	}
}

// readPage fetches one page of this entity type's items, through the type
// index when one is configured and by scanning otherwise. limit <= 0 leaves
// the page size to DynamoDB.
func (s *Store[T]) readPage(
	ctx context.Context,
	expr expression,
	start map[string]types.AttributeValue,
	limit int32,
	options storagemodels.StreamOptions,
) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	var pageLimit *int32
	if limit > 0 {
		pageLimit = aws.Int32(limit)
	}

	if s.typeIndex != "" {
		keyed := withEntityType(expression{names: copyNames(expr.names), values: copyValues(expr.values)}, s.binding.Name())
		input := &sdk.QueryInput{
			TableName:                 aws.String(s.tableName),
			IndexName:                 aws.String(s.typeIndex),
			KeyConditionExpression:    aws.String("#et = :et"),
			ExpressionAttributeNames:  keyed.names,
			ExpressionAttributeValues: keyed.values,
			ExclusiveStartKey:         start,
			Limit:                     pageLimit,
		}
		if expr.text != "" {
			input.FilterExpression = aws.String(expr.text)
		}
		out, err := withRetry(ctx, s, options, func() (*sdk.QueryOutput, error) {
			return s.client.Query(ctx, input)
		})
		if err != nil {
			return nil, nil, err
		}
		return out.Items, out.LastEvaluatedKey, nil
	}

	filtered := withEntityType(expression{text: expr.text, names: copyNames(expr.names), values: copyValues(expr.values)}, s.binding.Name())
	input := &sdk.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          aws.String(filtered.text),
		ExpressionAttributeNames:  filtered.names,
		ExpressionAttributeValues: filtered.values,
		ExclusiveStartKey:         start,
		Limit:                     pageLimit,
	}
	out, err := withRetry(ctx, s, options, func() (*sdk.ScanOutput, error) {
		return s.client.Scan(ctx, input)
	})
	if err != nil {
		return nil, nil, err
	}
	return out.Items, out.LastEvaluatedKey, nil
}

// withRetry executes call with configurable retry logic for throttling and
// other retryable errors.
func withRetry[T any, O any](ctx context.Context, s *Store[T], options storagemodels.StreamOptions, call func() (O, error)) (O, error) {
	var zero O
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		// Check context before retry
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		out, err := call()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return zero, err
		}

		// Don't sleep after last attempt
		if attempt < options.MaxRetries {
			s.logger.WarnContext(ctx, "retrying read", "attempt", attempt+1, "error", err)
			backoff := time.Duration(attempt+1) * options.RetryBackoff
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return zero, fmt.Errorf("read failed after %d retries: %w", options.MaxRetries, lastErr)
}

func copyNames(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyValues(in map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
