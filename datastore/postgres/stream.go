/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/suparena/recordstore/filter"
	"github.com/suparena/recordstore/internal/codec"
	"github.com/suparena/recordstore/storagemodels"
)

// Stream reads every row matching pred in key order, one LIMIT/OFFSET page
// at a time, and sends the rows over the returned channel.
func (s *Store[T]) Stream(ctx context.Context, pred filter.Predicate, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	options := storagemodels.ApplyStreamOptions(opts...)
	resultChan := make(chan storagemodels.StreamResult[T], options.BufferSize)

	go func() {
		defer close(resultChan)

		send := func(r storagemodels.StreamResult[T]) bool {
			select {
			case <-ctx.Done():
				return false
			case resultChan <- r:
				return true
			}
		}

		b := s.binding
		if err := b.Predicate(pred); err != nil {
			send(storagemodels.StreamResult[T]{Error: err})
			return
		}
		where, hasWhere, err := compile(b.Scope(pred))
		if err != nil {
			send(storagemodels.StreamResult[T]{Error: err})
			return
		}

		pageSize := int(options.PageSize)
		if pageSize <= 0 {
			pageSize = 100
		}
		progress := storagemodels.StreamProgress{StartTime: time.Now()}
		var index int64

		for offset := 0; ; offset += pageSize {
			sel := psql.Select(b.Schema.Columns...).
				From(b.Schema.Table).
				OrderBy(b.Schema.Key + " ASC").
				Limit(uint64(pageSize)).
				Offset(uint64(offset))
			if hasWhere {
				sel = sel.Where(where)
			}

			items, err := s.fetchPage(ctx, sel, options)
			if err != nil {
				progress.Errors = append(progress.Errors, err)
				send(storagemodels.StreamResult[T]{Error: err, Meta: storagemodels.StreamMeta{Index: index, PageNumber: progress.PagesProcessed + 1, Timestamp: time.Now()}})
				if options.ErrorHandler == nil || !options.ErrorHandler(err) {
					return
				}
				continue
			}
			progress.PagesProcessed++

			for _, item := range items {
				raw, _ := codec.ToMap(&item)
				ok := send(storagemodels.StreamResult[T]{
					Item: item,
					Raw:  raw,
					Meta: storagemodels.StreamMeta{
						Index:      index,
						PageNumber: progress.PagesProcessed,
						Timestamp:  time.Now(),
					},
				})
				if !ok {
					return
				}
				index++
				progress.ItemsProcessed++
			}

			if options.ProgressHandler != nil {
				if elapsed := time.Since(progress.StartTime).Seconds(); elapsed > 0 {
					progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
				}
				options.ProgressHandler(progress)
			}
			if len(items) < pageSize {
				return
			}
		}
	}()

	return resultChan
}

// fetchPage runs one page query, retrying failures other than cancellation.
func (s *Store[T]) fetchPage(ctx context.Context, sel sq.SelectBuilder, options storagemodels.StreamOptions) ([]T, error) {
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stream page: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.WarnContext(ctx, "retrying stream page", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(options.RetryBackoff * time.Duration(attempt)):
			}
		}

		var items []T
		err := pgxscan.Select(ctx, s.querier(ctx), &items, query, args...)
		if err == nil {
			return items, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = mapError(err, s.binding.Name(), "stream")
	}
	return nil, fmt.Errorf("stream page failed after %d retries: %w", options.MaxRetries, lastErr)
}
