package services

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultBulkConcurrency bounds how many single-book deletes run at once
// during a bulk operation. Three keeps throughput reasonable without
// tripping object-store rate limits; it is a tunable, not a law.
const DefaultBulkConcurrency = 3

// BulkFailure records one item that could not be processed.
type BulkFailure struct {
	ID     uint   `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult reports per-item outcomes of a bulk operation. Items run
// concurrently, so neither slice preserves input order.
type BulkResult struct {
	Succeeded []uint
	Failed    []BulkFailure
}

// BulkDeleteBooks deletes the given books with bounded parallelism. One
// item's failure (missing book, foreign owner) is recorded and never
// aborts its siblings or the remaining batch.
func (s *LibraryService) BulkDeleteBooks(ctx context.Context, ids []uint, ownerID uint, limit int) *BulkResult {
	opID := uuid.NewString()
	log.Printf("Bulk delete %s: %d book(s), concurrency %d", opID, len(ids), clampLimit(limit, len(ids)))

	result := runChunked(ctx, ids, limit, func(ctx context.Context, id uint) error {
		return s.DeleteBook(ctx, id, ownerID)
	})

	log.Printf("Bulk delete %s: %d succeeded, %d failed", opID, len(result.Succeeded), len(result.Failed))
	return result
}

// runChunked applies op to ids in consecutive chunks of size limit. Items
// within a chunk run concurrently; the next chunk starts only after every
// item of the previous one has settled, so at most limit calls are in
// flight at any instant.
func runChunked(ctx context.Context, ids []uint, limit int, op func(context.Context, uint) error) *BulkResult {
	result := &BulkResult{}
	if len(ids) == 0 {
		return result
	}
	limit = clampLimit(limit, len(ids))

	var mu sync.Mutex
	for start := 0; start < len(ids); start += limit {
		chunk := ids[start:min(start+limit, len(ids))]

		var g errgroup.Group
		for _, id := range chunk {
			g.Go(func() error {
				if err := op(ctx, id); err != nil {
					mu.Lock()
					result.Failed = append(result.Failed, BulkFailure{ID: id, Reason: err.Error()})
					mu.Unlock()
					return nil
				}
				mu.Lock()
				result.Succeeded = append(result.Succeeded, id)
				mu.Unlock()
				return nil
			})
		}
		// Outcomes are collected above; the group never reports an error
		// because a failed item must not cancel its chunk.
		_ = g.Wait()
	}

	return result
}

func clampLimit(limit, n int) int {
	if limit < 1 {
		limit = 1
	}
	if n > 0 && limit > n {
		limit = n
	}
	return limit
}
