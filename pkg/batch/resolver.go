// Package batch resolves large identifier sets against upstream batch
// endpoints by partitioning them into size-bounded chunks, issuing the
// chunks concurrently, and merging partial results into one mapping.
//
// Concurrency is bounded only by chunk count; the pacing gate inside the
// fetcher bounds the actual upstream dispatch rate. A failed or empty chunk
// contributes no entries for its identifiers, so a missing key signals
// "unresolved", not an error.
package batch

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultChunkSize matches the upstream batch endpoint cap of 100 ids.
const DefaultChunkSize = 100

// ChunkFunc resolves one chunk of identifiers to values. It returns
// whatever it could resolve; identifiers it omits stay unresolved.
type ChunkFunc func(ctx context.Context, ids []int64) (map[int64]string, error)

// Chunk partitions ids into ordered slices of at most size elements.
func Chunk(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks [][]int64
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[i:end])
	}
	return chunks
}

// Resolve partitions ids into chunks of at most size, issues one fn call per
// chunk concurrently, and merges the results. Chunk failures are tolerated:
// their identifiers are simply absent from the returned mapping.
func Resolve(ctx context.Context, ids []int64, size int, fn ChunkFunc) map[int64]string {
	merged := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return merged
	}

	chunks := Chunk(ids, size)

	var mu sync.Mutex
	var wg sync.WaitGroup
	failed := 0

	for _, chunk := range chunks {
		wg.Add(1)
		go func(chunk []int64) {
			defer wg.Done()

			resolved, err := fn(ctx, chunk)
			if err != nil {
				log.Warn().
					Err(err).
					Int("chunk_size", len(chunk)).
					Msg("Batch chunk failed - ids left unresolved")
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			mu.Lock()
			for id, value := range resolved {
				merged[id] = value
			}
			mu.Unlock()
		}(chunk)
	}

	wg.Wait()

	log.Debug().
		Int("ids", len(ids)).
		Int("chunks", len(chunks)).
		Int("failed_chunks", failed).
		Int("resolved", len(merged)).
		Msg("Batch resolution complete")

	return merged
}
