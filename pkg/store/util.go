package store

import (
	"context"
	"fmt"

	"github.com/vantagecomms/vantage/backend/pkg/ai"
	"golang.org/x/sync/errgroup"
)

// ChunkRange calls fn over [start, end) windows of chunkSize until total is
// covered. Bulk writes go through this to keep statement sizes bounded.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// DedupeStrings drops empty strings and duplicates, preserving first-seen
// order.
func DedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// nodeGroupColumns whitelists the fields a filter query may aggregate on,
// mapping the API field name to its column expression. cluster_id is
// nullable; unclustered nodes group under the empty key.
var nodeGroupColumns = map[string]string{
	"type":          "type",
	"source_system": "source_system",
	"cluster_id":    "COALESCE(cluster_id, '')",
}

// NodeGroupColumn resolves a group-by field name to a safe column
// expression. Unknown fields report false.
func NodeGroupColumn(field string) (string, bool) {
	col, ok := nodeGroupColumns[field]
	return col, ok
}

type embeddingBatcher interface {
	GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error)
}

// GenerateEmbeddings embeds a batch of inputs, using the client's native
// batch endpoint when it has one and falling back to parallel single calls
// otherwise.
func GenerateEmbeddings(
	ctx context.Context,
	client ai.GraphAIClient,
	inputs [][]byte,
) ([][]float32, error) {
	if client == nil {
		return nil, fmt.Errorf("ai client is nil")
	}
	if len(inputs) == 0 {
		return nil, nil
	}
	if b, ok := client.(embeddingBatcher); ok {
		return b.GenerateEmbeddings(ctx, inputs)
	}

	out := make([][]float32, len(inputs))

	eg, ectx := errgroup.WithContext(ctx)
	for i := range inputs {
		idx := i
		in := inputs[i]
		eg.Go(func() error {
			emb, err := client.GenerateEmbedding(ectx, in)
			if err != nil {
				return err
			}
			out[idx] = emb
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
