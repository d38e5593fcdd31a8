package embedding

import (
	"context"
	"fmt"
	"time"

	"ai-qa-platform-be/internal/entity"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// EntryCache serves question embeddings for fixed Q&A entries. Entries carry
// a persisted vector that goes stale on edit; until the async recompute
// lands, query-time lookups compute the vector lazily. The singleflight
// group guarantees at-most-once computation per entry version: concurrent
// resolutions needing the same stale entry coalesce into a single provider
// call and all waiters receive the same value.
type EntryCache struct {
	provider EmbeddingProvider
	group    singleflight.Group
	vectors  *cache.Cache
}

func NewEntryCache(provider EmbeddingProvider) *EntryCache {
	return &EntryCache{
		provider: provider,
		vectors:  cache.New(1*time.Hour, 10*time.Minute),
	}
}

// Vector returns the embedding for the entry's question text.
func (c *EntryCache) Vector(ctx context.Context, entry *entity.FixedQA) ([]float32, error) {
	if entry.HasFreshEmbedding() {
		return entry.Embedding, nil
	}

	// Version the key by UpdatedAt so edits invalidate naturally.
	key := fmt.Sprintf("%s@%d", entry.Id, entry.UpdatedAt.UnixNano())

	if v, found := c.vectors.Get(key); found {
		return v.([]float32), nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		res, err := c.provider.Generate(ctx, entry.Question, TaskRetrievalDocument)
		if err != nil {
			return nil, err
		}
		vec := res.Embedding.Values
		c.vectors.Set(key, vec, cache.DefaultExpiration)
		return vec, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]float32), nil
}
