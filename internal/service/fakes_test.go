package service

import (
	"context"
	"sync"

	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/repository/specification"
	"ai-qa-platform-be/pkg/embedding"
	"ai-qa-platform-be/pkg/resolve/retrieval"

	"github.com/google/uuid"
)

type fakeApplicationRepo struct {
	mu           sync.Mutex
	app          *entity.Application
	findOneCalls int
}

func (f *fakeApplicationRepo) Create(ctx context.Context, app *entity.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.app = app
	return nil
}

func (f *fakeApplicationRepo) Update(ctx context.Context, app *entity.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.app = app
	return nil
}

func (f *fakeApplicationRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeApplicationRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findOneCalls++
	return f.app, nil
}

func (f *fakeApplicationRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Application, error) {
	return nil, nil
}

type fakeFixedQARepo struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]*entity.FixedQA
	embedded    map[uuid.UUID][]float32
	embeddedSig chan uuid.UUID
}

func newFakeFixedQARepo() *fakeFixedQARepo {
	return &fakeFixedQARepo{
		entries:     map[uuid.UUID]*entity.FixedQA{},
		embedded:    map[uuid.UUID][]float32{},
		embeddedSig: make(chan uuid.UUID, 16),
	}
}

func (f *fakeFixedQARepo) Create(ctx context.Context, entry *entity.FixedQA) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *entry
	f.entries[entry.Id] = &cp
	return nil
}

func (f *fakeFixedQARepo) Update(ctx context.Context, entry *entity.FixedQA) error {
	return f.Create(ctx, entry)
}

func (f *fakeFixedQARepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	return nil
}

func (f *fakeFixedQARepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FixedQA, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			if e, found := f.entries[byId.ID]; found {
				cp := *e
				return &cp, nil
			}
			return nil, nil
		}
	}
	return nil, nil
}

func (f *fakeFixedQARepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FixedQA, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.FixedQA
	for _, e := range f.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeFixedQARepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.entries)), nil
}

func (f *fakeFixedQARepo) FindActiveByApplication(ctx context.Context, applicationId uuid.UUID) ([]*entity.FixedQA, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.FixedQA
	for _, e := range f.entries {
		if e.ApplicationId == applicationId && e.IsActive {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeFixedQARepo) SetEmbedding(ctx context.Context, id uuid.UUID, vec []float32) error {
	f.mu.Lock()
	f.embedded[id] = vec
	if e, ok := f.entries[id]; ok {
		e.Embedding = vec
		e.EmbeddingStale = false
	}
	f.mu.Unlock()
	f.embeddedSig <- id
	return nil
}

type fakeKnowledgeBaseRepo struct {
	ids []uuid.UUID
	kb  *entity.KnowledgeBase
}

func (f *fakeKnowledgeBaseRepo) Create(ctx context.Context, kb *entity.KnowledgeBase) error { return nil }
func (f *fakeKnowledgeBaseRepo) Update(ctx context.Context, kb *entity.KnowledgeBase) error { return nil }
func (f *fakeKnowledgeBaseRepo) Delete(ctx context.Context, id uuid.UUID) error             { return nil }

func (f *fakeKnowledgeBaseRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeBase, error) {
	return f.kb, nil
}

func (f *fakeKnowledgeBaseRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeBase, error) {
	return nil, nil
}

func (f *fakeKnowledgeBaseRepo) FindActiveIdsByApplication(ctx context.Context, applicationId uuid.UUID) ([]uuid.UUID, error) {
	return f.ids, nil
}

type fakeKnowledgeChunkRepo struct {
	mu      sync.Mutex
	chunks  []*entity.KnowledgeChunk
	deleted []string
}

func (f *fakeKnowledgeChunkRepo) Create(ctx context.Context, chunk *entity.KnowledgeChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, chunk)
	return nil
}

func (f *fakeKnowledgeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.KnowledgeChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeKnowledgeChunkRepo) DeleteByDocumentRef(ctx context.Context, knowledgeBaseId uuid.UUID, documentRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, documentRef)
	kept := f.chunks[:0]
	for _, c := range f.chunks {
		if !(c.KnowledgeBaseId == knowledgeBaseId && c.DocumentRef == documentRef) {
			kept = append(kept, c)
		}
	}
	f.chunks = kept
	return nil
}

func (f *fakeKnowledgeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entity.KnowledgeChunk(nil), f.chunks...), nil
}

func (f *fakeKnowledgeChunkRepo) SearchSimilarWithScore(ctx context.Context, queryVec []float32, kbIds []uuid.UUID, k int) ([]retrieval.ScoredChunk, error) {
	return nil, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (f *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type fixedVecEmbedder struct {
	vec []float32
}

func (e *fixedVecEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingValues{Values: e.vec}}, nil
}
