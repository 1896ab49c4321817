package mocks

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
)

type storedChunk struct {
	text      string
	embedding []float32
	metadata  domain.ChunkMetadata
}

// MockVectorStore is an in-memory VectorStore for testing. Query runs
// real brute-force cosine distance so ordering assertions are
// meaningful.
type MockVectorStore struct {
	mu       sync.RWMutex
	chunks   map[string]storedChunk
	failNext error
}

// NewMockVectorStore creates a new MockVectorStore
func NewMockVectorStore() *MockVectorStore {
	return &MockVectorStore{
		chunks: make(map[string]storedChunk),
	}
}

func (m *MockVectorStore) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *MockVectorStore) Add(ctx context.Context, ids []string, texts []string, embeddings [][]float32, metadatas []domain.ChunkMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}
	if err := driven.ValidateBatch(ids, texts, embeddings, metadatas); err != nil {
		return err
	}
	for i, id := range ids {
		m.chunks[id] = storedChunk{
			text:      texts[i],
			embedding: embeddings[i],
			metadata:  metadatas[i],
		}
	}
	return nil
}

func (m *MockVectorStore) Query(ctx context.Context, embedding []float32, k int, collection string) ([]domain.QueryHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	hits := make([]domain.QueryHit, 0)
	for id, c := range m.chunks {
		if collection != "" && c.metadata.Collection != collection {
			continue
		}
		hits = append(hits, domain.QueryHit{
			ID:       id,
			Text:     c.text,
			Metadata: c.metadata,
			Distance: cosineDistance(embedding, c.embedding),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *MockVectorStore) GetAll(ctx context.Context) ([]domain.ChunkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	records := make([]domain.ChunkRecord, 0, len(m.chunks))
	for id, c := range m.chunks {
		records = append(records, domain.ChunkRecord{ID: id, Metadata: c.metadata})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (m *MockVectorStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}
	delete(m.chunks, id)
	return nil
}

func (m *MockVectorStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}
	m.chunks = make(map[string]storedChunk)
	return nil
}

func (m *MockVectorStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MockVectorStore) Close() error {
	return nil
}

// Helper methods for testing

// SetFailNext makes the next store operation return err.
func (m *MockVectorStore) SetFailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Len reports how many chunks are stored.
func (m *MockVectorStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
