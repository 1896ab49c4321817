// Package bolt provides the embedded vector store: chunks persist in a
// single bbolt file and are mirrored in memory, where similarity search
// runs brute force. That keeps the zero-dependency local setup working
// for corpora up to a few hundred thousand chunks.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
)

// Ensure Store implements VectorStore
var _ driven.VectorStore = (*Store)(nil)

var bucketChunks = []byte("chunks")

// Store is the bbolt-backed VectorStore.
type Store struct {
	db *bbolt.DB

	mu     sync.RWMutex
	chunks map[string]storedChunk
}

type storedChunk struct {
	Text      string               `json:"text"`
	Embedding []float32            `json:"embedding"`
	Metadata  domain.ChunkMetadata `json:"metadata"`
}

// NewStore opens (or creates) the database file at path and loads the
// persisted chunks into memory.
func NewStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketChunks)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks bucket: %w", err)
	}

	s := &Store{db: db, chunks: make(map[string]storedChunk)}
	if err := s.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading chunks: %w", err)
	}
	return s, nil
}

func (s *Store) load() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChunks).ForEach(func(k, v []byte) error {
			var chunk storedChunk
			if err := json.Unmarshal(v, &chunk); err != nil {
				// Skip corrupted entries
				return nil
			}
			s.chunks[string(k)] = chunk
			return nil
		})
	})
}

// Add persists the batch in one transaction; the in-memory mirror is
// updated only after the transaction commits.
func (s *Store) Add(ctx context.Context, ids, texts []string, embeddings [][]float32, metadatas []domain.ChunkMetadata) error {
	if err := driven.ValidateBatch(ids, texts, embeddings, metadatas); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]storedChunk, len(ids))
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		for i, id := range ids {
			chunk := storedChunk{
				Text:      texts[i],
				Embedding: embeddings[i],
				Metadata:  metadatas[i],
			}
			data, err := json.Marshal(chunk)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(id), data); err != nil {
				return err
			}
			batch[id] = chunk
		}
		return nil
	})
	if err != nil {
		return err
	}

	for id, chunk := range batch {
		s.chunks[id] = chunk
	}
	return nil
}

// Query runs a brute-force cosine scan over the in-memory mirror,
// restricted to collection when non-empty.
func (s *Store) Query(ctx context.Context, embedding []float32, k int, collection string) ([]domain.QueryHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]domain.QueryHit, 0, len(s.chunks))
	for id, chunk := range s.chunks {
		if collection != "" && chunk.Metadata.Collection != collection {
			continue
		}
		hits = append(hits, domain.QueryHit{
			ID:       id,
			Text:     chunk.Text,
			Metadata: chunk.Metadata,
			Distance: cosineDistance(embedding, chunk.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})

	if k < 0 {
		k = 0
	}
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// GetAll returns every stored chunk's identity and metadata, ordered
// by id for stable iteration.
func (s *Store) GetAll(ctx context.Context) ([]domain.ChunkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.ChunkRecord, 0, len(s.chunks))
	for id, chunk := range s.chunks {
		records = append(records, domain.ChunkRecord{ID: id, Metadata: chunk.Metadata})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// Delete removes one chunk by id. Deleting an absent id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChunks).Delete([]byte(id))
	})
	if err != nil {
		return err
	}
	delete(s.chunks, id)
	return nil
}

// Reset drops and recreates the chunks bucket.
func (s *Store) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketChunks); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketChunks)
		return err
	})
	if err != nil {
		return err
	}
	s.chunks = make(map[string]storedChunk)
	return nil
}

// Ping verifies the store is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketChunks) == nil {
			return fmt.Errorf("chunks bucket missing")
		}
		return nil
	})
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// cosineDistance is 1 - cosine similarity. Vectors of unequal length
// or zero norm are maximally distant.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
