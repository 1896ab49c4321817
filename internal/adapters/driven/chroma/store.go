// Package chroma implements the vector store against a ChromaDB
// server's HTTP API. All chunks live in one Chroma collection named
// "documents"; the logical collection is a metadata field used as a
// where-filter, so cross-collection operations stay single-index.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
)

// Ensure Store implements VectorStore
var _ driven.VectorStore = (*Store)(nil)

const collectionName = "documents"

// Store is the ChromaDB-backed VectorStore.
type Store struct {
	baseURL      string
	collectionID string
	client       *http.Client
}

// Config holds ChromaDB connection configuration
type Config struct {
	// BaseURL is the ChromaDB endpoint (e.g., http://localhost:8000)
	BaseURL string

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// NewStore connects to the server and gets or creates the documents
// collection.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	s := &Store{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Store) ensureCollection(ctx context.Context) error {
	body := map[string]any{
		"name":          collectionName,
		"get_or_create": true,
		"metadata": map[string]any{
			"hnsw:space": "cosine",
		},
	}

	var coll collectionResponse
	if err := s.doRequest(ctx, http.MethodPost, "/api/v1/collections", body, &coll); err != nil {
		return fmt.Errorf("creating chroma collection: %w", err)
	}
	s.collectionID = coll.ID
	return nil
}

// chunkMeta is the flat metadata shape Chroma stores per embedding.
type chunkMeta struct {
	FileName       string `json:"fileName"`
	StoredFileName string `json:"storedFileName,omitempty"`
	FileID         string `json:"fileId"`
	ContentHash    string `json:"contentHash,omitempty"`
	Collection     string `json:"collection"`
	ChunkIndex     int    `json:"chunkIndex"`
	TotalChunks    int    `json:"totalChunks"`
	UploadDate     string `json:"uploadDate,omitempty"`
}

func toChunkMeta(m domain.ChunkMetadata) chunkMeta {
	return chunkMeta{
		FileName:       m.FileName,
		StoredFileName: m.StoredFileName,
		FileID:         m.FileID,
		ContentHash:    m.ContentHash,
		Collection:     m.Collection,
		ChunkIndex:     m.ChunkIndex,
		TotalChunks:    m.TotalChunks,
		UploadDate:     m.UploadDate.Format(time.RFC3339),
	}
}

func (m chunkMeta) domain() domain.ChunkMetadata {
	uploaded, _ := time.Parse(time.RFC3339, m.UploadDate)
	return domain.ChunkMetadata{
		FileName:       m.FileName,
		StoredFileName: m.StoredFileName,
		FileID:         m.FileID,
		ContentHash:    m.ContentHash,
		Collection:     m.Collection,
		ChunkIndex:     m.ChunkIndex,
		TotalChunks:    m.TotalChunks,
		UploadDate:     uploaded,
	}
}

// Add uploads the batch in one request.
func (s *Store) Add(ctx context.Context, ids, texts []string, embeddings [][]float32, metadatas []domain.ChunkMetadata) error {
	if err := driven.ValidateBatch(ids, texts, embeddings, metadatas); err != nil {
		return err
	}

	metas := make([]chunkMeta, len(metadatas))
	for i, m := range metadatas {
		metas[i] = toChunkMeta(m)
	}

	body := map[string]any{
		"ids":        ids,
		"documents":  texts,
		"embeddings": embeddings,
		"metadatas":  metas,
	}
	return s.doRequest(ctx, http.MethodPost, s.collectionPath("/add"), body, nil)
}

type queryResponse struct {
	IDs       [][]string    `json:"ids"`
	Documents [][]string    `json:"documents"`
	Metadatas [][]chunkMeta `json:"metadatas"`
	Distances [][]float64   `json:"distances"`
}

// Query runs a nearest-neighbor search, filtered to collection when
// non-empty.
func (s *Store) Query(ctx context.Context, embedding []float32, k int, collection string) ([]domain.QueryHit, error) {
	body := map[string]any{
		"query_embeddings": [][]float32{embedding},
		"n_results":        k,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	if collection != "" {
		body["where"] = map[string]any{"collection": collection}
	}

	var resp queryResponse
	if err := s.doRequest(ctx, http.MethodPost, s.collectionPath("/query"), body, &resp); err != nil {
		return nil, err
	}
	if len(resp.IDs) == 0 {
		return nil, nil
	}

	hits := make([]domain.QueryHit, 0, len(resp.IDs[0]))
	for i, id := range resp.IDs[0] {
		hit := domain.QueryHit{ID: id}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			hit.Text = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			hit.Metadata = resp.Metadatas[0][i].domain()
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			hit.Distance = resp.Distances[0][i]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

type getResponse struct {
	IDs       []string    `json:"ids"`
	Metadatas []chunkMeta `json:"metadatas"`
}

// GetAll returns every stored chunk's identity and metadata.
func (s *Store) GetAll(ctx context.Context) ([]domain.ChunkRecord, error) {
	body := map[string]any{
		"include": []string{"metadatas"},
	}

	var resp getResponse
	if err := s.doRequest(ctx, http.MethodPost, s.collectionPath("/get"), body, &resp); err != nil {
		return nil, err
	}

	records := make([]domain.ChunkRecord, 0, len(resp.IDs))
	for i, id := range resp.IDs {
		rec := domain.ChunkRecord{ID: id}
		if i < len(resp.Metadatas) {
			rec.Metadata = resp.Metadatas[i].domain()
		}
		records = append(records, rec)
	}
	return records, nil
}

// Delete removes one chunk by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	body := map[string]any{"ids": []string{id}}
	return s.doRequest(ctx, http.MethodPost, s.collectionPath("/delete"), body, nil)
}

// Reset drops the collection and recreates it empty.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.doRequest(ctx, http.MethodDelete, "/api/v1/collections/"+collectionName, nil, nil); err != nil {
		return fmt.Errorf("dropping chroma collection: %w", err)
	}
	return s.ensureCollection(ctx)
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodGet, "/api/v1/heartbeat", nil, nil)
}

// Close releases pooled connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Store) collectionPath(suffix string) string {
	return "/api/v1/collections/" + s.collectionID + suffix
}

// doRequest performs one API call, decoding the response into out when
// non-nil.
func (s *Store) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("chroma request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma returned %s: %s", resp.Status, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
