package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
	"github.com/archivist-labs/docchat-core/internal/core/ports/driven"
)

// Ensure VectorStore implements driven.VectorStore
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is the pgvector-backed chunk store.
type VectorStore struct {
	db *DB
}

// NewVectorStore creates a vector store over an initialized database.
func NewVectorStore(db *DB) *VectorStore {
	return &VectorStore{db: db}
}

// Add inserts the batch in one transaction; an existing id is
// overwritten.
func (s *VectorStore) Add(ctx context.Context, ids, texts []string, embeddings [][]float32, metadatas []domain.ChunkMetadata) error {
	if err := driven.ValidateBatch(ids, texts, embeddings, metadatas); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, text, embedding, file_name, stored_file_name, file_id,
		                    content_hash, collection, chunk_index, total_chunks, upload_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			embedding = EXCLUDED.embedding,
			file_name = EXCLUDED.file_name,
			stored_file_name = EXCLUDED.stored_file_name,
			file_id = EXCLUDED.file_id,
			content_hash = EXCLUDED.content_hash,
			collection = EXCLUDED.collection,
			chunk_index = EXCLUDED.chunk_index,
			total_chunks = EXCLUDED.total_chunks,
			upload_date = EXCLUDED.upload_date`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		m := metadatas[i]
		_, err := stmt.ExecContext(ctx, id, texts[i], pgvector.NewVector(embeddings[i]),
			m.FileName, m.StoredFileName, m.FileID, m.ContentHash, m.Collection,
			m.ChunkIndex, m.TotalChunks, m.UploadDate)
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// Query returns the k nearest chunks by cosine distance, restricted to
// collection when non-empty.
func (s *VectorStore) Query(ctx context.Context, embedding []float32, k int, collection string) ([]domain.QueryHit, error) {
	query := `
		SELECT id, text, file_name, stored_file_name, file_id, content_hash,
		       collection, chunk_index, total_chunks, upload_date,
		       embedding <=> $1 AS distance
		FROM chunks`
	args := []any{pgvector.NewVector(embedding)}
	if collection != "" {
		query += ` WHERE collection = $2`
		args = append(args, collection)
	}
	query += fmt.Sprintf(` ORDER BY distance LIMIT %d`, k)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.QueryHit
	for rows.Next() {
		var hit domain.QueryHit
		m := &hit.Metadata
		err := rows.Scan(&hit.ID, &hit.Text, &m.FileName, &m.StoredFileName, &m.FileID,
			&m.ContentHash, &m.Collection, &m.ChunkIndex, &m.TotalChunks, &m.UploadDate,
			&hit.Distance)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// GetAll returns every stored chunk's identity and metadata.
func (s *VectorStore) GetAll(ctx context.Context) ([]domain.ChunkRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_name, stored_file_name, file_id, content_hash,
		       collection, chunk_index, total_chunks, upload_date
		FROM chunks
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var records []domain.ChunkRecord
	for rows.Next() {
		var rec domain.ChunkRecord
		m := &rec.Metadata
		err := rows.Scan(&rec.ID, &m.FileName, &m.StoredFileName, &m.FileID,
			&m.ContentHash, &m.Collection, &m.ChunkIndex, &m.TotalChunks, &m.UploadDate)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes one chunk by id. Deleting an absent id is a no-op.
func (s *VectorStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting chunk %s: %w", id, err)
	}
	return nil
}

// Reset empties the chunks table.
func (s *VectorStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE chunks`); err != nil {
		return fmt.Errorf("truncating chunks: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *VectorStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the underlying connection pool.
func (s *VectorStore) Close() error {
	return s.db.Close()
}
