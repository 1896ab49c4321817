package domain

import "time"

// ChunkMetadata is the metadata stored alongside every chunk in the
// vector store. A document is not a separate stored entity: it is
// reconstructed by grouping chunks on FileID.
type ChunkMetadata struct {
	FileName       string    `json:"fileName"`
	StoredFileName string    `json:"storedFileName"`
	FileID         string    `json:"fileId"`
	ContentHash    string    `json:"contentHash"`
	Collection     string    `json:"collection"`
	ChunkIndex     int       `json:"chunkIndex"`
	TotalChunks    int       `json:"totalChunks"`
	UploadDate     time.Time `json:"uploadDate"`
}

// ChunkRecord is a stored chunk id paired with its metadata, as returned
// by a full store listing.
type ChunkRecord struct {
	ID       string        `json:"id"`
	Metadata ChunkMetadata `json:"metadata"`
}

// QueryHit is a single similarity-search result. Distance is the cosine
// distance (0 = identical direction, 2 = opposite); hits are ordered by
// ascending distance.
type QueryHit struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Distance float64       `json:"distance"`
}

// FileInfo is the per-document view reconstructed from chunk metadata.
type FileInfo struct {
	FileID         string    `json:"fileId"`
	FileName       string    `json:"fileName"`
	StoredFileName string    `json:"storedFileName"`
	Collection     string    `json:"collection"`
	ChunkCount     int       `json:"chunkCount"`
	UploadDate     time.Time `json:"uploadDate"`
}

// StoreStats summarises the corpus.
type StoreStats struct {
	TotalFiles  int `json:"totalFiles"`
	TotalChunks int `json:"totalChunks"`
}

// IngestResult reports a successful document ingestion.
type IngestResult struct {
	FileName   string `json:"fileName"`
	FileID     string `json:"fileId"`
	ChunkCount int    `json:"chunkCount"`
	TextLength int    `json:"textLength"`
}
