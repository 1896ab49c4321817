package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

func words(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "w%04d", i)
	}
	return b.String()
}

func TestSplit_ChunkCount(t *testing.T) {
	tests := []struct {
		words   int
		size    int
		overlap int
		want    int
	}{
		{1200, 500, 50, 3},
		{500, 500, 50, 1},
		{501, 500, 50, 2},
		{10, 500, 50, 1},
		{1, 500, 50, 1},
		{900, 450, 0, 2},
	}
	for _, tt := range tests {
		chunks, err := Split(words(tt.words), tt.size, tt.overlap)
		if err != nil {
			t.Fatalf("Split(%d words, %d, %d): %v", tt.words, tt.size, tt.overlap, err)
		}
		if len(chunks) != tt.want {
			t.Errorf("Split(%d words, %d, %d) = %d chunks, want %d",
				tt.words, tt.size, tt.overlap, len(chunks), tt.want)
		}
	}
}

func TestSplit_ReassemblesOriginalWords(t *testing.T) {
	original := strings.Fields(words(1200))
	chunks, err := Split(words(1200), 500, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	step := 500 - 50
	var rejoined []string
	for i, chunk := range chunks {
		cw := strings.Fields(chunk)
		if i == 0 {
			rejoined = append(rejoined, cw...)
			continue
		}
		// Drop the overlapping prefix, keep the new tail.
		skip := len(rejoined) - i*step
		rejoined = append(rejoined, cw[skip:]...)
	}

	if len(rejoined) != len(original) {
		t.Fatalf("rejoined %d words, want %d", len(rejoined), len(original))
	}
	for i := range original {
		if rejoined[i] != original[i] {
			t.Fatalf("word %d differs: %q vs %q", i, rejoined[i], original[i])
		}
	}
}

func TestSplit_ConsecutiveChunksOverlapExactly(t *testing.T) {
	chunks, err := Split(words(1200), 500, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		tail := prev[len(prev)-50:]
		head := cur[:50]
		for j := range tail {
			if tail[j] != head[j] {
				t.Fatalf("chunks %d/%d: overlap word %d is %q vs %q", i-1, i, j, tail[j], head[j])
			}
		}
	}
}

func TestSplit_NoFullyContainedTrailingChunk(t *testing.T) {
	// When the last window reaches the end of the text exactly, the
	// walk must stop instead of emitting a shorter window that is a
	// suffix of the previous one.
	chunks, err := Split(words(950), 500, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	last := chunks[len(chunks)-1]
	for _, prev := range chunks[:len(chunks)-1] {
		if strings.Contains(prev, last) {
			t.Errorf("trailing chunk is contained in an earlier one")
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := words(777)
	first, err := Split(text, 120, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Split(text, 120, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestSplit_NormalizesWhitespace(t *testing.T) {
	chunks, err := Split("  one \t two\n\nthree  ", 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != "one two" || chunks[1] != "three" {
		t.Errorf("unexpected chunks: %q", chunks)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	chunks, err := Split("   \n\t ", 500, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for blank text, got %d", len(chunks))
	}
}

func TestSplit_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Split("some text here", tt.size, tt.overlap); !errors.Is(err, domain.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
