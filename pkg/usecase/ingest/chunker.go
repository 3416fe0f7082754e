package ingest

import (
	"strings"

	"github.com/botsmith-dev/botsmith/pkg/model"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	// MaxChunks bounds ingestion latency and the number of embedding
	// calls. Content beyond the cap is not indexed.
	MaxChunks = 50
)

// Chunk splits whitespace-normalized text into consecutive windows of size
// characters. Each window starts size-overlap characters after the previous
// one, so neighbors share overlap characters of text. The final window may
// be shorter than size; an empty final window is never emitted.
func Chunk(content string, size, overlap int) []*model.Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 5
	}

	text := []rune(normalize(content))
	if len(text) == 0 {
		return nil
	}

	step := size - overlap
	var chunks []*model.Chunk
	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}

		chunks = append(chunks, &model.Chunk{Text: string(text[start:end])})

		if end == len(text) || len(chunks) >= MaxChunks {
			break
		}
	}

	return chunks
}

// normalize collapses all whitespace runs into single spaces
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
