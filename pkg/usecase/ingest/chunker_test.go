package ingest_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/botsmith-dev/botsmith/pkg/usecase/ingest"
)

func TestChunkShortContent(t *testing.T) {
	chunks := ingest.Chunk("The office is open 9am-5pm.", 1000, 200)
	gt.A(t, chunks).Length(1)
	gt.Equal(t, chunks[0].Text, "The office is open 9am-5pm.")
}

func TestChunkEmptyContent(t *testing.T) {
	gt.A(t, ingest.Chunk("", 1000, 200)).Length(0)
	gt.A(t, ingest.Chunk("   \n\t  ", 1000, 200)).Length(0)
}

func TestChunkWindowGeometry(t *testing.T) {
	content := strings.Repeat("a", 2500)
	chunks := ingest.Chunk(content, 1000, 200)

	// windows start every size-overlap chars (0, 800, 1600); the window
	// that reaches the end of text is the last one
	gt.A(t, chunks).Length(3)
	for _, chunk := range chunks {
		gt.Number(t, len(chunk.Text)).LessOrEqual(1000)
	}
	gt.Equal(t, len(chunks[0].Text), 1000)
	gt.Equal(t, len(chunks[1].Text), 1000)
	gt.Equal(t, len(chunks[2].Text), 900) // final window shorter, never empty
}

func TestChunkAdjacentOverlap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 300; i++ {
		sb.WriteString("word")
		sb.WriteString(" ")
	}
	chunks := ingest.Chunk(sb.String(), 1000, 200)
	gt.A(t, chunks).Longer(1)

	for i := 0; i < len(chunks)-1; i++ {
		tail := chunks[i].Text[len(chunks[i].Text)-200:]
		head := chunks[i+1].Text[:200]
		gt.Equal(t, tail, head)
	}
}

func TestChunkNormalizesWhitespace(t *testing.T) {
	chunks := ingest.Chunk("hello\n\n  world\t!", 1000, 200)
	gt.A(t, chunks).Length(1)
	gt.Equal(t, chunks[0].Text, "hello world !")
}

func TestChunkCap(t *testing.T) {
	content := strings.Repeat("x", 1000*100)
	chunks := ingest.Chunk(content, 1000, 200)
	gt.A(t, chunks).Length(ingest.MaxChunks)
}

func TestChunkDegenerateOverlap(t *testing.T) {
	// overlap >= size must not loop forever
	chunks := ingest.Chunk(strings.Repeat("y", 500), 100, 100)
	gt.A(t, chunks).Longer(0)
	for _, chunk := range chunks {
		gt.Number(t, len(chunk.Text)).LessOrEqual(100)
	}
}
