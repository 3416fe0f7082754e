package answer

import (
	"math"
	"sort"
	"strings"

	"github.com/botsmith-dev/botsmith/pkg/model"
)

// DefaultTopK is the number of chunks injected into a targeted context
const DefaultTopK = 3

// keywordScoreWeight keeps fallback scores low relative to genuine vector
// matches, so vectors dominate ranking whenever they exist while keyword
// hits still surface when no vectors are available.
const keywordScoreWeight = 0.1

// Rank scores chunks against the query and returns the topK most relevant
// chunk texts, most relevant first. Chunk pairs with vectors on both sides
// are scored by cosine similarity; anything else falls back to keyword
// overlap. Ties keep original chunk order. Zero-score chunks are dropped,
// which lets the caller distinguish a ranking miss from a weak match.
func Rank(query string, queryVec []float32, chunks []*model.Chunk, topK int) []string {
	if len(chunks) == 0 {
		return nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	type scored struct {
		text  string
		score float64
	}

	items := make([]scored, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk == nil {
			continue
		}

		var score float64
		if queryVec != nil && chunk.Embedding != nil {
			score = cosineSimilarity(queryVec, chunk.Embedding)
		} else {
			score = keywordScore(query, chunk.Text)
		}
		items = append(items, scored{text: chunk.Text, score: score})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	var ranked []string
	for _, item := range items {
		if item.score <= 0 {
			break
		}
		ranked = append(ranked, item.text)
		if len(ranked) >= topK {
			break
		}
	}

	return ranked
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// defined as 0 when either vector has zero norm
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// keywordScore counts query words longer than two characters appearing as
// substrings of the lower-cased chunk text
func keywordScore(query, text string) float64 {
	lowered := strings.ToLower(text)

	var hits int
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, ".,!?\"'()")
		if len(word) > 2 && strings.Contains(lowered, word) {
			hits++
		}
	}

	return float64(hits) * keywordScoreWeight
}
