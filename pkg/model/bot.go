package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type BotID string

// NewBotID generates a new unique BotID
func NewBotID() BotID {
	return BotID(uuid.New().String())
}

type DocumentType string

const (
	DocumentTypeText DocumentType = "text"
	DocumentTypeFile DocumentType = "file"
)

// Validate checks if the document type is valid
func (t DocumentType) Validate() error {
	switch t {
	case DocumentTypeText, DocumentTypeFile:
		return nil
	default:
		return goerr.New("invalid document type", goerr.V("type", t))
	}
}

// Chunk is a bounded slice of a document's text, the unit of retrieval.
// Embedding is nil when the embedding call failed or was skipped; ranking
// must tolerate a mix of chunks with and without vectors.
type Chunk struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Document is one ingested source of training material. Chunks are derived
// solely from Content; regeneration replaces them wholesale.
type Document struct {
	Type       DocumentType `json:"type"`
	Name       string       `json:"name"`
	Content    string       `json:"content"`
	Chunks     []*Chunk     `json:"chunks"`
	UploadedAt time.Time    `json:"uploadedAt"`
}

// Bot owns zero or more documents plus the model and prompt used to answer.
// DocVersion increments on every document replacement and backs the
// compare-and-swap discipline for concurrent ingestion.
type Bot struct {
	ID           BotID
	Name         string
	Description  string
	SystemPrompt string
	ModelName    string
	Documents    []*Document
	DocVersion   int64
	CreatedAt    time.Time
}

// Validate checks required bot fields
func (b *Bot) Validate() error {
	if b.ID == "" {
		return goerr.New("bot ID is empty")
	}
	if b.Name == "" {
		return goerr.New("bot name is empty")
	}
	return nil
}

// HasTrainingData reports whether any document carries non-empty content
func (b *Bot) HasTrainingData() bool {
	for _, doc := range b.Documents {
		if doc != nil && doc.Content != "" {
			return true
		}
	}
	return false
}

// AllChunks returns the chunks of all documents in document order
func (b *Bot) AllChunks() []*Chunk {
	var chunks []*Chunk
	for _, doc := range b.Documents {
		if doc == nil {
			continue
		}
		chunks = append(chunks, doc.Chunks...)
	}
	return chunks
}
