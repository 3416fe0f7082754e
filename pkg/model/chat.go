package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionID string

// NewSessionID generates a new unique SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation, persisted per session
type Message struct {
	SessionID SessionID
	BotID     BotID
	Role      Role
	Content   string
	CreatedAt time.Time
}

// DataSource tells which retrieval path grounded an answer
type DataSource string

const (
	DataSourceChunks   DataSource = "relevant_chunks"
	DataSourceFallback DataSource = "all_training_data"
)

// Prompt is the single shape handed from the context assembler to the
// model router. Source is empty in open-book mode.
type Prompt struct {
	SystemInstruction string
	UserContent       string
	Source            DataSource
	ContextLength     int
}

// ChatInput is an incoming end-user message
type ChatInput struct {
	Message   string    `json:"message"`
	SessionID SessionID `json:"sessionId,omitempty"`
}

// TrainingDataUsage reports whether and how training data grounded a reply
type TrainingDataUsage struct {
	HasData    bool       `json:"hasData"`
	DataSource DataSource `json:"dataSource,omitempty"`
	DataLength int        `json:"dataLength,omitempty"`
}

// ChatOutput is the reply returned to the calling UI. Response is always a
// chat-shaped string, even when the pipeline failed internally.
type ChatOutput struct {
	Response         string            `json:"response"`
	SessionID        SessionID         `json:"sessionId"`
	TrainingDataUsed TrainingDataUsage `json:"trainingDataUsed"`
}
