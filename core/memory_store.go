package core

import (
	"context"
	"time"
)

// MemoryRecord is a single remembered snippet of conversation, scoped to a user.
type MemoryRecord struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	Content string    `json:"content"`
	Created time.Time `json:"created"`
}

// SearchResult represents a retrieved memory item with a relevance score and arbitrary metadata.
type SearchResult struct {
	ID       string
	Content  string
	Score    float64
	Metadata map[string]any
}

// MemoryStore defines persistence + retrieval (search) for conversational
// memory snippets. Implementations can back search with embeddings, keywords
// or any heuristic.
type MemoryStore interface {
	Add(ctx context.Context, userID, content string) (*MemoryRecord, error)
	Search(ctx context.Context, userID, query string, limit int) ([]SearchResult, error)
}
