package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentlaunch/core"
)

// InMemoryStore is a naive process-local MemoryStore. Remembered snippets are
// scoped per user and searched with case insensitive substring matching.
//
// Concurrency: protected by RWMutex.
// Search: linear scan assigning a constant score of 1.0 to every hit, newest
// first. Suitable for local smoke tests and demos; swap for a vector DB or
// semantic index for production retrieval.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]core.MemoryRecord // userID -> remembered snippets
}

// NewInMemoryStore creates a new in-memory memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string][]core.MemoryRecord)}
}

// Add appends a remembered snippet for the user and returns the stored record.
func (m *InMemoryStore) Add(ctx context.Context, userID, content string) (*core.MemoryRecord, error) {
	rec := core.MemoryRecord{
		ID:      core.NewID(),
		UserID:  userID,
		Content: content,
		Created: time.Now().UTC(),
	}
	m.mu.Lock()
	m.records[userID] = append(m.records[userID], rec)
	m.mu.Unlock()
	return &rec, nil
}

// Search performs a case insensitive substring match over the user's stored
// snippets, newest first, up to limit results. A limit <= 0 means no cap. An
// empty query matches everything.
func (m *InMemoryStore) Search(ctx context.Context, userID, query string, limit int) ([]core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.records[userID]
	needle := strings.ToLower(query)

	results := make([]core.SearchResult, 0, len(stored))
	for _, rec := range stored {
		if needle != "" && !strings.Contains(strings.ToLower(rec.Content), needle) {
			continue
		}
		results = append(results, core.SearchResult{
			ID:      rec.ID,
			Content: rec.Content,
			Score:   1.0,
			Metadata: map[string]any{
				"created": rec.Created,
			},
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		ti, _ := results[i].Metadata["created"].(time.Time)
		tj, _ := results[j].Metadata["created"].(time.Time)
		return ti.After(tj)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
