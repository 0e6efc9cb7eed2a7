package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Gateway. It backs package tests and local
// experiments; the server never runs on it.
type Memory struct {
	mu    sync.Mutex
	colls map[string][]Document
	hub   *Hub
}

// NewMemory returns an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{
		colls: make(map[string][]Document),
		hub:   NewHub(),
	}
}

func (m *Memory) List(ctx context.Context, path string) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneDocs(m.colls[path]), nil
}

func (m *Memory) Create(ctx context.Context, path string, data json.RawMessage) (string, error) {
	id := uuid.NewString()
	m.mu.Lock()
	m.colls[path] = append(m.colls[path], Document{ID: id, Data: append(json.RawMessage(nil), data...)})
	m.mu.Unlock()
	m.hub.Notify(path)
	return id, nil
}

func (m *Memory) Put(ctx context.Context, path, id string, data json.RawMessage) error {
	m.mu.Lock()
	docs := m.colls[path]
	found := false
	for i := range docs {
		if docs[i].ID == id {
			docs[i].Data = append(json.RawMessage(nil), data...)
			found = true
			break
		}
	}
	if !found {
		m.colls[path] = append(docs, Document{ID: id, Data: append(json.RawMessage(nil), data...)})
	}
	m.mu.Unlock()
	m.hub.Notify(path)
	return nil
}

func (m *Memory) Update(ctx context.Context, path, id string, data json.RawMessage) error {
	m.mu.Lock()
	docs := m.colls[path]
	found := false
	for i := range docs {
		if docs[i].ID == id {
			docs[i].Data = append(json.RawMessage(nil), data...)
			found = true
			break
		}
	}
	m.mu.Unlock()
	if !found {
		return ErrNotFound
	}
	m.hub.Notify(path)
	return nil
}

func (m *Memory) Delete(ctx context.Context, path, id string) error {
	m.mu.Lock()
	docs := m.colls[path]
	found := false
	for i := range docs {
		if docs[i].ID == id {
			m.colls[path] = append(docs[:i:i], docs[i+1:]...)
			found = true
			break
		}
	}
	m.mu.Unlock()
	if !found {
		return ErrNotFound
	}
	m.hub.Notify(path)
	return nil
}

func (m *Memory) DeleteMatching(ctx context.Context, path string, match func(Document) bool) (int, error) {
	m.mu.Lock()
	docs := m.colls[path]
	kept := docs[:0:0]
	removed := 0
	for _, d := range docs {
		if match(d) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	m.colls[path] = kept
	m.mu.Unlock()
	if removed > 0 {
		m.hub.Notify(path)
	}
	return removed, nil
}

func (m *Memory) Subscribe(ctx context.Context, path string) (<-chan []Document, func(), error) {
	return m.hub.Subscribe(ctx, path, m.List)
}

func (m *Memory) Close() error { return nil }

// cloneDocs copies the documents including their Data bytes, so callers
// can mutate what they get back without corrupting the stored copy.
func cloneDocs(docs []Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Document{ID: d.ID, Data: append(json.RawMessage(nil), d.Data...)}
	}
	return out
}
