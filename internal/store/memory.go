package store

import (
	"context"
	"sort"
	"sync"

	"docflow/internal/model"
)

// Memory is an in-memory DocumentStore. It is the default store when no
// database is configured and the store used by tests. Safe for concurrent use.
type Memory struct {
	mu            sync.RWMutex
	docs          map[string]*model.Document
	distributions map[string][]model.Distribution
}

// NewMemory creates an empty in-memory document store.
func NewMemory() *Memory {
	return &Memory{
		docs:          make(map[string]*model.Document),
		distributions: make(map[string][]model.Distribution),
	}
}

var _ DocumentStore = (*Memory)(nil)

func (m *Memory) Insert(_ context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := cloneDocument(doc)
	m.docs[doc.ID] = cp
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (m *Memory) Update(_ context.Context, id string, mutate func(*model.Document) error) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Mutate a copy so a failed mutation leaves the stored record untouched.
	cp := cloneDocument(doc)
	if err := mutate(cp); err != nil {
		return nil, err
	}
	m.docs[id] = cp
	return cloneDocument(cp), nil
}

func (m *Memory) List(_ context.Context) ([]model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		out = append(out, *cloneDocument(doc))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) AddDistribution(_ context.Context, docID string, d model.Distribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[docID]; !ok {
		return ErrNotFound
	}
	m.distributions[docID] = append(m.distributions[docID], d)
	return nil
}

func (m *Memory) ListDistributions(_ context.Context, docID string) ([]model.Distribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.docs[docID]; !ok {
		return nil, ErrNotFound
	}
	hist := m.distributions[docID]
	out := make([]model.Distribution, len(hist))
	copy(out, hist)
	return out, nil
}

// cloneDocument deep-copies a document so callers never share pointers with
// the stored record.
func cloneDocument(doc *model.Document) *model.Document {
	cp := *doc
	if doc.Analysis != nil {
		a := *doc.Analysis
		a.KeyPoints = append([]string(nil), doc.Analysis.KeyPoints...)
		a.Departments = append([]string(nil), doc.Analysis.Departments...)
		a.ActionItems = append([]string(nil), doc.Analysis.ActionItems...)
		cp.Analysis = &a
	}
	if doc.Distribution != nil {
		d := *doc.Distribution
		cp.Distribution = &d
	}
	return &cp
}
