// Package memory implements store.Store on plain maps. It backs development
// mode and the e2e tests; production deployments use the firestore or
// postgres adapters.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"family-calendar-go/internal/store"
)

type Store struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

func New() *Store {
	return &Store{docs: make(map[string]map[string]any)}
}

func (s *Store) Get(_ context.Context, path string) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(path)
}

func (s *Store) getLocked(path string) (store.Document, error) {
	data, ok := s.docs[path]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	_, id := store.SplitPath(path)
	return store.Document{Path: path, ID: id, Data: cloneMap(data)}, nil
}

func (s *Store) Set(_ context.Context, path string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = cloneMap(data)
	return nil
}

func (s *Store) Update(_ context.Context, path string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(path, fields)
}

func (s *Store) updateLocked(path string, fields map[string]any) error {
	data, ok := s.docs[path]
	if !ok {
		return store.ErrNotFound
	}
	for key, value := range fields {
		data[key] = cloneValue(value)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
	return nil
}

func (s *Store) QueryEq(_ context.Context, collection, field string, value any) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []store.Document
	for path, data := range s.docs {
		coll, id := store.SplitPath(path)
		if coll != collection {
			continue
		}
		if equal(data[field], value) {
			result = append(result, store.Document{Path: path, ID: id, Data: cloneMap(data)})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

func (s *Store) QueryRange(_ context.Context, collection, field string, lo, hi any) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []store.Document
	for path, data := range s.docs {
		coll, id := store.SplitPath(path)
		if coll != collection {
			continue
		}
		v, ok := data[field]
		if !ok {
			continue
		}
		if compare(v, lo) >= 0 && compare(v, hi) < 0 {
			result = append(result, store.Document{Path: path, ID: id, Data: cloneMap(data)})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return compare(result[i].Data[field], result[j].Data[field]) < 0
	})
	return result, nil
}

func (s *Store) List(_ context.Context, collection string, limit int) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []store.Document
	for path, data := range s.docs {
		coll, id := store.SplitPath(path)
		if coll != collection {
			continue
		}
		result = append(result, store.Document{Path: path, ID: id, Data: cloneMap(data)})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) RunTransaction(ctx context.Context, fn func(tx store.Tx) error) error {
	t := &tx{store: s}
	if err := fn(t); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate first so a failing op leaves the store untouched.
	for _, op := range t.ops {
		if op.kind == opUpdate {
			if _, ok := s.docs[op.path]; !ok {
				return fmt.Errorf("update %s: %w", op.path, store.ErrNotFound)
			}
		}
	}
	for _, op := range t.ops {
		switch op.kind {
		case opSet:
			s.docs[op.path] = cloneMap(op.data)
		case opUpdate:
			_ = s.updateLocked(op.path, op.data)
		case opDelete:
			delete(s.docs, op.path)
		}
	}
	return nil
}

type opKind int

const (
	opSet opKind = iota
	opUpdate
	opDelete
)

type op struct {
	kind opKind
	path string
	data map[string]any
}

type tx struct {
	store *Store
	ops   []op
}

func (t *tx) Get(ctx context.Context, path string) (store.Document, error) {
	return t.store.Get(ctx, path)
}

func (t *tx) Set(path string, data map[string]any) {
	t.ops = append(t.ops, op{kind: opSet, path: path, data: cloneMap(data)})
}

func (t *tx) Update(path string, fields map[string]any) {
	t.ops = append(t.ops, op{kind: opUpdate, path: path, data: cloneMap(fields)})
}

func (t *tx) Delete(path string) {
	t.ops = append(t.ops, op{kind: opDelete, path: path})
}

func cloneMap(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func equal(a, b any) bool {
	return compare(a, b) == 0
}

// compare orders the JSON scalar types that indexed fields use. Mixed types
// never compare equal.
func compare(a, b any) int {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return -1
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case float64:
		bv, ok := toFloat(b)
		if !ok {
			return -1
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case bool:
		bv, ok := b.(bool)
		if !ok || av != bv {
			return -1
		}
		return 0
	case nil:
		if b == nil {
			return 0
		}
		return -1
	default:
		return -1
	}
}

func toFloat(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	default:
		return 0, false
	}
}
