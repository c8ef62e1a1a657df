// Package memstore keeps documents in process memory. It backs the
// "memory" store for local development and the end-to-end tests.
package memstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/medlab/medlab/pkg/pagination"
)

var ErrNotFound = errors.New("document not found")

// DuplicateError reports a unique index violation.
type DuplicateError struct {
	Index string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate key on %s", e.Index)
}

// IsDuplicate reports whether err is a unique index violation.
func IsDuplicate(err error) bool {
	var d *DuplicateError
	return errors.As(err, &d)
}

// Unique names a unique index and the key it extracts from a document.
// Documents whose key is empty are not indexed.
type Unique[T any] struct {
	Name string
	Key  func(*T) string
}

// Table holds documents of type T. Documents are stored encoded, so callers
// never share memory with the table.
type Table[T any] struct {
	mu      sync.RWMutex
	docs    map[string][]byte
	order   []string
	id      func(*T) string
	uniques []Unique[T]
}

func NewTable[T any](id func(*T) string, uniques ...Unique[T]) *Table[T] {
	return &Table[T]{
		docs:    make(map[string][]byte),
		id:      id,
		uniques: uniques,
	}
}

func (t *Table[T]) Insert(doc *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.id(doc)
	if _, ok := t.docs[id]; ok {
		return &DuplicateError{Index: "id"}
	}
	if err := t.checkUnique(id, doc); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	t.docs[id] = data
	t.order = append(t.order, id)
	return nil
}

// Replace overwrites the whole document with the given id.
func (t *Table[T]) Replace(id string, doc *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.docs[id]; !ok {
		return ErrNotFound
	}
	if err := t.checkUnique(id, doc); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	t.docs[id] = data
	return nil
}

func (t *Table[T]) Get(id string) (*T, error) {
	t.mu.RLock()
	data, ok := t.docs[id]
	t.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode[T](data)
}

func (t *Table[T]) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.docs[id]; !ok {
		return ErrNotFound
	}
	delete(t.docs, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// FindOne returns the first document, in insertion order, that match accepts.
func (t *Table[T]) FindOne(match func(*T) bool) (*T, error) {
	all, err := t.snapshot()
	if err != nil {
		return nil, err
	}
	for _, doc := range all {
		if match(doc) {
			return doc, nil
		}
	}
	return nil, ErrNotFound
}

// Find returns one page of matching documents, ordered by less (insertion
// order when nil), and the total match count. A nil match accepts every
// document; a non-positive limit returns the rest of the matches.
func (t *Table[T]) Find(match func(*T) bool, less func(a, b *T) bool, limit, offset int) ([]*T, int, error) {
	all, err := t.snapshot()
	if err != nil {
		return nil, 0, err
	}
	var out []*T
	for _, doc := range all {
		if match == nil || match(doc) {
			out = append(out, doc)
		}
	}
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	total := len(out)
	start, end := pagination.Params{Limit: limit, Offset: offset}.Window(total)
	return out[start:end], total, nil
}

func (t *Table[T]) snapshot() ([]*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*T, 0, len(t.order))
	for _, id := range t.order {
		doc, err := decode[T](t.docs[id])
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// checkUnique must be called with the write lock held.
func (t *Table[T]) checkUnique(id string, doc *T) error {
	for _, u := range t.uniques {
		key := u.Key(doc)
		if key == "" {
			continue
		}
		for otherID, data := range t.docs {
			if otherID == id {
				continue
			}
			other, err := decode[T](data)
			if err != nil {
				return err
			}
			if u.Key(other) == key {
				return &DuplicateError{Index: u.Name}
			}
		}
	}
	return nil
}

func decode[T any](data []byte) (*T, error) {
	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
