// Package category implements the closed registry of symbolic categories
// and the longest-match token scanner shared by the query tokenizer and
// the sidecar grammar.
package category

import (
	"errors"
	"fmt"

	"github.com/coregx/ahocorasick"
)

// ErrUnknownCategory is returned when a symbolic key is not registered.
var ErrUnknownCategory = errors.New("unknown category")

// ErrRegistryFinalized is returned when registering after Finalize.
var ErrRegistryFinalized = errors.New("category registry is finalized")

// UnknownCategoryError carries the offending key.
//
// The sentinel can be matched via errors.Is(err, ErrUnknownCategory).
type UnknownCategoryError struct {
	Key string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Key)
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }

// Info describes one registered category.
type Info struct {
	Key   string
	Label string
	Index int
}

// Registry assigns each symbolic category key a stable small integer index.
// Index assignment follows registration order and is fixed once finalized;
// the set of categories is closed at load time.
//
// A finalized Registry is safe for concurrent readers.
type Registry struct {
	keys      []string
	labels    []string
	byKey     map[string]int
	ac        *ahocorasick.Automaton
	finalized bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]int)}
}

// Register adds key with a human-readable label and returns its index.
// Registering an existing key is idempotent and returns the original index
// (the label is not overwritten).
func (r *Registry) Register(key, label string) (int, error) {
	if key == "" {
		return 0, fmt.Errorf("empty category key")
	}
	if idx, ok := r.byKey[key]; ok {
		return idx, nil
	}
	if r.finalized {
		return 0, ErrRegistryFinalized
	}
	idx := len(r.keys)
	r.keys = append(r.keys, key)
	r.labels = append(r.labels, label)
	r.byKey[key] = idx
	return idx, nil
}

// Resolve returns the index of key.
func (r *Registry) Resolve(key string) (int, error) {
	idx, ok := r.byKey[key]
	if !ok {
		return 0, &UnknownCategoryError{Key: key}
	}
	return idx, nil
}

// Key returns the key at index idx.
func (r *Registry) Key(idx int) string { return r.keys[idx] }

// Label returns the label at index idx.
func (r *Registry) Label(idx int) string { return r.labels[idx] }

// Len returns the number of registered categories.
func (r *Registry) Len() int { return len(r.keys) }

// Keys returns all keys in index order. The returned slice must not be
// mutated.
func (r *Registry) Keys() []string { return r.keys }

// Infos returns a snapshot of all registered categories in index order.
func (r *Registry) Infos() []Info {
	infos := make([]Info, len(r.keys))
	for i, k := range r.keys {
		infos[i] = Info{Key: k, Label: r.labels[i], Index: i}
	}
	return infos
}

// Finalize closes the registry and compiles the token scanner. After
// Finalize, Register fails for new keys and Scan becomes available.
func (r *Registry) Finalize() error {
	if r.finalized {
		return nil
	}
	r.finalized = true
	if len(r.keys) == 0 {
		return nil
	}
	// Standard match kind: FindAllOverlapping must report every occurrence
	// so the scanner can pick the longest key anchored at each position.
	ac, err := ahocorasick.NewBuilder().
		AddStrings(r.keys).
		Build()
	if err != nil {
		return fmt.Errorf("compile category scanner: %w", err)
	}
	r.ac = ac
	return nil
}

// Finalized reports whether the registry has been finalized.
func (r *Registry) Finalized() bool { return r.finalized }
