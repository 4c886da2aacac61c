package engine

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
)

var varPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Store is the mutable variable namespace a sequence run reads and writes.
// It is never shared by reference across concurrent groups: scope-entering
// handlers (try/catch, parallel) work on a Copy and Merge it back.
type Store struct {
	values map[string]any
}

func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

// NewStoreFrom seeds a store with initial variables, e.g. from an HTTP
// trigger body.
func NewStoreFrom(initial map[string]any) *Store {
	s := NewStore()
	for k, v := range initial {
		s.values[k] = v
	}
	return s
}

func (s *Store) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

func (s *Store) Set(name string, value any) {
	s.values[name] = value
}

func (s *Store) Len() int {
	return len(s.values)
}

// Copy returns an independent copy: container values (lists, maps) are
// cloned all the way down so a scope copy and its parent never alias the
// same map or slice. Parallel groups mutate their copies concurrently.
func (s *Store) Copy() *Store {
	dst := make(map[string]any, len(s.values))
	for k, v := range s.values {
		dst[k] = cloneValue(v)
	}
	return &Store{values: dst}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = cloneValue(e)
		}
		return l
	case []string:
		return slices.Clone(t)
	case []Match:
		return slices.Clone(t)
	default:
		return v
	}
}

// Merge overwrites this store's entries with every entry from src,
// whole-key, last writer wins.
func (s *Store) Merge(src *Store) {
	if src == nil {
		return
	}
	for k, v := range src.values {
		s.values[k] = v
	}
}

// All exposes the live value map for expression environments. Callers must
// not retain it across scope boundaries.
func (s *Store) All() map[string]any {
	return s.values
}

// Expand rewrites ${name} tokens with the string form of the bound value.
// Unresolved tokens are left verbatim, never an error.
func (s *Store) Expand(text string) string {
	if text == "" {
		return text
	}
	return varPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := token[2 : len(token)-1]
		if v, ok := s.values[name]; ok {
			return FormatValue(v)
		}
		return token
	})
}

// FormatValue renders a variable value the way substitution and logging
// print it.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// ParseNumber applies the engine's number semantic: parse to float, demote
// to int when the value has no fractional part.
func ParseNumber(text string) (any, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", text)
	}
	if f == float64(int(f)) {
		return int(f), nil
	}
	return f, nil
}
