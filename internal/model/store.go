package model

import (
	"sort"
	"strings"
	"sync"
)

// Store maps "{label}_{section}" keys to parsed datasets. It is filled by
// the parser and only read afterwards; column lookups are cached.
type Store struct {
	mu      sync.RWMutex
	data    map[string]*Dataset
	lookups map[string]lookup
}

type lookup struct {
	column string
	ok     bool
}

func NewStore() *Store {
	return &Store{
		data:    make(map[string]*Dataset),
		lookups: make(map[string]lookup),
	}
}

// Put stores d under its key, replacing any earlier dataset for the key.
func (s *Store) Put(d *Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := d.Key()
	s.data[key] = d
	for k := range s.lookups {
		if strings.HasPrefix(k, key+"\x00") {
			delete(s.lookups, k)
		}
	}
}

// Get returns the dataset stored under key.
func (s *Store) Get(key string) (*Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data[key]
	return d, ok
}

// Dataset returns the dataset of a label's section.
func (s *Store) Dataset(label string, section Section) (*Dataset, bool) {
	return s.Get(Key(label, section))
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Merge copies every dataset of other into s.
func (s *Store) Merge(other *Store) {
	for _, k := range other.Keys() {
		if d, ok := other.Get(k); ok {
			s.Put(d)
		}
	}
}

// FindColumn returns the first column of the dataset under key whose name
// contains one of the candidates, ignoring case. Candidates are tried in
// order, each against all columns in header order. A missing key or no
// match yields ok == false.
func (s *Store) FindColumn(key string, candidates ...string) (string, bool) {
	ck := key + "\x00" + strings.Join(candidates, "\x00")

	s.mu.RLock()
	l, cached := s.lookups[ck]
	d, exists := s.data[key]
	s.mu.RUnlock()

	if cached {
		return l.column, l.ok
	}
	if !exists {
		return "", false
	}

	l.column, l.ok = matchColumn(d.Columns, candidates)

	s.mu.Lock()
	if s.data[key] == d {
		s.lookups[ck] = l
	}
	s.mu.Unlock()

	return l.column, l.ok
}

func matchColumn(columns, candidates []string) (string, bool) {
	for _, cand := range candidates {
		cand = strings.ToLower(cand)
		if cand == "" {
			continue
		}
		for _, c := range columns {
			if c != "" && strings.Contains(strings.ToLower(c), cand) {
				return c, true
			}
		}
	}
	return "", false
}
