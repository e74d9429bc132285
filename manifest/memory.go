package manifest

import (
	"bytes"
	"sync"
)

// MemoryStore keeps encoded records in memory. It is safe for concurrent
// use.
type MemoryStore struct {
	mu    sync.RWMutex
	rules map[string][]byte
	defs  map[string][]byte
}

// NewMemoryStore returns empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules: make(map[string][]byte),
		defs:  make(map[string][]byte),
	}
}

func (s *MemoryStore) Commit(rules []*Rule, defs []*Def) error {
	encRules, encDefs, err := encodeBatch(rules, defs)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, data := range encRules {
		if old, ok := s.rules[key]; ok && !bytes.Equal(old, data) {
			return &ConflictError{Key: key}
		}
	}
	for id, data := range encDefs {
		if old, ok := s.defs[id]; ok && !bytes.Equal(old, data) {
			return &ConflictError{Key: id}
		}
	}
	for key, data := range encRules {
		s.rules[key] = data
	}
	for id, data := range encDefs {
		s.defs[id] = data
	}
	return nil
}

func (s *MemoryStore) Rule(key string) (*Rule, bool, error) {
	s.mu.RLock()
	data, ok := s.rules[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	r, err := DecodeRule(data)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

func (s *MemoryStore) Def(kind Kind, key string) (*Def, bool, error) {
	s.mu.RLock()
	data, ok := s.defs[(&Def{Kind: kind, Key: key}).ID()]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	d, err := DecodeDef(data)
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}

func (s *MemoryStore) Rules() ([]*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Rule, 0, len(s.rules))
	for _, data := range s.rules {
		r, err := DecodeRule(data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sortRules(out)
	return out, nil
}

func (s *MemoryStore) Defs() ([]*Def, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Def, 0, len(s.defs))
	for _, data := range s.defs {
		d, err := DecodeDef(data)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	sortDefs(out)
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// encodeBatch encodes records and checks the batch is consistent with
// itself.
func encodeBatch(rules []*Rule, defs []*Def) (map[string][]byte, map[string][]byte, error) {
	encRules := make(map[string][]byte, len(rules))
	for _, r := range rules {
		data, err := EncodeRule(r)
		if err != nil {
			return nil, nil, err
		}
		if old, ok := encRules[r.Key]; ok && !bytes.Equal(old, data) {
			return nil, nil, &ConflictError{Key: r.Key}
		}
		encRules[r.Key] = data
	}
	encDefs := make(map[string][]byte, len(defs))
	for _, d := range defs {
		data, err := EncodeDef(d)
		if err != nil {
			return nil, nil, err
		}
		if old, ok := encDefs[d.ID()]; ok && !bytes.Equal(old, data) {
			return nil, nil, &ConflictError{Key: d.ID()}
		}
		encDefs[d.ID()] = data
	}
	return encRules, encDefs, nil
}
