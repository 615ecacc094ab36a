package host

import (
	"encoding/json"
	"errors"
	"fmt"

	"stellarguard/storage"
)

// Store is a typed key/value view over one durability namespace of a
// contract. Values are encoded as canonical JSON documents.
type Store interface {
	Has(key Key) (bool, error)
	// Get decodes the stored value into out and reports whether the key was
	// present. A missing key leaves out untouched.
	Get(key Key, out any) (bool, error)
	Set(key Key, value any) error
	Remove(key Key) error
}

// Durability selects one of the two storage namespaces a contract owns.
type Durability byte

const (
	// DurabilityInstance holds the small always-present configuration of a
	// contract (owner, counters, membership list).
	DurabilityInstance Durability = 'i'
	// DurabilityPersistent holds per-entity records keyed by ID or address.
	DurabilityPersistent Durability = 'p'
)

type kvStore struct {
	db     storage.Database
	prefix []byte
}

func newKVStore(db storage.Database, contract string, durability Durability) *kvStore {
	prefix := make([]byte, 0, len(contract)+2)
	prefix = append(prefix, contract...)
	prefix = append(prefix, '/', byte(durability))
	return &kvStore{db: db, prefix: prefix}
}

func (s *kvStore) fullKey(key Key) []byte {
	encoded := key.EncodeKey()
	out := make([]byte, 0, len(s.prefix)+len(encoded))
	out = append(out, s.prefix...)
	return append(out, encoded...)
}

func (s *kvStore) Has(key Key) (bool, error) {
	ok, err := s.db.Has(s.fullKey(key))
	if err != nil {
		return false, fmt.Errorf("host: has key: %w", err)
	}
	return ok, nil
}

func (s *kvStore) Get(key Key, out any) (bool, error) {
	raw, err := s.db.Get(s.fullKey(key))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("host: get key: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("host: decode value: %w", err)
	}
	return true, nil
}

func (s *kvStore) Set(key Key, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("host: encode value: %w", err)
	}
	if err := s.db.Put(s.fullKey(key), raw); err != nil {
		return fmt.Errorf("host: put key: %w", err)
	}
	return nil
}

func (s *kvStore) Remove(key Key) error {
	if err := s.db.Delete(s.fullKey(key)); err != nil {
		return fmt.Errorf("host: delete key: %w", err)
	}
	return nil
}
