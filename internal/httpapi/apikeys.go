package httpapi

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// APIKey lets a machine client act as an existing user, for example a job
// feed importer posting on behalf of an employer account.
type APIKey struct {
	ID     string `yaml:"id"`
	Key    string `yaml:"key"`
	UserID string `yaml:"user_id"`
}

type APIKeyStore struct {
	byKey map[string]*APIKey
}

func LoadAPIKeys(path string) (*APIKeyStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read api keys file: %w", err)
	}

	var entries []APIKey
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse api keys file: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("api keys file is empty")
	}

	store := &APIKeyStore{byKey: make(map[string]*APIKey, len(entries))}
	for i := range entries {
		entry := entries[i]
		entry.ID = strings.TrimSpace(entry.ID)
		entry.Key = strings.TrimSpace(entry.Key)
		entry.UserID = strings.TrimSpace(entry.UserID)
		if entry.ID == "" {
			return nil, fmt.Errorf("api key at index %d has empty id", i)
		}
		if entry.Key == "" {
			return nil, fmt.Errorf("api key %q has empty key", entry.ID)
		}
		if entry.UserID == "" {
			return nil, fmt.Errorf("api key %q is not bound to a user", entry.ID)
		}
		if _, exists := store.byKey[entry.Key]; exists {
			return nil, fmt.Errorf("duplicate api key value for id %q", entry.ID)
		}
		entries[i] = entry
		store.byKey[entry.Key] = &entries[i]
	}

	return store, nil
}

func (s *APIKeyStore) Lookup(key string) (*APIKey, bool) {
	if s == nil {
		return nil, false
	}
	k, ok := s.byKey[key]
	return k, ok
}
