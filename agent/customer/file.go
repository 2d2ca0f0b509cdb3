// Package customer provides the read-only customer record stores.
package customer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
)

// FileStore serves customer records from a customers.json persona file. The
// whole file is read and validated once at construction.
type FileStore struct {
	byID    map[string]contractx.CustomerRecord
	ordered []contractx.CustomerRecord
}

type personaFile struct {
	Customers []contractx.CustomerRecord `json:"customers"`
}

func NewFileStore(path string) (*FileStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("customer: read %s: %w", path, err)
	}

	var parsed personaFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("customer: parse %s: %w", path, err)
	}
	if len(parsed.Customers) == 0 {
		return nil, fmt.Errorf("customer: %s contains no customers", path)
	}

	store := &FileStore{byID: make(map[string]contractx.CustomerRecord, len(parsed.Customers))}
	for _, rec := range parsed.Customers {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("customer: record %q: %w", rec.ID, err)
		}
		if _, dup := store.byID[rec.ID]; dup {
			return nil, fmt.Errorf("customer: duplicate id %q", rec.ID)
		}
		store.byID[rec.ID] = rec
		store.ordered = append(store.ordered, rec)
	}
	sort.Slice(store.ordered, func(i, j int) bool {
		return store.ordered[i].ID < store.ordered[j].ID
	})
	return store, nil
}

func (s *FileStore) Get(_ context.Context, id string) (contractx.CustomerRecord, error) {
	rec, ok := s.byID[id]
	if !ok {
		return contractx.CustomerRecord{}, fmt.Errorf("%w: %s", contractx.ErrCustomerNotFound, id)
	}
	return rec, nil
}

func (s *FileStore) List(_ context.Context) ([]contractx.CustomerRecord, error) {
	out := make([]contractx.CustomerRecord, len(s.ordered))
	copy(out, s.ordered)
	return out, nil
}
