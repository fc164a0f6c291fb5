// Package kvstore implements repository.HardshipRepository on top of a
// single key in a kv.Store.
//
// This is the client-side Record Store: the whole list is one JSON array
// under one key (default "hardships"), the way a browser app keeps its state
// in localStorage. Every operation reads the current value, applies its
// change to a private copy, and writes the full list back before returning.
// Reading per operation means several processes (say, two CLI invocations)
// sharing one Redis key always see each other's writes.
//
// New records are PREPENDED, so the unsorted list reads newest first, the
// same order the client produced.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/sakif/hardship-board/internal/apperror"
	"github.com/sakif/hardship-board/internal/idgen"
	"github.com/sakif/hardship-board/internal/kv"
	"github.com/sakif/hardship-board/internal/model"
	"github.com/sakif/hardship-board/internal/repository"
)

// DefaultKey is the key the client board persists under.
const DefaultKey = "hardships"

var _ repository.HardshipRepository = (*Store)(nil)

type Store struct {
	mu  sync.Mutex
	kv  kv.Store
	key string
	ids idgen.Generator
}

// New returns a Store persisting under key in medium. Ids are time-based and
// always larger than every id already present under the key.
func New(medium kv.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: medium, key: key, ids: idgen.NewMillis()}
}

// NewWithIDs is New with a caller-supplied id generator.
func NewWithIDs(medium kv.Store, key string, ids idgen.Generator) *Store {
	s := New(medium, key)
	s.ids = ids
	return s
}

func (s *Store) List(ctx context.Context) ([]model.Hardship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) Insert(ctx context.Context, h *model.Hardship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}

	h.ID = s.ids.Next()
	h.Normalize()
	all = slices.Insert(all, 0, h.Clone())

	return s.save(ctx, all)
}

func (s *Store) GetByID(ctx context.Context, id int64) (*model.Hardship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(all, id)
	if i < 0 {
		return nil, apperror.NotFound("hardship", id)
	}
	return &all[i], nil
}

func (s *Store) Update(ctx context.Context, id int64, mutate repository.MutateFunc) (*model.Hardship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(all, id)
	if i < 0 {
		return nil, apperror.NotFound("hardship", id)
	}

	working := all[i].Clone()
	if err := mutate(&working); err != nil {
		return nil, err
	}
	working.ID = id
	working.Normalize()
	all[i] = working

	if err := s.save(ctx, all); err != nil {
		return nil, err
	}
	out := working.Clone()
	return &out, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(all, id)
	if i < 0 {
		return apperror.NotFound("hardship", id)
	}
	return s.save(ctx, slices.Delete(all, i, i+1))
}

// load decodes the persisted list. A missing key, or a stored null, is an
// empty board.
func (s *Store) load(ctx context.Context) ([]model.Hardship, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("kvstore: reading %q: %w", s.key, err)
	}
	if !ok || raw == "" || raw == "null" {
		return []model.Hardship{}, nil
	}

	var all []model.Hardship
	if err := json.Unmarshal([]byte(raw), &all); err != nil {
		return nil, fmt.Errorf("kvstore: decoding %q: %w", s.key, err)
	}
	for i := range all {
		all[i].Normalize()
		s.ids.Observe(all[i].ID)
	}
	return all, nil
}

func (s *Store) save(ctx context.Context, all []model.Hardship) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("kvstore: encoding %q: %w", s.key, err)
	}
	if err := s.kv.Set(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("kvstore: writing %q: %w", s.key, err)
	}
	return nil
}

func indexOf(all []model.Hardship, id int64) int {
	return slices.IndexFunc(all, func(h model.Hardship) bool { return h.ID == id })
}
