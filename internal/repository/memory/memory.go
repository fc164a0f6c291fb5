// Package memory implements repository.HardshipRepository in process memory.
//
// This is the server's default store. State lives exactly as long as the
// process does; nothing is written anywhere. Records are kept in insertion
// order so GET /api/hardships lists them the way they were posted.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/sakif/hardship-board/internal/apperror"
	"github.com/sakif/hardship-board/internal/idgen"
	"github.com/sakif/hardship-board/internal/model"
	"github.com/sakif/hardship-board/internal/repository"
)

var _ repository.HardshipRepository = (*Store)(nil)

// Store is safe for concurrent use. Each method holds the lock for its whole
// duration, so every operation is applied as a single step.
type Store struct {
	mu      sync.RWMutex
	records []model.Hardship
	ids     idgen.Generator
}

// New returns an empty store with sequential ids starting at 1.
func New() *Store {
	return &Store{ids: idgen.NewSequence()}
}

func (s *Store) List(_ context.Context) ([]model.Hardship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneAll(s.records), nil
}

func (s *Store) Insert(_ context.Context, h *model.Hardship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h.ID = s.ids.Next()
	h.Normalize()
	s.records = append(s.records, h.Clone())
	return nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*model.Hardship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, apperror.NotFound("hardship", id)
	}
	h := s.records[i].Clone()
	return &h, nil
}

func (s *Store) Update(_ context.Context, id int64, mutate repository.MutateFunc) (*model.Hardship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, apperror.NotFound("hardship", id)
	}

	working := s.records[i].Clone()
	if err := mutate(&working); err != nil {
		return nil, err
	}
	working.ID = id // ids are immutable whatever mutate did
	working.Normalize()
	s.records[i] = working

	out := working.Clone()
	return &out, nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return apperror.NotFound("hardship", id)
	}
	s.records = slices.Delete(s.records, i, i+1)
	return nil
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.records, func(h model.Hardship) bool { return h.ID == id })
}
