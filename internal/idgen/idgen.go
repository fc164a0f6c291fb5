// Package idgen hands out integer ids that are never reused.
//
// Two schemes are provided:
//
//   - Sequence: 1, 2, 3, ... like an auto-increment column. Deleting the newest
//     record does NOT make its id available again, unlike "len(list) + 1".
//   - Millis: time-based ids (Unix milliseconds), bumped by one whenever two
//     ids would otherwise collide within the same millisecond or the clock
//     steps backwards.
//
// Both are safe for concurrent use and can be seeded past ids that already
// exist in a restored snapshot.
package idgen

import (
	"sync"
	"time"
)

// Generator produces unique, strictly increasing ids.
type Generator interface {
	Next() int64
	// Observe tells the generator an id is already taken, so every later
	// Next() returns something larger.
	Observe(id int64)
}

// Sequence is a counter starting at 1.
type Sequence struct {
	mu   sync.Mutex
	last int64
}

// NewSequence returns a Sequence whose first id is 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}

func (s *Sequence) Observe(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.last {
		s.last = id
	}
}

// Millis produces time-based ids.
type Millis struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewMillis returns a Millis generator reading the wall clock.
func NewMillis() *Millis {
	return NewMillisWithClock(time.Now)
}

// NewMillisWithClock lets tests pin the clock.
func NewMillisWithClock(now func() time.Time) *Millis {
	return &Millis{now: now}
}

func (m *Millis) Next() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.now().UnixMilli()
	if id <= m.last {
		id = m.last + 1
	}
	m.last = id
	return id
}

func (m *Millis) Observe(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id > m.last {
		m.last = id
	}
}
