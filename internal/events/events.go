// Package events publishes board activity (posts, likes, comments, edits and
// deletes) to whoever wants to observe it.
//
// Publishing is fire-and-forget from the caller's point of view: the service
// logs a failed Publish and carries on, so a broken sink can never fail a
// mutation that already committed.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Type names one kind of activity.
type Type string

const (
	HardshipCreated   Type = "hardship.created"
	HardshipCommented Type = "hardship.commented"
	HardshipLiked     Type = "hardship.liked"
	HardshipUnliked   Type = "hardship.unliked"
	HardshipEdited    Type = "hardship.edited"
	HardshipDeleted   Type = "hardship.deleted"
)

// Event is one thing that happened to one hardship.
type Event struct {
	Type       Type      `json:"type"`
	HardshipID int64     `json:"hardshipId"`
	UserID     int64     `json:"userId,omitempty"` // actor, when known
	At         time.Time `json:"at"`
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// LogPublisher writes every event to a slog.Logger. It is the default sink.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.InfoContext(ctx, "activity",
		slog.String("type", string(e.Type)),
		slog.Int64("hardship_id", e.HardshipID),
		slog.Int64("user_id", e.UserID),
		slog.Time("at", e.At),
	)
	return nil
}

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error // returned from every Publish when set
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns just the event types, in publish order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
