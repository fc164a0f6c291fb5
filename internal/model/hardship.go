// Package model defines the data structures used throughout the board.
//
// A Hardship is the only entity. Comments live inside it and are never
// referenced anywhere else. Likes are stored as the SET of viewer ids that
// liked the record, so the like count can never go negative and "did I like
// this?" is answered per viewer instead of by one global flag.
//
// The `json:"..."` tags define both the HTTP wire format and the persisted
// client-board format, so changing a tag changes what old snapshots decode to.
package model

import (
	"slices"
	"time"
)

// Hardship is a single board entry.
//
// LastEdited is a pointer so "never edited" serializes as null and survives a
// JSON round trip unchanged; a zero time.Time would not.
type Hardship struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"userId"`
	Text       string     `json:"text"`
	Category   string     `json:"category"`
	Comments   []Comment  `json:"comments"`
	LikedBy    []int64    `json:"likedBy"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastEdited *time.Time `json:"lastEdited"`
}

// Comment is owned exclusively by its parent Hardship.
type Comment struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Likes is the aggregate like count.
func (h *Hardship) Likes() int {
	return len(h.LikedBy)
}

// IsLikedBy reports whether viewerID is in the like set.
func (h *Hardship) IsLikedBy(viewerID int64) bool {
	_, found := slices.BinarySearch(h.LikedBy, viewerID)
	return found
}

// ToggleLike flips viewerID's membership in the like set and reports whether
// the viewer now likes the record. LikedBy stays sorted and duplicate-free.
func (h *Hardship) ToggleLike(viewerID int64) bool {
	i, found := slices.BinarySearch(h.LikedBy, viewerID)
	if found {
		h.LikedBy = slices.Delete(h.LikedBy, i, i+1)
		return false
	}
	h.LikedBy = slices.Insert(h.LikedBy, i, viewerID)
	return true
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate stored state by holding on to a returned record.
func (h Hardship) Clone() Hardship {
	c := h
	c.Comments = make([]Comment, len(h.Comments))
	copy(c.Comments, h.Comments)
	c.LikedBy = make([]int64, len(h.LikedBy))
	copy(c.LikedBy, h.LikedBy)
	if h.LastEdited != nil {
		t := *h.LastEdited
		c.LastEdited = &t
	}
	return c
}

// Normalize replaces nil slices with empty ones so a record always encodes
// "comments": [] and "likedBy": [] rather than null.
func (h *Hardship) Normalize() {
	if h.Comments == nil {
		h.Comments = []Comment{}
	}
	if h.LikedBy == nil {
		h.LikedBy = []int64{}
	}
}

// CloneAll deep-copies a slice of records.
func CloneAll(in []Hardship) []Hardship {
	out := make([]Hardship, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
