// Package pipeline is the Read Pipeline: filter → sort → paginate.
//
// Run is a pure function. Both the HTTP feed and the client board call it
// with the store's full record list and get back the page to display. It
// never mutates its input, and identical inputs always give identical pages.
package pipeline

import (
	"slices"
	"strings"

	"github.com/sakif/hardship-board/internal/model"
)

const (
	// DefaultVisible is how many records a fresh view shows.
	DefaultVisible = 6
	// PageStep is how many more records "load more" reveals.
	PageStep = 6

	// AllCategories disables the category filter.
	AllCategories = "all"
)

// SortMode picks exactly one ordering. The zero value keeps the store's order.
type SortMode string

const (
	SortNone         SortMode = ""
	SortMostLiked    SortMode = "most-liked"
	SortNewest       SortMode = "newest"
	SortOldest       SortMode = "oldest"
	SortMostComments SortMode = "most-comments"
)

// SortModes lists the selectable modes in display order.
var SortModes = []SortMode{SortMostLiked, SortNewest, SortOldest, SortMostComments}

// ParseSortMode maps user input to a SortMode. Anything unrecognised is
// SortNone, which leaves the order untouched.
func ParseSortMode(s string) SortMode {
	m := SortMode(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortModes, m) {
		return m
	}
	return SortNone
}

// Query is the complete view state.
type Query struct {
	Category  string   // "all" or "" keeps everything
	Sort      SortMode // SortNone keeps identity order
	OwnerOnly bool     // "My Submissions"
	ViewerID  int64    // compared against UserID when OwnerOnly is set
	Visible   int      // <= 0 means DefaultVisible
}

// Page is what the renderer displays.
type Page struct {
	Items   []model.Hardship `json:"items"`
	HasMore bool             `json:"hasMore"`
	Total   int              `json:"total"`   // matching records before pagination
	Visible int              `json:"visible"` // effective visible count
}

// NextVisible is the visible count after one "load more".
func NextVisible(visible int) int {
	if visible <= 0 {
		visible = DefaultVisible
	}
	return visible + PageStep
}

// Run applies the query to records.
func Run(records []model.Hardship, q Query) Page {
	matched := make([]model.Hardship, 0, len(records))
	for _, h := range records {
		if !matchesCategory(h, q.Category) {
			continue
		}
		if q.OwnerOnly && h.UserID != q.ViewerID {
			continue
		}
		matched = append(matched, h.Clone())
	}

	if cmp := comparator(q.Sort); cmp != nil {
		slices.SortStableFunc(matched, cmp)
	}

	visible := q.Visible
	if visible <= 0 {
		visible = DefaultVisible
	}

	items := matched
	if visible < len(items) {
		items = items[:visible:visible]
	}

	return Page{
		Items:   items,
		HasMore: visible < len(matched),
		Total:   len(matched),
		Visible: visible,
	}
}

func matchesCategory(h model.Hardship, category string) bool {
	if category == "" || category == AllCategories {
		return true
	}
	return h.Category == category
}

// comparator returns the ordering for mode, or nil to keep identity order.
// Every comparator returns 0 on ties so SortStableFunc keeps prior order.
func comparator(mode SortMode) func(a, b model.Hardship) int {
	switch mode {
	case SortMostLiked:
		return func(a, b model.Hardship) int { return b.Likes() - a.Likes() }
	case SortNewest:
		return func(a, b model.Hardship) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortOldest:
		return func(a, b model.Hardship) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortMostComments:
		return func(a, b model.Hardship) int { return len(b.Comments) - len(a.Comments) }
	}
	return nil
}
