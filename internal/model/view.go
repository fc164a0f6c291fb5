package model

import "time"

// HardshipView is what a particular viewer sees: the record minus the raw
// like set, plus the derived like count and that viewer's own like state.
// This is the shape every HTTP endpoint returns.
type HardshipView struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"userId"`
	Text       string     `json:"text"`
	Category   string     `json:"category"`
	Comments   []Comment  `json:"comments"`
	Likes      int        `json:"likes"`
	IsLiked    bool       `json:"isLiked"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastEdited *time.Time `json:"lastEdited"`
}

// NewView projects h for viewerID.
func NewView(h Hardship, viewerID int64) HardshipView {
	c := h.Clone()
	c.Normalize()
	return HardshipView{
		ID:         c.ID,
		UserID:     c.UserID,
		Text:       c.Text,
		Category:   c.Category,
		Comments:   c.Comments,
		Likes:      c.Likes(),
		IsLiked:    c.IsLikedBy(viewerID),
		CreatedAt:  c.CreatedAt,
		LastEdited: c.LastEdited,
	}
}

// NewViews projects every record for viewerID, preserving order.
func NewViews(hs []Hardship, viewerID int64) []HardshipView {
	out := make([]HardshipView, 0, len(hs))
	for _, h := range hs {
		out = append(out, NewView(h, viewerID))
	}
	return out
}

// LikeResult is returned by a like toggle.
type LikeResult struct {
	Likes   int  `json:"likes"`
	IsLiked bool `json:"isLiked"`
}
