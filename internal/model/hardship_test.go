package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestToggleLike_RoundTrip(t *testing.T) {
	h := Hardship{ID: 1}

	if liked := h.ToggleLike(5); !liked {
		t.Fatal("first ToggleLike() should report liked")
	}
	if h.Likes() != 1 || !h.IsLikedBy(5) {
		t.Fatalf("after like: likes=%d liked=%v", h.Likes(), h.IsLikedBy(5))
	}

	if liked := h.ToggleLike(5); liked {
		t.Fatal("second ToggleLike() should report unliked")
	}
	if h.Likes() != 0 || h.IsLikedBy(5) {
		t.Errorf("after unlike: likes=%d liked=%v", h.Likes(), h.IsLikedBy(5))
	}
}

func TestToggleLike_PerViewer(t *testing.T) {
	h := Hardship{ID: 1}

	h.ToggleLike(3)
	h.ToggleLike(1)
	h.ToggleLike(2)

	if diff := cmp.Diff([]int64{1, 2, 3}, h.LikedBy); diff != "" {
		t.Errorf("LikedBy mismatch (-want +got):\n%s", diff)
	}

	// One viewer un-liking leaves the others alone and never goes negative.
	h.ToggleLike(2)
	h.ToggleLike(9) // like
	h.ToggleLike(9) // unlike
	if h.Likes() != 2 {
		t.Errorf("Likes() = %d, want 2", h.Likes())
	}
	if !h.IsLikedBy(1) || !h.IsLikedBy(3) || h.IsLikedBy(2) {
		t.Errorf("unexpected like set %v", h.LikedBy)
	}
}

func TestClone_IsDeep(t *testing.T) {
	edited := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	orig := Hardship{
		ID:         1,
		Comments:   []Comment{{ID: 1, Text: "hang in there"}},
		LikedBy:    []int64{4},
		LastEdited: &edited,
	}

	c := orig.Clone()
	c.Comments[0].Text = "changed"
	c.LikedBy[0] = 99
	*c.LastEdited = edited.Add(time.Hour)

	if orig.Comments[0].Text != "hang in there" {
		t.Error("Clone() shares the Comments backing array")
	}
	if orig.LikedBy[0] != 4 {
		t.Error("Clone() shares the LikedBy backing array")
	}
	if !orig.LastEdited.Equal(edited) {
		t.Error("Clone() shares the LastEdited pointer")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	edited := created.Add(48 * time.Hour)
	orig := []Hardship{
		{
			ID: 1700000000001, UserID: 1, Text: "lost my job", Category: "work",
			Comments: []Comment{
				{ID: 1700000000100, Text: "sorry to hear", CreatedAt: created.Add(time.Minute)},
				{ID: 1700000000200, Text: "you got this", CreatedAt: created.Add(2 * time.Minute)},
			},
			LikedBy:    []int64{1, 2},
			CreatedAt:  created,
			LastEdited: &edited,
		},
		{ID: 1700000000002, UserID: 2, Text: "flu", Category: "health", CreatedAt: created},
	}

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got []Hardship
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if diff := cmp.Diff(orig, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if got[1].LastEdited != nil {
		t.Error("absent lastEdited should decode as nil")
	}
}

func TestNewView(t *testing.T) {
	h := Hardship{ID: 3, UserID: 2, Text: "t", Category: "work", LikedBy: []int64{1, 7}}

	v := NewView(h, 7)
	if v.Likes != 2 || !v.IsLiked {
		t.Errorf("view for liker: likes=%d isLiked=%v", v.Likes, v.IsLiked)
	}
	if v.Comments == nil {
		t.Error("view Comments should be an empty slice, not nil")
	}

	v = NewView(h, 8)
	if v.IsLiked {
		t.Error("view for non-liker should have isLiked=false")
	}
}

func TestCategoriesContains(t *testing.T) {
	cs := Categories(DefaultCategories)

	if !cs.Contains("health") {
		t.Error("Contains(health) = false, want true")
	}
	if cs.Contains("Health") || cs.Contains("") {
		t.Error("Contains() must be exact and reject empty")
	}
}
