// Package repotest holds the behavioural test suite every
// repository.HardshipRepository backend must pass. Backends call Run from
// their own _test.go files with a constructor for a fresh, empty store.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/sakif/hardship-board/internal/apperror"
	"github.com/sakif/hardship-board/internal/model"
	"github.com/sakif/hardship-board/internal/repository"
)

// Run executes the suite. newRepo must return an empty store each call.
func Run(t *testing.T, newRepo func(t *testing.T) repository.HardshipRepository) {
	t.Helper()

	t.Run("insert assigns id and persists", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		h := Sample(1, "work")
		if err := repo.Insert(ctx, &h); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if h.ID == 0 {
			t.Fatal("Insert() did not assign an id")
		}

		got, err := repo.GetByID(ctx, h.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if diff := cmp.Diff(h, *got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("stored record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ids are unique and never reused", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a, b := Sample(1, "work"), Sample(1, "health")
		mustInsert(t, repo, &a)
		mustInsert(t, repo, &b)
		if a.ID == b.ID {
			t.Fatalf("duplicate ids %d", a.ID)
		}

		if err := repo.Delete(ctx, b.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		c := Sample(1, "family")
		mustInsert(t, repo, &c)
		if c.ID == b.ID || c.ID == a.ID {
			t.Errorf("id %d was reused after delete", c.ID)
		}
	})

	t.Run("list returns every record", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		empty, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(empty) != 0 {
			t.Fatalf("List() on empty store = %d records", len(empty))
		}

		for _, c := range []string{"work", "health", "family"} {
			h := Sample(1, c)
			mustInsert(t, repo, &h)
		}
		all, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(all) != 3 {
			t.Errorf("List() returned %d, want 3", len(all))
		}
	})

	t.Run("reads are copies", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		h := Sample(1, "work")
		mustInsert(t, repo, &h)

		got, _ := repo.GetByID(ctx, h.ID)
		got.Text = "tampered"
		got.LikedBy = append(got.LikedBy, 42)

		again, _ := repo.GetByID(ctx, h.ID)
		if again.Text != h.Text || len(again.LikedBy) != 0 {
			t.Error("mutating a returned record changed the store")
		}
	})

	t.Run("update commits mutation", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		h := Sample(1, "work")
		mustInsert(t, repo, &h)
		edited := h.CreatedAt.Add(time.Hour)

		updated, err := repo.Update(ctx, h.ID, func(r *model.Hardship) error {
			r.Text = "updated"
			r.Comments = append(r.Comments, model.Comment{ID: 7, Text: "hi", CreatedAt: edited})
			r.ToggleLike(3)
			r.LastEdited = &edited
			return nil
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		got, _ := repo.GetByID(ctx, h.ID)
		if diff := cmp.Diff(*updated, *got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("returned vs stored mismatch (-want +got):\n%s", diff)
		}
		if got.Text != "updated" || len(got.Comments) != 1 || !got.IsLikedBy(3) {
			t.Errorf("update not persisted: %+v", got)
		}
		if got.LastEdited == nil || !got.LastEdited.Equal(edited) {
			t.Errorf("LastEdited = %v, want %v", got.LastEdited, edited)
		}
	})

	t.Run("update keeps comment order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		h := Sample(1, "work")
		mustInsert(t, repo, &h)
		for i, text := range []string{"first", "second", "third"} {
			_, err := repo.Update(ctx, h.ID, func(r *model.Hardship) error {
				r.Comments = append(r.Comments, model.Comment{
					ID: int64(100 - i), Text: text, CreatedAt: h.CreatedAt,
				})
				return nil
			})
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
		}

		got, _ := repo.GetByID(ctx, h.ID)
		var texts []string
		for _, c := range got.Comments {
			texts = append(texts, c.Text)
		}
		if diff := cmp.Diff([]string{"first", "second", "third"}, texts); diff != "" {
			t.Errorf("comment order (-want +got):\n%s", diff)
		}
	})

	t.Run("failed mutation leaves store untouched", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		h := Sample(1, "work")
		mustInsert(t, repo, &h)
		boom := apperror.ValidationFailed("text", "nope")

		_, err := repo.Update(ctx, h.ID, func(r *model.Hardship) error {
			r.Text = "half-applied"
			r.ToggleLike(1)
			return boom
		})
		if !errors.Is(err, apperror.ErrValidation) {
			t.Fatalf("Update() error = %v, want the mutate error", err)
		}

		got, _ := repo.GetByID(ctx, h.ID)
		if got.Text != h.Text || got.Likes() != 0 {
			t.Errorf("store changed after aborted update: %+v", got)
		}
	})

	t.Run("unknown id is NotFound", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		if _, err := repo.GetByID(ctx, 999); !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("GetByID() error = %v, want ErrNotFound", err)
		}
		_, err := repo.Update(ctx, 999, func(*model.Hardship) error { return nil })
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
		if err := repo.Delete(ctx, 999); !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("Delete() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete removes", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		h := Sample(1, "work")
		mustInsert(t, repo, &h)
		if err := repo.Delete(ctx, h.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := repo.GetByID(ctx, h.ID); !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
		}
		if err := repo.Delete(ctx, h.ID); !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("second Delete() error = %v, want ErrNotFound", err)
		}
	})
}

// Sample builds an unsaved record with second-precision UTC timestamps,
// which every backend stores losslessly.
func Sample(userID int64, category string) model.Hardship {
	return model.Hardship{
		UserID:    userID,
		Text:      "hardship in " + category,
		Category:  category,
		Comments:  []model.Comment{},
		LikedBy:   []int64{},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func mustInsert(t *testing.T, repo repository.HardshipRepository, h *model.Hardship) {
	t.Helper()
	if err := repo.Insert(context.Background(), h); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
}
