package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/sakif/hardship-board/internal/model"
	"github.com/sakif/hardship-board/internal/repository"
	"github.com/sakif/hardship-board/internal/repository/repotest"
)

// newTestDB opens a fresh in-memory database that is closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDBContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.HardshipRepository {
		return newTestDB(t)
	})
}

func TestDB_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")
	ctx := context.Background()

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h := repotest.Sample(4, "family")
	if err := db.Insert(ctx, &h); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	edited := h.CreatedAt.Add(90 * time.Minute)
	want, err := db.Update(ctx, h.ID, func(r *model.Hardship) error {
		r.Comments = append(r.Comments, model.Comment{ID: 11, Text: "thinking of you", CreatedAt: edited})
		r.ToggleLike(2)
		r.ToggleLike(9)
		r.LastEdited = &edited
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	db.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	all, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("List() returned %d, want 1", len(all))
	}
	if diff := cmp.Diff(*want, all[0], cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("record after reopen (-want +got):\n%s", diff)
	}
}

func TestDB_DeleteCascadesChildren(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	h := repotest.Sample(1, "work")
	h.Comments = []model.Comment{{ID: 1, Text: "c", CreatedAt: h.CreatedAt}}
	h.LikedBy = []int64{1}
	if err := db.Insert(ctx, &h); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := db.Delete(ctx, h.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var comments, likes int
	_ = db.conn.QueryRow(`SELECT COUNT(*) FROM hardship_comments`).Scan(&comments)
	_ = db.conn.QueryRow(`SELECT COUNT(*) FROM hardship_likes`).Scan(&likes)
	if comments != 0 || likes != 0 {
		t.Errorf("orphaned rows: comments=%d likes=%d", comments, likes)
	}
}

func TestDB_MigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(); err != nil {
		t.Errorf("second migrate() error = %v", err)
	}
}
