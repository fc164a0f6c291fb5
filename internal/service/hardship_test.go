package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sakif/hardship-board/internal/apperror"
	"github.com/sakif/hardship-board/internal/events"
	"github.com/sakif/hardship-board/internal/idgen"
	"github.com/sakif/hardship-board/internal/model"
	"github.com/sakif/hardship-board/internal/pipeline"
	"github.com/sakif/hardship-board/internal/repository"
)

// =========================================================================
// MOCK REPOSITORY
// =========================================================================
//
// mockHardshipRepo implements repository.HardshipRepository with a plain map.
// It follows the same contract as the real stores (copies on read, Update
// commits only when mutate succeeds), so the service behaves exactly as it
// would in production. failNext lets a test simulate a broken store.

type mockHardshipRepo struct {
	records  map[int64]model.Hardship
	order    []int64
	nextID   int64
	failNext error
}

func newMockRepo() *mockHardshipRepo {
	return &mockHardshipRepo{records: make(map[int64]model.Hardship)}
}

func (m *mockHardshipRepo) fail() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *mockHardshipRepo) List(_ context.Context) ([]model.Hardship, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	out := make([]model.Hardship, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id].Clone())
	}
	return out, nil
}

func (m *mockHardshipRepo) Insert(_ context.Context, h *model.Hardship) error {
	if err := m.fail(); err != nil {
		return err
	}
	m.nextID++
	h.ID = m.nextID
	m.records[h.ID] = h.Clone()
	m.order = append(m.order, h.ID)
	return nil
}

func (m *mockHardshipRepo) GetByID(_ context.Context, id int64) (*model.Hardship, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	h, ok := m.records[id]
	if !ok {
		return nil, apperror.NotFound("hardship", id)
	}
	c := h.Clone()
	return &c, nil
}

func (m *mockHardshipRepo) Update(_ context.Context, id int64, mutate repository.MutateFunc) (*model.Hardship, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	h, ok := m.records[id]
	if !ok {
		return nil, apperror.NotFound("hardship", id)
	}
	working := h.Clone()
	if err := mutate(&working); err != nil {
		return nil, err
	}
	m.records[id] = working
	out := working.Clone()
	return &out, nil
}

func (m *mockHardshipRepo) Delete(_ context.Context, id int64) error {
	if err := m.fail(); err != nil {
		return err
	}
	if _, ok := m.records[id]; !ok {
		return apperror.NotFound("hardship", id)
	}
	delete(m.records, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// =========================================================================
// TEST HELPER
// =========================================================================

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	svc    *HardshipService
	repo   *mockHardshipRepo
	clock  *testClock
	events *events.Recorder
}

func newTestService(t *testing.T) fixture {
	t.Helper()
	repo := newMockRepo()
	clock := &testClock{t: fixedNow}
	rec := &events.Recorder{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewHardshipService(repo, logger, Config{
		Now:        clock.Now,
		CommentIDs: idgen.NewMillisWithClock(clock.Now),
		Events:     rec,
	})
	return fixture{svc: svc, repo: repo, clock: clock, events: rec}
}

func mustCreate(t *testing.T, f fixture, userID int64, text, category string) *model.Hardship {
	t.Helper()
	h, err := f.svc.Create(context.Background(), userID, text, category)
	if err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}
	return h
}

func ptr(s string) *string { return &s }

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate_Success(t *testing.T) {
	f := newTestService(t)

	h, err := f.svc.Create(context.Background(), 1, "lost my job", "work")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if h.ID == 0 {
		t.Error("expected an assigned ID")
	}
	view := model.NewView(*h, 1)
	if view.Likes != 0 || view.IsLiked {
		t.Errorf("likes=%d isLiked=%v, want 0/false", view.Likes, view.IsLiked)
	}
	if h.Comments == nil || len(h.Comments) != 0 {
		t.Errorf("Comments = %#v, want empty non-nil slice", h.Comments)
	}
	if h.LastEdited != nil {
		t.Errorf("LastEdited = %v, want nil", h.LastEdited)
	}
	if !h.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v, want %v", h.CreatedAt, fixedNow)
	}
}

func TestCreate_TrimsWhitespace(t *testing.T) {
	f := newTestService(t)

	h := mustCreate(t, f, 1, "  spaced out  ", " health ")

	if h.Text != "spaced out" {
		t.Errorf("Text = %q, want trimmed %q", h.Text, "spaced out")
	}
	if h.Category != "health" {
		t.Errorf("Category = %q, want %q", h.Category, "health")
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name      string
		userID    int64
		text      string
		category  string
		wantField string
	}{
		{"empty text", 1, "", "work", "text"},
		{"whitespace text", 1, "   ", "work", "text"},
		{"text too long", 1, strings.Repeat("a", DefaultMaxTextLength+1), "work", "text"},
		{"empty category", 1, "hi", "", "category"},
		{"unknown category", 1, "hi", "space", "category"},
		{"missing user", 0, "hi", "work", "userId"},
		{"negative user", -4, "hi", "work", "userId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestService(t)

			_, err := f.svc.Create(context.Background(), tt.userID, tt.text, tt.category)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
			if len(f.repo.records) != 0 {
				t.Errorf("store has %d records after a failed create, want 0", len(f.repo.records))
			}
			if len(f.events.Events()) != 0 {
				t.Error("no event should be published for a failed create")
			}
		})
	}
}

func TestCreate_LengthCountsCharacters(t *testing.T) {
	f := newTestService(t)

	// 1000 multi-byte runes is well over 1000 bytes but still within the limit.
	text := strings.Repeat("é", DefaultMaxTextLength)
	if _, err := f.svc.Create(context.Background(), 1, text, "other"); err != nil {
		t.Fatalf("Create() with %d runes error = %v", DefaultMaxTextLength, err)
	}
}

func TestCreate_CustomCategories(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewHardshipService(newMockRepo(), logger, Config{Categories: model.Categories{"X", "Y"}})

	if _, err := svc.Create(context.Background(), 1, "hi", "X"); err != nil {
		t.Errorf("configured category rejected: %v", err)
	}
	if _, err := svc.Create(context.Background(), 1, "hi", "work"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("unconfigured category: error = %v, want ErrValidation", err)
	}
}

func TestCreate_StoreFailure(t *testing.T) {
	f := newTestService(t)
	f.repo.failNext = errors.New("disk full")

	_, err := f.svc.Create(context.Background(), 1, "hi", "work")
	if err == nil {
		t.Fatal("Create() should surface store failures")
	}
	if apperror.IsDomain(err) {
		t.Errorf("store failure should not look like a domain error: %v", err)
	}
	if !errors.Is(err, apperror.ErrInternal) {
		t.Errorf("Create() error = %v, want ErrInternal", err)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Message != apperror.GenericMessage {
		t.Errorf("store failure should carry only the generic message, got %v", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("cause should stay visible to logs, got %q", err.Error())
	}
}

func TestMutations_StoreFailureIsInternal(t *testing.T) {
	ctx := context.Background()
	text, category := "new", "health"

	tests := []struct {
		name string
		call func(svc *HardshipService, id int64) error
	}{
		{"AddComment", func(svc *HardshipService, id int64) error {
			_, err := svc.AddComment(ctx, id, "hi")
			return err
		}},
		{"ToggleLike", func(svc *HardshipService, id int64) error {
			_, err := svc.ToggleLike(ctx, id, 1)
			return err
		}},
		{"Edit", func(svc *HardshipService, id int64) error {
			_, err := svc.Edit(ctx, id, &text, &category)
			return err
		}},
		{"Delete", func(svc *HardshipService, id int64) error {
			return svc.Delete(ctx, id)
		}},
		{"Get", func(svc *HardshipService, id int64) error {
			_, err := svc.Get(ctx, id)
			return err
		}},
		{"List", func(svc *HardshipService, _ int64) error {
			_, err := svc.List(ctx)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestService(t)
			h := mustCreate(t, f, 1, "hi", "work")
			f.repo.failNext = errors.New("io")

			err := tt.call(f.svc, h.ID)
			if !errors.Is(err, apperror.ErrInternal) {
				t.Errorf("%s() error = %v, want ErrInternal", tt.name, err)
			}
		})
	}
}

func TestMutations_DomainErrorsStayDomain(t *testing.T) {
	f := newTestService(t)

	_, err := f.svc.ToggleLike(context.Background(), 404, 1)
	if !errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrInternal) {
		t.Errorf("ToggleLike() on unknown id error = %v, want only ErrNotFound", err)
	}
}

func TestCreate_PublishesEvent(t *testing.T) {
	f := newTestService(t)
	h := mustCreate(t, f, 9, "hi", "work")

	got := f.events.Events()
	if len(got) != 1 {
		t.Fatalf("published %d events, want 1", len(got))
	}
	if got[0].Type != events.HardshipCreated || got[0].HardshipID != h.ID || got[0].UserID != 9 {
		t.Errorf("event = %+v", got[0])
	}
}

func TestCreate_PublishFailureDoesNotFail(t *testing.T) {
	f := newTestService(t)
	f.events.Err = errors.New("broker down")

	if _, err := f.svc.Create(context.Background(), 1, "hi", "work"); err != nil {
		t.Fatalf("Create() error = %v, publish failures must be swallowed", err)
	}
	if len(f.repo.records) != 1 {
		t.Error("record should be stored even when publishing fails")
	}
}

// =========================================================================
// TOGGLE LIKE TESTS
// =========================================================================

func TestToggleLike_TwiceRestores(t *testing.T) {
	f := newTestService(t)
	h := mustCreate(t, f, 1, "hi", "work")
	ctx := context.Background()

	first, err := f.svc.ToggleLike(ctx, h.ID, 1)
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if first.Likes != 1 || !first.IsLiked {
		t.Errorf("after first toggle = %+v, want {1 true}", first)
	}

	second, err := f.svc.ToggleLike(ctx, h.ID, 1)
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if second.Likes != 0 || second.IsLiked {
		t.Errorf("after second toggle = %+v, want {0 false}", second)
	}

	want := []events.Type{events.HardshipCreated, events.HardshipLiked, events.HardshipUnliked}
	if got := f.events.Types(); !equalTypes(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestToggleLike_CountNeverNegative(t *testing.T) {
	f := newTestService(t)
	h := mustCreate(t, f, 1, "hi", "work")
	ctx := context.Background()

	// Viewer 2 likes, viewer 3 likes, viewer 2 unlikes: the count tracks real
	// viewers, so it can never drop below zero.
	for _, v := range []int64{2, 3, 2} {
		if _, err := f.svc.ToggleLike(ctx, h.ID, v); err != nil {
			t.Fatalf("ToggleLike(%d) error = %v", v, err)
		}
	}
	res, err := f.svc.ToggleLike(ctx, h.ID, 3)
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if res.Likes != 0 || res.IsLiked {
		t.Errorf("result = %+v, want {0 false}", res)
	}

	stored, _ := f.svc.Get(ctx, h.ID)
	if stored.Likes() != 0 {
		t.Errorf("stored likes = %d, want 0", stored.Likes())
	}
}

func TestToggleLike_NotFound(t *testing.T) {
	f := newTestService(t)

	_, err := f.svc.ToggleLike(context.Background(), 404, 1)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// COMMENT TESTS
// =========================================================================

func TestAddComment_Success(t *testing.T) {
	f := newTestService(t)
	h := mustCreate(t, f, 1, "hi", "work")
	ctx := context.Background()

	c1, err := f.svc.AddComment(ctx, h.ID, "  hang in there ")
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	// Same millisecond on purpose: ids must still be unique.
	c2, err := f.svc.AddComment(ctx, h.ID, "me too")
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}

	if c1.Text != "hang in there" {
		t.Errorf("Text = %q, want trimmed", c1.Text)
	}
	if c1.ID == c2.ID {
		t.Errorf("comment ids collide: %d", c1.ID)
	}
	if !c1.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v, want %v", c1.CreatedAt, fixedNow)
	}

	stored, _ := f.svc.Get(ctx, h.ID)
	if len(stored.Comments) != 2 || stored.Comments[0].ID != c1.ID || stored.Comments[1].ID != c2.ID {
		t.Errorf("stored comments = %+v, want [c1 c2] in order", stored.Comments)
	}
}

func TestAddComment_NotFoundLeavesStoreUnchanged(t *testing.T) {
	f := newTestService(t)
	h := mustCreate(t, f, 1, "hi", "work")
	ctx := context.Background()

	before, _ := f.svc.List(ctx)

	_, err := f.svc.AddComment(ctx, h.ID+100, "hello")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}

	after, _ := f.svc.List(ctx)
	if len(after) != len(before) || len(after[0].Comments) != 0 {
		t.Errorf("store changed after failed comment: %+v", after)
	}
}

func TestAddComment_NotFoundBeforeValidation(t *testing.T) {
	f := newTestService(t)

	_, err := f.svc.AddComment(context.Background(), 77, "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound for unknown id with empty text", err)
	}
}

func TestAddComment_EmptyText(t *testing.T) {
	f := newTestService(t)
	h := mustCreate(t, f, 1, "hi", "work")

	_, err := f.svc.AddComment(context.Background(), h.ID, "   ")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}

	stored, _ := f.svc.Get(context.Background(), h.ID)
	if len(stored.Comments) != 0 {
		t.Error("failed comment must not be stored")
	}
}

// =========================================================================
// EDIT TESTS
// =========================================================================

func TestEdit_CategoryOnly(t *testing.T) {
	f := newTestService(t)
	h := mustCreate(t, f, 1, "original text", "work")
	f.clock.Advance(time.Hour)

	edited, err := f.svc.Edit(context.Background(), h.ID, nil, ptr("health"))
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	if edited.Category != "health" {
		t.Errorf("Category = %q, want %q", edited.Category, "health")
	}
	if edited.Text != "original text" {
		t.Errorf("Text = %q, want untouched", edited.Text)
	}
	if edited.LastEdited == nil || !edited.LastEdited.Equal(fixedNow.Add(time.Hour)) {
		t.Errorf("LastEdited = %v, want %v", edited.LastEdited, fixedNow.Add(time.Hour))
	}
}

func TestEdit_TextOnly(t *testing.T) {
	f := newTestService(t)
	h := mustCreate(t, f, 1, "original", "work")

	edited, err := f.svc.Edit(context.Background(), h.ID, ptr(" rewritten "), ptr(""))
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if edited.Text != "rewritten" || edited.Category != "work" {
		t.Errorf("got text=%q category=%q", edited.Text, edited.Category)
	}
}

func TestEdit_NoChangesStillStamps(t *testing.T) {
	f := newTestService(t)
	h := mustCreate(t, f, 1, "original", "work")

	edited, err := f.svc.Edit(context.Background(), h.ID, nil, nil)
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if edited.LastEdited == nil {
		t.Error("LastEdited should be set even when nothing changed")
	}
}

func TestEdit_InvalidFieldIsAtomic(t *testing.T) {
	f := newTestService(t)
	h := mustCreate(t, f, 1, "original", "work")

	// Valid text but invalid category: nothing may be written.
	_, err := f.svc.Edit(context.Background(), h.ID, ptr("new text"), ptr("space"))
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}

	stored, _ := f.svc.Get(context.Background(), h.ID)
	if stored.Text != "original" || stored.LastEdited != nil {
		t.Errorf("partial write: text=%q lastEdited=%v", stored.Text, stored.LastEdited)
	}
}

func TestEdit_NotFound(t *testing.T) {
	f := newTestService(t)

	_, err := f.svc.Edit(context.Background(), 5, ptr("x"), nil)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE / READ TESTS
// =========================================================================

func TestDelete_Success(t *testing.T) {
	f := newTestService(t)
	h := mustCreate(t, f, 1, "to delete", "work")

	if err := f.svc.Delete(context.Background(), h.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := f.svc.Get(context.Background(), h.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	f := newTestService(t)

	err := f.svc.Delete(context.Background(), 3)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFeed_RunsPipeline(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	a := mustCreate(t, f, 1, "a", "work")
	b := mustCreate(t, f, 2, "b", "health")
	c := mustCreate(t, f, 1, "c", "work")
	_, _ = f.svc.ToggleLike(ctx, c.ID, 5)

	page, err := f.svc.Feed(ctx, pipeline.Query{Category: "work", Sort: pipeline.SortMostLiked})
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if page.Total != 2 || page.Items[0].ID != c.ID || page.Items[1].ID != a.ID {
		t.Errorf("page = %+v", page)
	}

	page, _ = f.svc.Feed(ctx, pipeline.Query{OwnerOnly: true, ViewerID: 2})
	if page.Total != 1 || page.Items[0].ID != b.ID {
		t.Errorf("owner page = %+v", page)
	}
}

func TestFeed_StoreFailure(t *testing.T) {
	f := newTestService(t)
	f.repo.failNext = errors.New("io")

	if _, err := f.svc.Feed(context.Background(), pipeline.Query{}); err == nil {
		t.Error("Feed() should surface store failures")
	}
}

func TestViews_PerViewer(t *testing.T) {
	f := newTestService(t)
	h := mustCreate(t, f, 1, "hi", "work")
	_, _ = f.svc.ToggleLike(context.Background(), h.ID, 2)

	all, _ := f.svc.List(context.Background())

	if v := f.svc.Views(all, 2)[0]; !v.IsLiked || v.Likes != 1 {
		t.Errorf("viewer 2 view = %+v", v)
	}
	if v := f.svc.Views(all, 3)[0]; v.IsLiked || v.Likes != 1 {
		t.Errorf("viewer 3 view = %+v", v)
	}
}

func TestCategories_ReturnsCopy(t *testing.T) {
	f := newTestService(t)
	cs := f.svc.Categories()
	cs[0] = "mutated"
	if f.svc.Categories()[0] == "mutated" {
		t.Error("Categories() must not expose internal state")
	}
}

func equalTypes(a, b []events.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
