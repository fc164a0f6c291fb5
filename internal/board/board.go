// Package board is the reactive client container: a store, the read
// pipeline, and a list of renderers that are re-run whenever anything
// changes.
//
// Every operation follows the same shape:
//
//  1. apply the change (a mutation through the service, or a view-state edit)
//  2. drop the cached page
//  3. recompute the page once and hand it to every subscriber
//
// The board itself never draws anything. cmd/board subscribes a text
// renderer; tests subscribe a recorder.
package board

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/sakif/hardship-board/internal/model"
	"github.com/sakif/hardship-board/internal/pipeline"
	"github.com/sakif/hardship-board/internal/service"
)

// DefaultViewerID is the simulated user of the demo board.
const DefaultViewerID int64 = 1

// RenderFunc receives every freshly computed page.
type RenderFunc func(pipeline.Page)

type subscriber struct {
	id int
	fn RenderFunc
}

// Board holds the view state for one viewer.
type Board struct {
	svc    *service.HardshipService
	logger *slog.Logger

	mu      sync.Mutex
	query   pipeline.Query
	cached  *pipeline.Page
	subs    []subscriber
	nextSub int
}

// New returns a Board showing the first page, unfiltered and unsorted.
func New(svc *service.HardshipService, viewerID int64, logger *slog.Logger) *Board {
	if viewerID <= 0 {
		viewerID = DefaultViewerID
	}
	return &Board{
		svc:    svc,
		logger: logger,
		query: pipeline.Query{
			Category: pipeline.AllCategories,
			Sort:     pipeline.SortNone,
			ViewerID: viewerID,
			Visible:  pipeline.DefaultVisible,
		},
	}
}

// ViewerID is the viewer this board acts as.
func (b *Board) ViewerID() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query.ViewerID
}

// Query returns the current view state.
func (b *Board) Query() pipeline.Query {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// Page returns the current page, recomputing it only after a change.
func (b *Board) Page(ctx context.Context) (pipeline.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pageLocked(ctx)
}

// Views is Page projected for this board's viewer.
func (b *Board) Views(ctx context.Context) ([]model.HardshipView, pipeline.Page, error) {
	page, err := b.Page(ctx)
	if err != nil {
		return nil, pipeline.Page{}, err
	}
	return b.svc.Views(page.Items, b.ViewerID()), page, nil
}

// Subscribe registers fn and returns a func that removes it again.
func (b *Board) Subscribe(fn RenderFunc) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSub++
	id := b.nextSub
	b.subs = append(b.subs, subscriber{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs = slices.DeleteFunc(b.subs, func(s subscriber) bool { return s.id == id })
	}
}

// Submit posts a new hardship as the board's viewer.
//
// The returned error is the mutation's only. Once the store has committed,
// a failed re-render is logged and the next Page call tries again.
func (b *Board) Submit(ctx context.Context, text, category string) (*model.Hardship, error) {
	h, err := b.svc.Create(ctx, b.ViewerID(), text, category)
	if err != nil {
		return nil, err
	}
	b.committed(ctx)
	return h, nil
}

// ToggleLike flips the viewer's like on id.
func (b *Board) ToggleLike(ctx context.Context, id int64) (model.LikeResult, error) {
	res, err := b.svc.ToggleLike(ctx, id, b.ViewerID())
	if err != nil {
		return model.LikeResult{}, err
	}
	b.committed(ctx)
	return res, nil
}

// AddComment appends a comment to id.
func (b *Board) AddComment(ctx context.Context, id int64, text string) (*model.Comment, error) {
	c, err := b.svc.AddComment(ctx, id, text)
	if err != nil {
		return nil, err
	}
	b.committed(ctx)
	return c, nil
}

// SetCategory filters by category. "all" or "" clears the filter.
func (b *Board) SetCategory(ctx context.Context, category string) error {
	b.mu.Lock()
	if category == "" {
		category = pipeline.AllCategories
	}
	b.query.Category = category
	b.mu.Unlock()
	return b.changed(ctx)
}

// SetSort picks the ordering.
func (b *Board) SetSort(ctx context.Context, mode pipeline.SortMode) error {
	b.mu.Lock()
	b.query.Sort = mode
	b.mu.Unlock()
	return b.changed(ctx)
}

// ToggleMine switches "My Submissions" on or off and reports the new state.
func (b *Board) ToggleMine(ctx context.Context) (bool, error) {
	b.mu.Lock()
	b.query.OwnerOnly = !b.query.OwnerOnly
	on := b.query.OwnerOnly
	b.mu.Unlock()
	return on, b.changed(ctx)
}

// LoadMore reveals another pipeline.PageStep records.
func (b *Board) LoadMore(ctx context.Context) error {
	b.mu.Lock()
	b.query.Visible = pipeline.NextVisible(b.query.Visible)
	b.mu.Unlock()
	return b.changed(ctx)
}

// Refresh re-reads the store, picking up writes made through other boards or
// processes sharing the same medium.
func (b *Board) Refresh(ctx context.Context) error {
	return b.changed(ctx)
}

// committed re-renders after a write the store already accepted. changed
// logs its own failure and leaves the cache empty for the next Page call.
func (b *Board) committed(ctx context.Context) {
	_ = b.changed(ctx)
}

// changed invalidates the cache and re-renders. Subscribers run without the
// lock held so they may call back into the board.
func (b *Board) changed(ctx context.Context) error {
	b.mu.Lock()
	b.cached = nil
	page, err := b.pageLocked(ctx)
	subs := slices.Clone(b.subs)
	b.mu.Unlock()

	if err != nil {
		b.logger.Error("failed to refresh board", slog.String("error", err.Error()))
		return err
	}
	for _, s := range subs {
		s.fn(page)
	}
	return nil
}

func (b *Board) pageLocked(ctx context.Context) (pipeline.Page, error) {
	if b.cached != nil {
		return *b.cached, nil
	}
	page, err := b.svc.Feed(ctx, b.query)
	if err != nil {
		return pipeline.Page{}, err
	}
	b.cached = &page
	return page, nil
}
