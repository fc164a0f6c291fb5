// Package service contains the business logic layer of the board.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler / Board (interface layer) → parses input, renders output
//	Service (business layer)          → validates, enforces the mutation rules
//	Repository (data layer)           → stores records
//
// The same HardshipService sits behind the HTTP API (handler package) and
// behind the client board (board package, cmd/board). Neither of those knows
// how records are validated or stored; they only call these methods.
//
// ATOMIC MUTATIONS:
// Every change goes through repository.Update, which hands us a private copy
// of the record. We validate and change that copy inside the callback. If the
// callback returns an error (say, an empty comment), nothing is written.
// Either the whole operation happens or none of it does.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/hardship-board/internal/apperror"
	"github.com/sakif/hardship-board/internal/events"
	"github.com/sakif/hardship-board/internal/idgen"
	"github.com/sakif/hardship-board/internal/model"
	"github.com/sakif/hardship-board/internal/pipeline"
	"github.com/sakif/hardship-board/internal/repository"
)

// DefaultMaxTextLength caps hardship text, counted in characters (runes).
const DefaultMaxTextLength = 1000

// Config tunes a HardshipService. Zero values fall back to defaults.
type Config struct {
	Categories    model.Categories // default model.DefaultCategories
	MaxTextLength int              // default DefaultMaxTextLength
	Now           func() time.Time // default time.Now
	CommentIDs    idgen.Generator  // default idgen.NewMillis()
	Events        events.Publisher // default events.Nop
}

// HardshipService implements the mutation operations and read helpers.
type HardshipService struct {
	repo       repository.HardshipRepository
	logger     *slog.Logger
	categories model.Categories
	maxText    int
	now        func() time.Time
	commentIDs idgen.Generator
	events     events.Publisher
}

// NewHardshipService creates a HardshipService over repo.
//
// Like every constructor in this codebase, it takes its dependencies as
// parameters. The caller picks which store to use (memory, SQLite or the
// client key-value store) and which event sink to publish to.
func NewHardshipService(repo repository.HardshipRepository, logger *slog.Logger, cfg Config) *HardshipService {
	s := &HardshipService{
		repo:       repo,
		logger:     logger,
		categories: cfg.Categories,
		maxText:    cfg.MaxTextLength,
		now:        cfg.Now,
		commentIDs: cfg.CommentIDs,
		events:     cfg.Events,
	}
	if len(s.categories) == 0 {
		s.categories = model.DefaultCategories
	}
	if s.maxText <= 0 {
		s.maxText = DefaultMaxTextLength
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.commentIDs == nil {
		s.commentIDs = idgen.NewMillis()
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	return s
}

// Categories returns the configured category list.
func (s *HardshipService) Categories() model.Categories {
	return slices.Clone(s.categories)
}

// MaxTextLength is the configured text limit.
func (s *HardshipService) MaxTextLength() int {
	return s.maxText
}

// Create validates and stores a new hardship.
//
// VALIDATION ORDER:
// text, then category, then userID. The first failure wins and nothing is
// inserted. On success the record starts with no likes, no comments and no
// edit stamp; the store assigns the id.
func (s *HardshipService) Create(ctx context.Context, userID int64, text, category string) (*model.Hardship, error) {
	text, err := s.validateText(text)
	if err != nil {
		return nil, err
	}
	category, err = s.validateCategory(category)
	if err != nil {
		return nil, err
	}
	if userID <= 0 {
		return nil, apperror.ValidationFailed("userId", "userId is required")
	}

	h := &model.Hardship{
		UserID:    userID,
		Text:      text,
		Category:  category,
		Comments:  []model.Comment{},
		LikedBy:   []int64{},
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Insert(ctx, h); err != nil {
		s.logger.Error("failed to create hardship",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Internal(fmt.Errorf("creating hardship: %w", err))
	}

	s.logger.Info("hardship created",
		slog.Int64("id", h.ID),
		slog.Int64("user_id", userID),
		slog.String("category", category),
	)
	s.publish(ctx, events.HardshipCreated, h.ID, userID)

	return h, nil
}

// AddComment appends a comment and returns it.
//
// An unknown id is reported before an empty text: the lookup happens first,
// and the text is checked inside the update callback.
func (s *HardshipService) AddComment(ctx context.Context, id int64, text string) (*model.Comment, error) {
	var added model.Comment

	_, err := s.repo.Update(ctx, id, func(h *model.Hardship) error {
		text = strings.TrimSpace(text)
		if text == "" {
			return apperror.ValidationFailed("text", "Comment text is required.")
		}
		for _, c := range h.Comments {
			s.commentIDs.Observe(c.ID)
		}
		added = model.Comment{
			ID:        s.commentIDs.Next(),
			Text:      text,
			CreatedAt: s.now().UTC(),
		}
		h.Comments = append(h.Comments, added)
		return nil
	})
	if err != nil {
		return nil, s.wrapMutation("adding comment", id, err)
	}

	s.logger.Info("comment added", slog.Int64("hardship_id", id), slog.Int64("comment_id", added.ID))
	s.publish(ctx, events.HardshipCommented, id, 0)

	return &added, nil
}

// ToggleLike flips viewerID's like and returns the new count and state.
// Calling it twice in a row restores both.
func (s *HardshipService) ToggleLike(ctx context.Context, id, viewerID int64) (model.LikeResult, error) {
	var liked bool

	h, err := s.repo.Update(ctx, id, func(h *model.Hardship) error {
		liked = h.ToggleLike(viewerID)
		return nil
	})
	if err != nil {
		return model.LikeResult{}, s.wrapMutation("toggling like", id, err)
	}

	typ := events.HardshipUnliked
	if liked {
		typ = events.HardshipLiked
	}
	s.logger.Info("like toggled",
		slog.Int64("hardship_id", id),
		slog.Int64("viewer_id", viewerID),
		slog.Bool("liked", liked),
	)
	s.publish(ctx, typ, id, viewerID)

	return model.LikeResult{Likes: h.Likes(), IsLiked: liked}, nil
}

// Edit replaces text and/or category.
//
// PARTIAL UPDATES:
// A nil or blank field means "leave it alone". A provided field is validated
// exactly as in Create. Every successful call stamps LastEdited, even one
// that changed nothing.
func (s *HardshipService) Edit(ctx context.Context, id int64, text, category *string) (*model.Hardship, error) {
	h, err := s.repo.Update(ctx, id, func(h *model.Hardship) error {
		if text != nil && strings.TrimSpace(*text) != "" {
			t, err := s.validateText(*text)
			if err != nil {
				return err
			}
			h.Text = t
		}
		if category != nil && strings.TrimSpace(*category) != "" {
			c, err := s.validateCategory(*category)
			if err != nil {
				return err
			}
			h.Category = c
		}
		edited := s.now().UTC()
		h.LastEdited = &edited
		return nil
	})
	if err != nil {
		return nil, s.wrapMutation("editing hardship", id, err)
	}

	s.logger.Info("hardship edited", slog.Int64("id", id))
	s.publish(ctx, events.HardshipEdited, id, h.UserID)

	return h, nil
}

// Delete removes a hardship and its comments.
func (s *HardshipService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.wrapMutation("deleting hardship", id, err)
	}

	s.logger.Info("hardship deleted", slog.Int64("id", id))
	s.publish(ctx, events.HardshipDeleted, id, 0)
	return nil
}

// List returns every record in store order.
func (s *HardshipService) List(ctx context.Context) ([]model.Hardship, error) {
	hs, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list hardships", slog.String("error", err.Error()))
		return nil, apperror.Internal(fmt.Errorf("listing hardships: %w", err))
	}
	return hs, nil
}

// Get returns one record or apperror.ErrNotFound.
func (s *HardshipService) Get(ctx context.Context, id int64) (*model.Hardship, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapMutation("getting hardship", id, err)
	}
	return h, nil
}

// Feed runs the read pipeline over every stored record.
func (s *HardshipService) Feed(ctx context.Context, q pipeline.Query) (pipeline.Page, error) {
	hs, err := s.List(ctx)
	if err != nil {
		return pipeline.Page{}, err
	}
	return pipeline.Run(hs, q), nil
}

// Views projects records for one viewer.
func (s *HardshipService) Views(hs []model.Hardship, viewerID int64) []model.HardshipView {
	return model.NewViews(hs, viewerID)
}

func (s *HardshipService) validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperror.ValidationFailed("text", "text is required")
	}
	if utf8.RuneCountInString(text) > s.maxText {
		return "", apperror.ValidationFailed("text",
			fmt.Sprintf("text must be %d characters or less", s.maxText))
	}
	return text, nil
}

func (s *HardshipService) validateCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return "", apperror.ValidationFailed("category", "category is required")
	}
	if !s.categories.Contains(category) {
		return "", apperror.ValidationFailed("category",
			fmt.Sprintf("unknown category %q", category))
	}
	return category, nil
}

// wrapMutation passes domain errors through untouched and turns anything else
// (a store failure) into an apperror.ErrInternal, which handlers answer with 500.
func (s *HardshipService) wrapMutation(action string, id int64, err error) error {
	if apperror.IsDomain(err) {
		return err
	}
	s.logger.Error("failed "+action,
		slog.Int64("id", id),
		slog.String("error", err.Error()),
	)
	return apperror.Internal(fmt.Errorf("%s %d: %w", action, id, err))
}

// publish is best-effort: the mutation has already committed.
func (s *HardshipService) publish(ctx context.Context, typ events.Type, id, userID int64) {
	e := events.Event{Type: typ, HardshipID: id, UserID: userID, At: s.now().UTC()}
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event",
			slog.String("type", string(typ)),
			slog.Int64("hardship_id", id),
			slog.String("error", err.Error()),
		)
	}
}
