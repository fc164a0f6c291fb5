package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/hardship-board/internal/model"
	"github.com/sakif/hardship-board/internal/service"
	"github.com/sakif/hardship-board/internal/viewer"
)

// HardshipHandler serves the JSON API.
//
// Handlers only speak HTTP: decode the body, call the service, encode the
// result. All rules (what is valid, what "toggle" means) live in the service.
// Every record goes out as a model.HardshipView for the requesting viewer, so
// "likes" and "isLiked" are always computed, never stored.
type HardshipHandler struct {
	svc           *service.HardshipService
	logger        *slog.Logger
	defaultViewer int64
}

func NewHardshipHandler(svc *service.HardshipService, defaultViewer int64, logger *slog.Logger) *HardshipHandler {
	return &HardshipHandler{svc: svc, logger: logger, defaultViewer: defaultViewer}
}

func (h *HardshipHandler) viewerID(r *http.Request) int64 {
	if id, ok := viewer.FromContext(r.Context()); ok {
		return id
	}
	return h.defaultViewer
}

type createRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	UserID   int64  `json:"userId"`
}

// HandleCreate creates a hardship.
//
// HTTP: POST /api/hardships
// REQUEST BODY: {"text": "...", "category": "work", "userId": 1}
// RESPONSE: 201 + HardshipView
func (h *HardshipHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	created, err := h.svc.Create(r.Context(), req.UserID, req.Text, req.Category)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.NewView(*created, h.viewerID(r)))
}

// HandleList returns every hardship in store order.
//
// HTTP: GET /api/hardships
func (h *HardshipHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Views(all, h.viewerID(r)))
}

type feedResponse struct {
	Items   []model.HardshipView `json:"items"`
	HasMore bool                 `json:"hasMore"`
	Total   int                  `json:"total"`
	Visible int                  `json:"visible"`
}

// HandleFeed runs the read pipeline.
//
// HTTP: GET /api/hardships/feed?category=work&sort=most-liked&mine=true&visible=12
func (h *HardshipHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	vid := h.viewerID(r)
	page, err := h.svc.Feed(r.Context(), parseQuery(r, vid))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, feedResponse{
		Items:   h.svc.Views(page.Items, vid),
		HasMore: page.HasMore,
		Total:   page.Total,
		Visible: page.Visible,
	})
}

// HandleGet returns one hardship.
//
// HTTP: GET /api/hardships/{id}
func (h *HardshipHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	found, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewView(*found, h.viewerID(r)))
}

type commentRequest struct {
	Text string `json:"text"`
}

// HandleAddComment appends a comment.
//
// HTTP: POST /api/hardships/{id}/comments
// REQUEST BODY: {"text": "..."}
// RESPONSE: 201 + the new comment. 404 wins over 400 for an unknown id.
func (h *HardshipHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	c, err := h.svc.AddComment(r.Context(), id, req.Text)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// HandleToggleLike flips the requesting viewer's like.
//
// HTTP: POST /api/hardships/{id}/like
// RESPONSE: {"likes": 3, "isLiked": true}
func (h *HardshipHandler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := h.svc.ToggleLike(r.Context(), id, h.viewerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// editRequest uses pointers so "absent" and "present but empty" both decode
// to "leave this field alone".
type editRequest struct {
	Text     *string `json:"text"`
	Category *string `json:"category"`
}

// HandleEdit updates text and/or category.
//
// HTTP: PUT /api/hardships/{id}
// REQUEST BODY: {"text"?: "...", "category"?: "..."}
func (h *HardshipHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req editRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	edited, err := h.svc.Edit(r.Context(), id, req.Text, req.Category)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewView(*edited, h.viewerID(r)))
}

// HandleDelete removes a hardship.
//
// HTTP: DELETE /api/hardships/{id}
// RESPONSE: 204 No Content
func (h *HardshipHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCategories lists the configured categories.
//
// HTTP: GET /api/categories
func (h *HardshipHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Categories())
}
