// Package handler contains the HTTP request handlers of the board.
//
// There are two kinds:
//
//   - HardshipHandler: the JSON API under /api
//   - PageHandler: the server-rendered board page, plus plain HTML form
//     endpoints under /board so the page works without any JavaScript
//
// Handlers should NOT contain business logic. They are the glue between
// HTTP and the service layer.
package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/hardship-board/internal/render"
	"github.com/sakif/hardship-board/internal/service"
	"github.com/sakif/hardship-board/internal/viewer"
)

// PageHandler renders the board. The templates are parsed once, in
// render.NewHTML, and reused on every request.
type PageHandler struct {
	svc           *service.HardshipService
	html          *render.HTML
	logger        *slog.Logger
	defaultViewer int64
	staticPrefix  string
}

// NewPageHandler creates a PageHandler. staticPrefix is the URL the page
// links its stylesheet from; pass "" when no static directory is served.
func NewPageHandler(svc *service.HardshipService, defaultViewer int64, staticPrefix string, logger *slog.Logger) (*PageHandler, error) {
	html, err := render.NewHTML()
	if err != nil {
		return nil, err
	}
	return &PageHandler{
		svc:           svc,
		html:          html,
		logger:        logger,
		defaultViewer: defaultViewer,
		staticPrefix:  staticPrefix,
	}, nil
}

func (h *PageHandler) viewerID(r *http.Request) int64 {
	if id, ok := viewer.FromContext(r.Context()); ok {
		return id
	}
	return h.defaultViewer
}

// HandlePage serves the board for any GET the API does not claim.
//
// HTTP: GET /?category=work&sort=newest&mine=true&visible=12
func (h *PageHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "", draft{})
}

// HandlePost handles the post form.
//
// HTTP: POST /board/hardships (form: text, category)
//
// POST/REDIRECT/GET:
// On success we answer 303 See Other back to the board, so refreshing the
// page re-runs the GET instead of re-submitting the form. On a validation
// error we re-render the page with the message and the user's draft.
func (h *PageHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "invalid form", draft{})
		return
	}
	d := draft{text: r.PostFormValue("text"), category: r.PostFormValue("category")}

	_, err := h.svc.Create(r.Context(), h.viewerID(r), d.text, d.category)
	if err != nil {
		h.fail(w, r, err, d)
		return
	}
	h.redirect(w, r)
}

// HandleLike handles a card's like button.
//
// HTTP: POST /board/hardships/{id}/like
func (h *PageHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err, draft{})
		return
	}
	if _, err := h.svc.ToggleLike(r.Context(), id, h.viewerID(r)); err != nil {
		h.fail(w, r, err, draft{})
		return
	}
	h.redirect(w, r)
}

// HandleComment handles a card's comment form.
//
// HTTP: POST /board/hardships/{id}/comments (form: text)
func (h *PageHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err, draft{})
		return
	}
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "invalid form", draft{})
		return
	}
	if _, err := h.svc.AddComment(r.Context(), id, r.PostFormValue("text")); err != nil {
		h.fail(w, r, err, draft{})
		return
	}
	h.redirect(w, r)
}

// redirect sends the browser back to the board with its view state intact.
func (h *PageHandler) redirect(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if q := render.EncodeQuery(parseQuery(r, h.viewerID(r))); q != "" {
		target += "?" + q
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// draft is the post form as the user left it, refilled after a failed submit.
type draft struct {
	text     string
	category string
}

// fail re-renders the board with a domain error message. Anything unexpected
// gets the same JSON 500 as the API.
func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, err error, d draft) {
	status, body := errorStatus(err)
	if status == http.StatusInternalServerError {
		writeError(w, h.logger, err)
		return
	}
	h.render(w, r, status, body.Error, d)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, message string, d draft) {
	vid := h.viewerID(r)
	q := parseQuery(r, vid)

	page, err := h.svc.Feed(r.Context(), q)
	if err != nil {
		writeError(w, h.logger, fmt.Errorf("loading board: %w", err))
		return
	}

	data := render.PageData{
		Views:         h.svc.Views(page.Items, vid),
		Page:          page,
		Query:         q,
		Categories:    h.svc.Categories(),
		MaxTextLength: h.svc.MaxTextLength(),
		Draft:         d.text,
		DraftCategory: d.category,
		Error:         message,
		StaticPrefix:  h.staticPrefix,
	}

	// Render into a buffer first: if the template fails halfway we can still
	// send a clean 500 instead of half a page.
	var buf bytes.Buffer
	if err := h.html.Page(&buf, data); err != nil {
		writeError(w, h.logger, fmt.Errorf("rendering board: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write page", slog.String("error", err.Error()))
	}
}
