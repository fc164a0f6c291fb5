// Package render is the Presentation Renderer. It turns a pipeline page into
// something a person can look at: a server-rendered HTML board for browsers,
// and plain text for the terminal.
//
// Both renderers emit one unit per record with the same parts in the same
// order: category label, text, posted/edited time, like control, comment
// control.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/sakif/hardship-board/internal/model"
	"github.com/sakif/hardship-board/internal/pipeline"
)

// TimeLayout is how every timestamp is shown, e.g. "May 1, 2024 12:00 PM".
const TimeLayout = "Jan 2, 2006 03:04 PM"

//go:embed templates/*.html
var templateFS embed.FS

// FormatTime formats t with TimeLayout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// Label turns a category or sort mode slug into display text:
// "most-liked" → "Most liked".
func Label(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// PageData is everything the board page shows.
type PageData struct {
	Title         string
	Views         []model.HardshipView
	Page          pipeline.Page
	Query         pipeline.Query
	Categories    []string
	MaxTextLength int
	Draft         string // text to refill the post form with after a failed submit
	DraftCategory string // category to reselect after a failed submit
	Error         string
	StaticPrefix  string // "" when no static directory is served
}

func (d PageData) SortModes() []pipeline.SortMode { return pipeline.SortModes }

// DraftLength is the character count shown next to the post form.
func (d PageData) DraftLength() int { return utf8.RuneCountInString(d.Draft) }

// StateQuery encodes the current view state so forms and links can carry it
// back to the page.
func (d PageData) StateQuery() string {
	q := d.Query
	q.Visible = d.Page.Visible
	return EncodeQuery(q)
}

// PostURL is where the post form submits.
func (d PageData) PostURL() string {
	return withQuery("/board/hardships", d.StateQuery())
}

func (d PageData) LoadMoreURL() string {
	q := d.Query
	q.Visible = pipeline.NextVisible(d.Page.Visible)
	return withQuery("/", EncodeQuery(q))
}

func (d PageData) MineToggleURL() string {
	q := d.Query
	q.OwnerOnly = !q.OwnerOnly
	q.Visible = d.Page.Visible
	return withQuery("/", EncodeQuery(q))
}

// EncodeQuery writes the query-string form of q. ViewerID is deliberately
// left out: it travels in the X-User-ID header.
func EncodeQuery(q pipeline.Query) string {
	v := url.Values{}
	if q.Category != "" && q.Category != pipeline.AllCategories {
		v.Set("category", q.Category)
	}
	if q.Sort != pipeline.SortNone {
		v.Set("sort", string(q.Sort))
	}
	if q.OwnerOnly {
		v.Set("mine", "true")
	}
	if q.Visible > 0 && q.Visible != pipeline.DefaultVisible {
		v.Set("visible", strconv.Itoa(q.Visible))
	}
	return v.Encode()
}

type cardData struct {
	View       model.HardshipView
	StateQuery string
}

func (c cardData) LikeURL() string {
	return withQuery(fmt.Sprintf("/board/hardships/%d/like", c.View.ID), c.StateQuery)
}

func (c cardData) CommentURL() string {
	return withQuery(fmt.Sprintf("/board/hardships/%d/comments", c.View.ID), c.StateQuery)
}

func withQuery(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}

// HTML renders the board page. Templates are parsed once in NewHTML.
type HTML struct {
	tmpl *template.Template
}

func NewHTML() (*HTML, error) {
	funcs := template.FuncMap{
		"formatTime": FormatTime,
		"label":      Label,
		"sortLabel":  func(m pipeline.SortMode) string { return Label(string(m)) },
		"cardData": func(d PageData, v model.HardshipView) cardData {
			return cardData{View: v, StateQuery: d.StateQuery()}
		},
	}
	tmpl, err := template.New("board").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parsing templates: %w", err)
	}
	return &HTML{tmpl: tmpl}, nil
}

// Page writes the full board.
func (h *HTML) Page(w io.Writer, data PageData) error {
	if data.Title == "" {
		data.Title = "Hardship Board"
	}
	return h.tmpl.ExecuteTemplate(w, "board", data)
}

// Card writes a single record.
func (h *HTML) Card(w io.Writer, v model.HardshipView) error {
	return h.tmpl.ExecuteTemplate(w, "card", cardData{View: v})
}
