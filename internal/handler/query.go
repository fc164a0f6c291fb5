package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/hardship-board/internal/apperror"
	"github.com/sakif/hardship-board/internal/pipeline"
)

// parseID reads the {id} URL parameter. A non-numeric id cannot match any
// record, so it is reported as not found rather than as bad input.
func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("hardship not found with id %q", raw),
		}
	}
	return id, nil
}

// parseQuery builds the view state from ?category=&sort=&mine=&visible=.
// Bad values fall back to defaults; a view query never fails.
func parseQuery(r *http.Request, viewerID int64) pipeline.Query {
	v := r.URL.Query()

	q := pipeline.Query{
		Category: v.Get("category"),
		Sort:     pipeline.ParseSortMode(v.Get("sort")),
		ViewerID: viewerID,
		Visible:  pipeline.DefaultVisible,
	}
	if q.Category == "" {
		q.Category = pipeline.AllCategories
	}
	if mine, err := strconv.ParseBool(v.Get("mine")); err == nil {
		q.OwnerOnly = mine
	}
	if n, err := strconv.Atoi(v.Get("visible")); err == nil && n > 0 {
		q.Visible = n
	}
	return q
}
