package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/sakif/hardship-board/internal/model"
	"github.com/sakif/hardship-board/internal/pipeline"
)

// Text writes a terminal rendering of a page.
func Text(w io.Writer, views []model.HardshipView, page pipeline.Page) error {
	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "No hardships yet.")
		return err
	}

	tw := &textWriter{w: w}
	for i, v := range views {
		if i > 0 {
			tw.line("")
		}
		TextCard(tw, v)
	}
	tw.line("")
	if page.HasMore {
		tw.printf("Showing %d of %d. More available (--pages to see more).\n", len(views), page.Total)
	} else {
		tw.printf("Showing %d of %d.\n", len(views), page.Total)
	}
	return tw.err
}

// TextCard writes one record.
func TextCard(w io.Writer, v model.HardshipView) {
	tw, ok := w.(*textWriter)
	if !ok {
		tw = &textWriter{w: w}
	}

	tw.printf("#%d [%s]\n", v.ID, Label(v.Category))
	for _, l := range strings.Split(v.Text, "\n") {
		tw.printf("  %s\n", l)
	}
	tw.printf("  Posted: %s", FormatTime(v.CreatedAt))
	if v.LastEdited != nil {
		tw.printf(" | Last edited: %s", FormatTime(*v.LastEdited))
	}
	tw.line("")

	heart := "♡"
	if v.IsLiked {
		heart = "♥"
	}
	tw.printf("  %s %d\n", heart, v.Likes)

	tw.printf("  Comments (%d)\n", len(v.Comments))
	for _, c := range v.Comments {
		tw.printf("    - %s (%s)\n", c.Text, FormatTime(c.CreatedAt))
	}
}

// textWriter remembers the first write error so callers check once.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) Write(p []byte) (int, error) {
	if t.err != nil {
		return 0, t.err
	}
	n, err := t.w.Write(p)
	t.err = err
	return n, err
}

func (t *textWriter) printf(format string, args ...any) {
	fmt.Fprintf(t, format, args...)
}

func (t *textWriter) line(s string) {
	fmt.Fprintln(t, s)
}
