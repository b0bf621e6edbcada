// Package sanitize strips unsafe markup from user-supplied event fields.
package sanitize

import (
	"html"
	"strings"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy removes all HTML.
	StrictPolicy = bluemonday.StrictPolicy()

	// UGCPolicy keeps basic formatting (p, b, i, a, lists) and drops scripts,
	// iframes, event handlers and style attributes.
	UGCPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML tags and surrounding whitespace. The result is plain
// text: entities the policy escaped are decoded again, so "Rock & Roll"
// comes back unchanged.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(StrictPolicy.Sanitize(input)))
}

// HTML keeps safe formatting tags.
func HTML(input string) string {
	return strings.TrimSpace(UGCPolicy.Sanitize(input))
}

// EventInput cleans every free-text field of in. The description may keep
// basic formatting; the other fields become plain text.
func EventInput(in model.EventInput) model.EventInput {
	in.Title = Text(in.Title)
	in.Description = HTML(in.Description)
	in.Location = Text(in.Location)
	in.Category = Text(in.Category)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	return in
}
