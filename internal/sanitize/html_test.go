package sanitize

import (
	"testing"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/stretchr/testify/require"
)

func TestEventInput(t *testing.T) {
	in := model.EventInput{
		Title:       "  <b>Conf2025</b> ",
		Description: `<p>Talks <script>alert(1)</script><a href="https://example.com" onclick="x()">here</a></p>`,
		Location:    "<i>Hall A</i>",
		Category:    "Tech<img src=x onerror=alert(1)>",
		ImageURL:    " https://example.com/a.png ",
		Capacity:    2,
	}

	out := EventInput(in)
	require.Equal(t, "Conf2025", out.Title)
	require.Equal(t, "Hall A", out.Location)
	require.Equal(t, "Tech", out.Category)
	require.Equal(t, "https://example.com/a.png", out.ImageURL)
	require.Equal(t, 2, out.Capacity)
	require.NotContains(t, out.Description, "script")
	require.NotContains(t, out.Description, "onclick")
	require.Contains(t, out.Description, "<p>")
	require.Contains(t, out.Description, `href="https://example.com"`)
}

func TestTextKeepsPlainCharacters(t *testing.T) {
	tests := map[string]string{
		"Rock & Roll":             "Rock & Roll",
		"O'Brien Hall":            "O'Brien Hall",
		`"Quoted" <b>bold</b>`:    `"Quoted" bold`,
		"Tom &amp; Jerry":         "Tom & Jerry",
		"  <em>R&D</em> Summit  ": "R&D Summit",
	}
	for in, want := range tests {
		require.Equal(t, want, Text(in), in)
	}
}
