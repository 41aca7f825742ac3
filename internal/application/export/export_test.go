package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-workshop-api/internal/domain/entity"
)

func sampleBook() *entity.PersistedBook {
	return &entity.PersistedBook{
		ID:          "1",
		Title:       "The Swan",
		Genres:      []string{"fantasy", "fairy tale"},
		Description: "A swan learns\nto sing.",
		Characters:  []entity.Character{{Name: "Odette", Role: entity.RoleMain, Personality: "brave"}},
		Chapters: []entity.Chapter{
			{Title: "Lake", Text: "It was cold."},
			{Title: "", Text: "Spring came."},
		},
		Illustrations: []entity.Illustration{
			{ImageURL: "https://img/1.png", Order: 1},
			{ImageURL: "https://img/2.png", Order: 2},
			{ImageURL: "https://img/3.png", Order: 3},
		},
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleBook())

	assert.True(t, strings.HasPrefix(md, "# The Swan\n"))
	assert.Contains(t, md, "- Genre: fantasy, fairy tale")
	assert.Contains(t, md, "> A swan learns to sing.")
	assert.Contains(t, md, "- **Odette** (main): brave")
	assert.Contains(t, md, "## Lake\n\nIt was cold.")
	assert.Contains(t, md, "## Chapter 2")

	// 插图保持顺序
	i1 := strings.Index(md, "img/1.png")
	i2 := strings.Index(md, "img/2.png")
	i3 := strings.Index(md, "img/3.png")
	assert.True(t, i1 < i2 && i2 < i3)
	assert.True(t, strings.Index(md, "## Chapter 2") < i3)
}

func TestMarkdown_IllustrationsWithoutChapters(t *testing.T) {
	b := sampleBook()
	b.Chapters = nil
	md := Markdown(b)
	assert.Contains(t, md, "## Illustrations")
	assert.Equal(t, 3, strings.Count(md, "![Illustration"))
}

func TestHTML(t *testing.T) {
	b := sampleBook()
	b.Title = "Swan & Lake"
	out, err := HTML(b)
	require.NoError(t, err)

	assert.Contains(t, out, "<title>Swan &amp; Lake</title>")
	assert.Contains(t, out, "<h2>Lake</h2>")
	assert.Contains(t, out, `<img src="https://img/1.png" alt="Illustration 1">`)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	f, err = ParseFormat("HTML")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)
	assert.Contains(t, f.ContentType(), "text/html")

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestPlaceIllustrations(t *testing.T) {
	assert.Equal(t, [][]int{{0, 1}, {2}}, placeIllustrations(3, 2))
	assert.Equal(t, [][]int{{0}, nil, {1}, nil}, placeIllustrations(2, 4))
}
