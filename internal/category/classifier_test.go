package category_test

import (
	"strings"
	"testing"

	"github.com/rohmanhakim/event-scraper/internal/category"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyEvent(t *testing.T) {
	c := category.NewClassifier(category.DefaultTable())

	tests := []struct {
		name        string
		title       string
		description string
		want        string
	}{
		{name: "rock show", title: "Show de Rock", want: "shows"},
		{name: "accents are folded", title: "Peça de Teatro: Comédia", want: "teatro"},
		{name: "description only", title: "Sábado especial", description: "Uma corrida de 10km pelo parque", want: "esportes"},
		{name: "workshop", title: "Workshop de fotografia digital", want: "cursos"},
		{name: "nothing matches", title: "Encontro anual", description: "Venha conferir", want: category.Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ClassifyEvent(tt.title, tt.description)
			assert.Equal(t, tt.want, got.Category)
			if tt.want == category.Other {
				assert.Zero(t, got.Confidence)
			} else {
				assert.Greater(t, got.Confidence, 0.0)
				assert.LessOrEqual(t, got.Confidence, 1.0)
				assert.NotEmpty(t, got.MatchedKeywords)
			}
		})
	}
}

func TestClassifyEvent_TitleOutweighsDescription(t *testing.T) {
	c := category.NewClassifier(category.DefaultTable())

	inTitle := c.ClassifyEvent("Show imperdível", "")
	inDesc := c.ClassifyEvent("Imperdível", "show")

	require.Equal(t, "shows", inTitle.Category)
	require.Equal(t, "shows", inDesc.Category)
	assert.Greater(t, inTitle.Scores["shows"], inDesc.Scores["shows"])
	assert.Greater(t, inTitle.Confidence, inDesc.Confidence)
}

func TestClassifyEvent_PartialMatchesCountHalf(t *testing.T) {
	table := category.Table{Categories: []category.Category{
		{Name: "cursos", Keywords: []string{"curso"}, Priority: 1},
	}}
	c := category.NewClassifier(table)

	exact := c.ClassifyEvent("curso livre", "")
	partial := c.ClassifyEvent("percursos livres", "")

	assert.InDelta(t, 2*partial.Scores["cursos"], exact.Scores["cursos"], 1e-9)
}

func TestClassifyEvent_PriorityBreaksTies(t *testing.T) {
	table := category.Table{Categories: []category.Category{
		{Name: "low", Keywords: []string{"evento"}, Priority: 1},
		{Name: "high", Keywords: []string{"evento"}, Priority: 9},
	}}
	c := category.NewClassifier(table)

	assert.Equal(t, "high", c.ClassifyEvent("Evento", "").Category)
}

func TestClassifyEvent_BelowFloorFallsBackToOther(t *testing.T) {
	table := category.Table{Categories: []category.Category{
		{Name: "shows", Keywords: []string{"rock"}},
	}}
	c := category.NewClassifier(table)

	// a single substring hit in the description scores 0.5, confidence 0.5/3
	got := c.ClassifyEvent("", "rockabilly")
	assert.Equal(t, "shows", got.Category)

	got = c.ClassifyEvent("Encontro", "nada a ver")
	assert.Equal(t, category.Other, got.Category)
}

func TestClassifyEvent_Memoized(t *testing.T) {
	c := category.NewClassifier(category.DefaultTable())

	first := c.ClassifyEvent("Show de Rock", "no parque")
	second := c.ClassifyEvent("Show de Rock", "no parque")

	assert.Equal(t, first, second)
	stats := c.Stats()
	assert.Equal(t, 2, stats.Classified)
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 2, stats.ByCategory["shows"])
}

func TestExtractTags(t *testing.T) {
	c := category.NewClassifier(category.DefaultTable())

	tags := c.ExtractTags("Festival de Jazz ao ar livre", "Entrada franca, traga a família")
	assert.Equal(t, []string{"ao-ar-livre", "familia", "festival", "gratuito"}, tags)

	assert.Empty(t, c.ExtractTags("Palestra", "auditório"))
}

func TestLoadTable(t *testing.T) {
	table, err := category.LoadTable(strings.NewReader(`{
		"categories": [{"name": "shows", "keywords": ["show"], "priority": 3}],
		"regions": ["recife"],
		"tags": {"gratuito": ["gratis"]}
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"shows"}, table.Names())
	assert.Equal(t, []string{"recife"}, table.Regions)

	cat, ok := table.Lookup("shows")
	require.True(t, ok)
	assert.Equal(t, 3, cat.Priority)

	_, err = category.LoadTable(strings.NewReader(`{"categories": [{"keywords": ["x"]}]}`))
	assert.Error(t, err)

	_, err = category.LoadTable(strings.NewReader(`not json`))
	assert.Error(t, err)
}
