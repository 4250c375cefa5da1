package sources_test

import (
	"errors"
	"net/url"
	"testing"

	"github.com/rohmanhakim/event-scraper/internal/scraper"
	"github.com/rohmanhakim/event-scraper/internal/scraper/sources"
	"github.com/rohmanhakim/event-scraper/pkg/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const symplaFixture = `<html><body>
<a href="/evento/rock-no-parque/123" class="sympla-card">
  <img src="//images.sympla.com.br/rock.jpg" alt="Rock no Parque">
  <h3>Rock no Parque</h3>
  <time>Sáb, 15 de março de 2024 às 20h</time>
  <div data-testid="event-location">Parque Ibirapuera, São Paulo, SP</div>
  <span data-testid="event-price">R$ 80,00</span>
  <div data-testid="event-organizer">Produtora X</div>
</a>
<a href="/evento/vazio/9"><span></span></a>
</body></html>`

func TestSympla_ExtractEventData(t *testing.T) {
	s := sources.NewSympla()
	els := elementsOf(t, symplaFixture, s.ContainerSelector())
	require.Len(t, els, 2)

	raw, err := s.ExtractEventData(els[0], "https://www.sympla.com.br/pesquisar?s=rock")
	require.NoError(t, err)
	assert.Equal(t, "Rock no Parque", raw.Title)
	assert.Equal(t, "Sáb, 15 de março de 2024 às 20h", raw.DateText)
	assert.Equal(t, "Parque Ibirapuera, São Paulo, SP", raw.LocationText)
	assert.Equal(t, "https://images.sympla.com.br/rock.jpg", raw.ImageURL)
	assert.Equal(t, "Rock no Parque", raw.ImageAlt)
	assert.Equal(t, "R$ 80,00", raw.PriceText)
	assert.Equal(t, "Produtora X", raw.Organizer)
	assert.Equal(t, "https://www.sympla.com.br/evento/rock-no-parque/123", raw.URL)
	assert.Empty(t, raw.Description)
}

func TestSympla_ExtractEventData_LinkOnlyElementIsKept(t *testing.T) {
	s := sources.NewSympla()
	els := elementsOf(t, symplaFixture, s.ContainerSelector())
	require.Len(t, els, 2)

	raw, err := s.ExtractEventData(els[1], "https://www.sympla.com.br/")
	require.NoError(t, err)
	assert.Empty(t, raw.Title)
	assert.Equal(t, "https://www.sympla.com.br/evento/vazio/9", raw.URL)
}

func TestEventbrite_ExtractEventData_NotAListing(t *testing.T) {
	e := sources.NewEventbrite()
	els := elementsOf(t, `<div data-testid="search-event"><p></p></div>`, e.ContainerSelector())
	require.Len(t, els, 1)

	_, err := e.ExtractEventData(els[0], "https://www.eventbrite.com.br/d/brazil/shows/")
	require.Error(t, err)

	var scraperErr *scraper.ScraperError
	require.True(t, errors.As(err, &scraperErr))
	assert.Equal(t, scraper.ErrCauseExtractFailed, scraperErr.Cause)
	assert.Equal(t, failure.ErrorTypeParsing, scraperErr.ErrorType())
}

func TestEventbrite_FieldFallback(t *testing.T) {
	e := sources.NewEventbrite()
	markup := `<div data-testid="search-event">
  <a class="event-card-link" href="https://www.eventbrite.com.br/e/festival-123"></a>
  <h2>Festival de Inverno</h2>
  <p>20 de julho de 2024</p>
  <p>Centro de Eventos, Curitiba, PR</p>
</div>`
	els := elementsOf(t, markup, e.ContainerSelector())
	require.Len(t, els, 1)

	raw, err := e.ExtractEventData(els[0], "https://www.eventbrite.com.br/d/brazil/festival/")
	require.NoError(t, err)
	assert.Equal(t, "Festival de Inverno", raw.Title)
	assert.Equal(t, "20 de julho de 2024", raw.DateText)
	assert.Equal(t, "Centro de Eventos, Curitiba, PR", raw.LocationText)
	assert.Equal(t, "https://www.eventbrite.com.br/e/festival-123", raw.URL)
	assert.Empty(t, raw.ImageURL)
}

func TestSearchURL(t *testing.T) {
	tests := []struct {
		name   string
		source scraper.Source
		query  scraper.SearchQuery
		want   string
	}{
		{
			name:   "sympla full text",
			source: sources.NewSympla(),
			query:  scraper.SearchQuery{Dimension: scraper.DimensionCategory, Term: "musica ao vivo"},
			want:   "https://www.sympla.com.br/pesquisar?s=musica+ao+vivo",
		},
		{
			name:   "eventbrite region",
			source: sources.NewEventbrite(),
			query:  scraper.SearchQuery{Dimension: scraper.DimensionRegional, Term: "São Paulo"},
			want:   "https://www.eventbrite.com.br/d/brazil--sao-paulo/events/",
		},
		{
			name:   "eventbrite keyword",
			source: sources.NewEventbrite(),
			query:  scraper.SearchQuery{Dimension: scraper.DimensionNational, Term: "Turnê Nacional!"},
			want:   "https://www.eventbrite.com.br/d/brazil/turne-nacional/",
		},
		{
			name:   "base url override",
			source: sources.NewSympla(sources.WithBaseURL("http://127.0.0.1:8080/")),
			query:  scraper.SearchQuery{Term: "teatro"},
			want:   "http://127.0.0.1:8080/pesquisar?s=teatro",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.source.SearchURL(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			_, err = url.Parse(got)
			assert.NoError(t, err)
		})
	}
}

func TestEventbrite_SearchURL_EmptyTerm(t *testing.T) {
	_, err := sources.NewEventbrite().SearchURL(scraper.SearchQuery{Term: "  !! "})
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"eventbrite", "sympla"}, sources.Names())

	all := sources.All()
	require.Len(t, all, 2)
	assert.Equal(t, "eventbrite", all[0].Name())
	assert.Equal(t, "www.eventbrite.com.br", all[0].Domain())
	assert.Equal(t, "www.sympla.com.br", all[1].Domain())

	s, err := sources.ByName(" Sympla ")
	require.NoError(t, err)
	assert.Equal(t, "sympla", s.Name())

	_, err = sources.ByName("ticketmaster")
	assert.ErrorContains(t, err, "unknown source")
}

func TestFieldSelectors_ReturnsCopy(t *testing.T) {
	s := sources.NewSympla(sources.WithFieldSelectors(sources.FieldTitle, ".custom-title"))
	fields := s.FieldSelectors()
	assert.Equal(t, []string{".custom-title"}, fields[sources.FieldTitle])

	fields[sources.FieldTitle][0] = "mutated"
	assert.Equal(t, []string{".custom-title"}, s.FieldSelectors()[sources.FieldTitle])

	target := scraper.MonitorTarget(s)
	assert.Equal(t, "sympla", target.Source)
	assert.Equal(t, "https://www.sympla.com.br/eventos", target.URL)
	assert.Equal(t, s.ContainerSelector(), target.Container)
}
