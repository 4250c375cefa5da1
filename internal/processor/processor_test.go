package processor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/event-scraper/internal/category"
	"github.com/rohmanhakim/event-scraper/internal/dateparse"
	"github.com/rohmanhakim/event-scraper/internal/metadata"
	"github.com/rohmanhakim/event-scraper/internal/processor"
)

var fixedNow = time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

func newTestProcessor() *processor.Processor {
	clock := func() time.Time { return fixedNow }
	return processor.NewProcessor(
		dateparse.NewParser(dateparse.WithClock(clock)),
		category.NewClassifier(category.DefaultTable()),
		&metadata.NoopSink{},
	).WithClock(clock)
}

func fullRaw() processor.RawEvent {
	return processor.RawEvent{
		Title:        "  Show de   Rock  no Parque ",
		DateText:     "Sáb, 15 de março de 2024 às 20h",
		LocationText: "Allianz Parque, Av. Francisco Matarazzo, 1705, São Paulo - SP",
		ImageURL:     "http://images.example.com/rock.jpg",
		ImageAlt:     "Palco",
		PriceText:    "R$ 80,00 - R$ 1.250,50",
		Description:  "<p>Uma noite de <strong>rock</strong> ao ar livre.</p>",
		Organizer:    "Produtora X",
		URL:          "https://www.sympla.com.br/evento/show-de-rock/123?utm_source=home",
		Source:       "sympla",
		ScrapedAt:    fixedNow,
	}
}

func TestProcessEventData_FullRecord(t *testing.T) {
	p := newTestProcessor()

	res, err := p.ProcessEventData(fullRaw(), "sympla")
	require.Nil(t, err)
	require.True(t, res.Success, res.Errors)
	ev := res.Event

	assert.Equal(t, "Show de Rock no Parque", ev.Title)
	require.NotNil(t, ev.Date)
	assert.Equal(t, time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC), *ev.Date)
	assert.Equal(t, processor.Location{
		Venue:   "Allianz Parque",
		Address: "Av. Francisco Matarazzo, 1705",
		City:    "São Paulo",
		State:   "SP",
	}, ev.Location)
	require.NotNil(t, ev.Image)
	assert.Equal(t, "https://images.example.com/rock.jpg", ev.Image.URL)
	assert.Equal(t, "Palco", ev.Image.Alt)
	require.NotNil(t, ev.Price)
	assert.Equal(t, processor.Price{Min: 80, Max: 1250.5, Currency: "BRL"}, *ev.Price)
	assert.Equal(t, "Uma noite de **rock** ao ar livre.", ev.Description)
	assert.Equal(t, "https://www.sympla.com.br/evento/show-de-rock/123", ev.URL)
	assert.Equal(t, "shows", ev.Category)
	assert.Greater(t, ev.CategoryConfidence, 0.0)
	assert.Contains(t, ev.Tags, "ao-ar-livre")
	assert.InDelta(t, 1.0, ev.QualityScore, 1e-9)
	assert.Len(t, ev.ContentHash, 64)
	assert.Equal(t, "sympla", ev.Source)
}

func TestProcessEventData_MissingFieldsAccumulate(t *testing.T) {
	p := newTestProcessor()

	res, err := p.ProcessEventData(processor.RawEvent{}, "sympla")
	require.Nil(t, err)
	assert.False(t, res.Success)
	assert.Nil(t, res.Event)
	assert.Equal(t, []string{
		processor.CodeMissingTitle,
		processor.CodeMissingDate,
		processor.CodeMissingLocation,
	}, res.Errors)
}

func TestProcessEventData_MissingTitleOnly(t *testing.T) {
	p := newTestProcessor()
	raw := fullRaw()
	raw.Title = "   "

	res, err := p.ProcessEventData(raw, "sympla")
	require.Nil(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, []string{processor.CodeMissingTitle}, res.Errors)
}

func TestProcessEventData_Rules(t *testing.T) {
	tests := []struct {
		name   string
		rules  processor.Rules
		mutate func(*processor.RawEvent)
		want   []string
	}{
		{
			name:   "title shorter than minimum",
			rules:  processor.Rules{MinTitleLength: 10},
			mutate: func(r *processor.RawEvent) { r.Title = "Show" },
			want:   []string{processor.CodeTitleTooShort},
		},
		{
			name:   "unparseable date",
			rules:  processor.DefaultRules(),
			mutate: func(r *processor.RawEvent) { r.DateText = "em breve" },
			want:   []string{processor.CodeInvalidDate},
		},
		{
			name:   "past date with future-only",
			rules:  processor.Rules{FutureOnly: true},
			mutate: func(r *processor.RawEvent) { r.DateText = "05/01/2024" },
			want:   []string{processor.CodePastDate},
		},
		{
			name:   "past date allowed without future-only",
			rules:  processor.Rules{FutureOnly: false},
			mutate: func(r *processor.RawEvent) { r.DateText = "05/01/2024" },
			want:   nil,
		},
		{
			name:   "today is not past",
			rules:  processor.Rules{FutureOnly: true},
			mutate: func(r *processor.RawEvent) { r.DateText = "10/01/2024" },
			want:   nil,
		},
		{
			name:  "image and description required",
			rules: processor.Rules{RequireImage: true, RequireDescription: true},
			mutate: func(r *processor.RawEvent) {
				r.ImageURL = ""
				r.Description = "  "
			},
			want: []string{processor.CodeMissingImage, processor.CodeMissingDescription},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor().WithRules("sympla", tt.rules)
			raw := fullRaw()
			tt.mutate(&raw)

			res, err := p.ProcessEventData(raw, "sympla")
			require.Nil(t, err)
			if tt.want == nil {
				assert.True(t, res.Success, res.Errors)
				return
			}
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Errors)
		})
	}
}

func TestProcessEventData_MissingSourceIsCallerError(t *testing.T) {
	p := newTestProcessor()
	_, err := p.ProcessEventData(fullRaw(), "")
	require.NotNil(t, err)

	var procErr *processor.ProcessorError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, processor.ErrCauseMissingSource, procErr.Cause)
}

func TestProcessEventData_FreePrice(t *testing.T) {
	p := newTestProcessor()
	raw := fullRaw()
	raw.PriceText = "Entrada gratuita"

	res, err := p.ProcessEventData(raw, "sympla")
	require.Nil(t, err)
	require.True(t, res.Success)
	assert.True(t, res.Event.Price.IsFree)
	assert.Contains(t, res.Event.Tags, "gratuito")
}

func TestContentHash(t *testing.T) {
	d := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)
	other := d.Add(time.Hour)

	base := processor.ContentHash("Show de Rock", &d, "Allianz Parque")
	assert.Equal(t, base, processor.ContentHash("show de rock", &d, "ALLIANZ PARQUE"))
	assert.NotEqual(t, base, processor.ContentHash("Show de Jazz", &d, "Allianz Parque"))
	assert.NotEqual(t, base, processor.ContentHash("Show de Rock", &other, "Allianz Parque"))
	assert.NotEqual(t, base, processor.ContentHash("Show de Rock", &d, "Arena"))
	assert.NotEqual(t, base, processor.ContentHash("Show de Rock", nil, "Allianz Parque"))
}

func TestQualityScore(t *testing.T) {
	d := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	full := processor.Event{
		Title:       "Show",
		Date:        &d,
		Location:    processor.Location{Venue: "Arena"},
		Image:       &processor.Image{URL: "https://x/y.jpg"},
		Description: "desc",
		URL:         "https://x/e",
	}
	titleOnly := processor.Event{Title: "Show"}

	assert.InDelta(t, 1.0, processor.QualityScore(full), 1e-9)
	assert.InDelta(t, 0.25, processor.QualityScore(titleOnly), 1e-9)
	assert.Greater(t, processor.QualityScore(full), processor.QualityScore(titleOnly))
	assert.Zero(t, processor.QualityScore(processor.Event{}))
}

func TestProcessEventsBatch_DedupAndPartition(t *testing.T) {
	p := newTestProcessor()

	dup := fullRaw()
	dup.Title = "SHOW DE ROCK NO PARQUE"
	dup.URL = "https://www.sympla.com.br/evento/outro-link/999"

	bad := fullRaw()
	bad.Title = ""

	other := fullRaw()
	other.Title = "Festival de Jazz"

	res := p.ProcessEventsBatch([]processor.RawEvent{fullRaw(), dup, bad, other}, "sympla")

	require.Len(t, res.Successful, 2)
	assert.Equal(t, "Show de Rock no Parque", res.Successful[0].Title)
	assert.Equal(t, "Festival de Jazz", res.Successful[1].Title)
	require.Len(t, res.Rejected, 2)
	assert.Equal(t, []string{processor.CodeDuplicate}, res.Rejected[0].Errors)
	assert.Equal(t, []string{processor.CodeMissingTitle}, res.Rejected[1].Errors)
	assert.Empty(t, res.Errors)

	assert.Equal(t, processor.ProcessingStats{
		Total:      4,
		Successful: 2,
		Rejected:   2,
		Duplicates: 1,
		ByReason:   map[string]int{processor.CodeDuplicate: 1, processor.CodeMissingTitle: 1},
	}, res.Stats)
}

func TestProcessEventsBatch_MissingSource(t *testing.T) {
	p := newTestProcessor()
	res := p.ProcessEventsBatch([]processor.RawEvent{fullRaw()}, " ")
	assert.Len(t, res.Errors, 1)
	assert.Empty(t, res.Successful)
}
