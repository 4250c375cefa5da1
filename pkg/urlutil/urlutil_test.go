package urlutil_test

import (
	"net/url"
	"testing"

	"github.com/rohmanhakim/event-scraper/pkg/urlutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases scheme and host",
			input: "HTTPS://WWW.Sympla.com.br/evento/show",
			want:  "https://www.sympla.com.br/evento/show",
		},
		{
			name:  "drops default https port",
			input: "https://www.eventbrite.com.br:443/e/festival",
			want:  "https://www.eventbrite.com.br/e/festival",
		},
		{
			name:  "keeps non-default port",
			input: "http://localhost:8080/events/",
			want:  "http://localhost:8080/events",
		},
		{
			name:  "removes fragment and trailing slashes",
			input: "https://example.com/e/123///#tickets",
			want:  "https://example.com/e/123",
		},
		{
			name:  "strips tracking parameters only",
			input: "https://example.com/e?id=9&utm_source=x&fbclid=abc",
			want:  "https://example.com/e?id=9",
		},
		{
			name:  "root path preserved",
			input: "https://example.com/",
			want:  "https://example.com/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.input)
			require.NoError(t, err)
			got := urlutil.Canonicalize(*u)
			assert.Equal(t, tt.want, got.String())

			again := urlutil.Canonicalize(got)
			assert.Equal(t, got.String(), again.String(), "idempotent")
		})
	}
}

func TestCanonicalString_Unparseable(t *testing.T) {
	assert.Equal(t, "not a url", urlutil.CanonicalString("  not a url "))
	assert.Equal(t, "https://a.com/x", urlutil.CanonicalString("https://A.com/x/"))
}

func TestForceHTTPS(t *testing.T) {
	tests := map[string]string{
		"http://img.example.com/a.jpg":  "https://img.example.com/a.jpg",
		"HTTP://img.example.com/a.jpg":  "https://img.example.com/a.jpg",
		"//cdn.example.com/a.png":       "https://cdn.example.com/a.png",
		"https://img.example.com/a.jpg": "https://img.example.com/a.jpg",
		"/relative/a.jpg":               "/relative/a.jpg",
		"":                              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, urlutil.ForceHTTPS(in), in)
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "https://example.com/e/1", urlutil.Resolve("https://example.com/search?q=x", "/e/1"))
	assert.Equal(t, "https://other.com/x", urlutil.Resolve("https://example.com/", "https://other.com/x"))
	assert.Equal(t, "", urlutil.Resolve("https://example.com/", "  "))
}

func TestHost(t *testing.T) {
	assert.Equal(t, "www.sympla.com.br", urlutil.Host("https://WWW.SYMPLA.com.br:443/eventos"))
	assert.Equal(t, "", urlutil.Host("::bad"))
}

func TestWithQuery(t *testing.T) {
	got, err := urlutil.WithQuery("https://www.sympla.com.br/eventos?page=1", "s", "rock em são paulo")
	require.NoError(t, err)
	assert.Equal(t, "https://www.sympla.com.br/eventos?page=1&s=rock+em+s%C3%A3o+paulo", got)
}
