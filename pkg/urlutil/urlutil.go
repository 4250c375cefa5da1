package urlutil

import (
	"net/url"
	"strings"
)

// Canonicalize maps equivalent spellings of a listing URL to one form:
// lowercase scheme and host, default port dropped, trailing slashes and
// fragment removed. Tracking parameters are stripped; other query
// parameters are kept because ticketing sites key events on them.
func Canonicalize(sourceURL url.URL) url.URL {
	canonical := sourceURL
	canonical.Scheme = strings.ToLower(canonical.Scheme)
	canonical.Host = strings.ToLower(canonical.Host)

	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	for len(canonical.Path) > 1 && strings.HasSuffix(canonical.Path, "/") {
		canonical.Path = strings.TrimSuffix(canonical.Path, "/")
	}
	canonical.RawPath = ""

	canonical.Fragment = ""
	canonical.RawFragment = ""

	if canonical.RawQuery != "" {
		q := canonical.Query()
		for key := range q {
			if isTrackingParam(key) {
				q.Del(key)
			}
		}
		canonical.RawQuery = q.Encode()
	}
	canonical.ForceQuery = false
	return canonical
}

// CanonicalString parses raw and canonicalizes it. Unparseable input is
// returned trimmed but otherwise untouched.
func CanonicalString(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	c := Canonicalize(*u)
	return c.String()
}

// ForceHTTPS upgrades http and protocol-relative URLs to https.
// Relative or data URLs are returned unchanged.
func ForceHTTPS(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case len(raw) >= 7 && strings.EqualFold(raw[:7], "http://"):
		return "https://" + raw[7:]
	default:
		return raw
	}
}

// Resolve resolves ref against base. It returns ref unchanged when either
// fails to parse.
func Resolve(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// Host returns the lowercase hostname of raw, or "" if it has none.
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// WithQuery returns base with key set to value in its query string.
func WithQuery(base string, key, value string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func isTrackingParam(key string) bool {
	k := strings.ToLower(key)
	return strings.HasPrefix(k, "utm_") || k == "fbclid" || k == "gclid" || k == "ref" || k == "aff"
}
