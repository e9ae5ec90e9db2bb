package capture

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func mustParse(t *testing.T, markup string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return root
}

func TestMetaDescriptionPrefersStandardTag(t *testing.T) {
	doc := mustParse(t, `<head>
		<meta property="og:description" content="from og">
		<meta name="description" content="from meta">
	</head>`)
	assert.Equal(t, "from meta", MetaDescription(doc))
}

func TestMetaDescriptionFallsBackToOpenGraph(t *testing.T) {
	doc := mustParse(t, `<head><meta property="og:description" content="from og"></head>`)
	assert.Equal(t, "from og", MetaDescription(doc))
}

func TestTextExcerptSkipsScriptsAndTrims(t *testing.T) {
	doc := mustParse(t, `<body>
		<script>var hidden = 1;</script>
		<style>p{}</style>
		<p>First paragraph.</p>
		<p>Second paragraph.</p>
	</body>`)
	excerpt := TextExcerpt(doc, 200)
	assert.Equal(t, "First paragraph. Second paragraph.", excerpt)
	assert.NotContains(t, excerpt, "hidden")
}

func TestTextExcerptCutsAtWordBoundary(t *testing.T) {
	doc := mustParse(t, `<body><p>alpha beta gamma delta</p></body>`)
	excerpt := TextExcerpt(doc, 12)
	assert.Equal(t, "alpha beta", excerpt)
}

func TestTextExcerptKeepsMultibyteTextValid(t *testing.T) {
	// Space-free CJK text has no word boundary to fall back on, so the
	// cut must land between runes, not inside one.
	doc := mustParse(t, `<body><p>`+strings.Repeat("日本語の文章", 10)+`</p></body>`)
	excerpt := TextExcerpt(doc, 12)
	assert.True(t, utf8.ValidString(excerpt))
	assert.Equal(t, 12, utf8.RuneCountInString(excerpt))
	assert.Equal(t, strings.Repeat("日本語の文章", 2), excerpt)
}

func TestCanonicalHref(t *testing.T) {
	doc := mustParse(t, `<head>
		<link rel="stylesheet" href="/style.css">
		<link rel="canonical" href="https://example.com/true-home">
	</head>`)
	assert.Equal(t, "https://example.com/true-home", CanonicalHref(doc))

	assert.Empty(t, CanonicalHref(mustParse(t, `<head></head>`)))
}
