package capture

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type fetcherStub struct {
	responses map[string][]byte
	mimeType  string
}

func (f *fetcherStub) Fetch(_ context.Context, rawURL string) ([]byte, string, error) {
	data, ok := f.responses[rawURL]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return data, f.mimeType, nil
}

func parseDoc(t *testing.T, markup, base string) *Document {
	t.Helper()
	root, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	baseURL, err := url.Parse(base)
	require.NoError(t, err)
	return &Document{Root: root, URL: baseURL}
}

func TestInlineEmbedsFetchableResources(t *testing.T) {
	doc := parseDoc(t, `<html><head>
		<link rel="stylesheet" href="/style.css">
	</head><body>
		<img src="/a.png">
		<img src="https://cdn.example.com/b.png">
	</body></html>`, "https://example.com/article")

	fetch := &fetcherStub{
		mimeType: "image/png",
		responses: map[string][]byte{
			"https://example.com/style.css": []byte("body{}"),
			"https://example.com/a.png":     []byte{1, 2, 3},
			"https://cdn.example.com/b.png": []byte{4, 5, 6},
		},
	}

	inlined, skipped := NewInliner(fetch, 2, nil).Inline(context.Background(), doc)
	assert.Equal(t, 3, inlined)
	assert.Equal(t, 0, skipped)

	rendered, err := Render(doc.Root)
	require.NoError(t, err)
	assert.NotContains(t, rendered, `src="/a.png"`)
	assert.Contains(t, rendered, "data:image/png;base64,")
}

func TestInlineSkipsFailingResourceAndContinues(t *testing.T) {
	doc := parseDoc(t, `<body>
		<img src="/ok.png">
		<img src="/missing.png">
	</body>`, "https://example.com/")

	fetch := &fetcherStub{
		mimeType:  "image/png",
		responses: map[string][]byte{"https://example.com/ok.png": {1}},
	}

	inlined, skipped := NewInliner(fetch, 2, nil).Inline(context.Background(), doc)
	assert.Equal(t, 1, inlined)
	assert.Equal(t, 1, skipped)

	rendered, err := Render(doc.Root)
	require.NoError(t, err)
	assert.Contains(t, rendered, "data:image/png;base64,")
	assert.Contains(t, rendered, `src="/missing.png"`)
}

func TestInlineIgnoresNonEmbeddableReferences(t *testing.T) {
	doc := parseDoc(t, `<body>
		<img src="data:image/png;base64,AAAA">
		<img src="ftp://example.com/x.png">
		<a href="/page">link</a>
		<script src="/app.js"></script>
	</body>`, "https://example.com/")

	fetch := &fetcherStub{responses: map[string][]byte{}}
	inlined, skipped := NewInliner(fetch, 2, nil).Inline(context.Background(), doc)
	assert.Equal(t, 0, inlined)
	assert.Equal(t, 0, skipped)
}

func TestHTTPFetcherEnforcesSizeCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(make([]byte, 64)) //nolint:errcheck
	}))
	defer server.Close()

	fetch := NewHTTPFetcher(0, 16)
	_, _, err := fetch.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")

	fetch = NewHTTPFetcher(0, 1024)
	data, mimeType, err := fetch.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, data, 64)
	assert.Equal(t, "image/png", mimeType)
}
