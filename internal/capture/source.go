package capture

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html"

	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

// Document is a loaded page before inlining: the parsed DOM plus the URL
// it was served from, which anchors relative resource references.
type Document struct {
	Root *html.Node
	URL  *url.URL
}

// PageSource loads the target page and hands back its DOM. Sources decide
// for themselves what "loaded" means; a browser source waits out the load
// grace period, a plain HTTP source is done when the body arrives.
type PageSource interface {
	Load(ctx context.Context, rawURL string) (*Document, error)
}

// HTTPSource fetches the page with a plain GET. It sees only the served
// markup, not anything scripts render afterwards.
type HTTPSource struct {
	client *http.Client
}

func NewHTTPSource(timeout time.Duration) *HTTPSource {
	return &HTTPSource{client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSource) Load(ctx context.Context, rawURL string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid page url")
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("load page: unexpected status %d", resp.StatusCode)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	// Redirects may have moved us; the final URL is the one that anchors
	// relative references.
	return &Document{Root: root, URL: resp.Request.URL}, nil
}
