package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Fetcher retrieves one sub-resource. Implementations bound the download
// size and time themselves.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (data []byte, mimeType string, err error)
}

// HTTPFetcher downloads sub-resources over plain HTTP with a hard size cap.
type HTTPFetcher struct {
	client  *http.Client
	maxSize int64
}

func NewHTTPFetcher(timeout time.Duration, maxSize int64) *HTTPFetcher {
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		maxSize: maxSize,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > f.maxSize {
		return nil, "", fmt.Errorf("resource exceeds %d bytes", f.maxSize)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType != "" {
		if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
			mimeType = parsed
		}
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

// Inliner rewrites a document's external resource references into data
// URIs so the archived markup is self-contained. A resource that cannot
// be fetched is left as-is; one bad image never fails a capture.
type Inliner struct {
	fetch       Fetcher
	concurrency int
	logger      *zap.Logger
}

func NewInliner(fetch Fetcher, concurrency int, logger *zap.Logger) *Inliner {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inliner{fetch: fetch, concurrency: concurrency, logger: logger}
}

// resourceRef points at one attribute of one node that names an external
// resource.
type resourceRef struct {
	node     *html.Node
	attrIdx  int
	resolved string
}

// Inline embeds every fetchable sub-resource and reports how many were
// embedded and how many were skipped.
func (i *Inliner) Inline(ctx context.Context, doc *Document) (inlined, skipped int) {
	refs := collectRefs(doc)
	if len(refs) == 0 {
		return 0, 0
	}

	type result struct {
		idx     int
		dataURI string
	}

	jobs := make(chan int)
	results := make(chan result, len(refs))

	var wg sync.WaitGroup
	for w := 0; w < i.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				ref := refs[idx]
				data, mimeType, err := i.fetch.Fetch(ctx, ref.resolved)
				if err != nil {
					i.logger.Debug("skipping sub-resource",
						zap.String("url", ref.resolved),
						zap.Error(err))
					results <- result{idx: idx}
					continue
				}
				uri := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
				results <- result{idx: idx, dataURI: uri}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for idx := range refs {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Workers never touch the tree; attribute rewrites happen here, on the
	// caller's goroutine, once each fetch settles.
	for res := range results {
		if res.dataURI == "" {
			continue
		}
		ref := refs[res.idx]
		ref.node.Attr[ref.attrIdx].Val = res.dataURI
		inlined++
	}

	// Anything not embedded, whether the fetch failed or the context ended
	// before the job was handed out, counts as skipped.
	return inlined, len(refs) - inlined
}

// collectRefs walks the tree picking out attributes that reference
// external resources worth embedding.
func collectRefs(doc *Document) []resourceRef {
	var refs []resourceRef
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attrName, ok := embeddableAttr(n); ok {
				for idx, attr := range n.Attr {
					if attr.Key != attrName || attr.Val == "" {
						continue
					}
					if resolved, ok := resolveRef(doc.URL, attr.Val); ok {
						refs = append(refs, resourceRef{node: n, attrIdx: idx, resolved: resolved})
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc.Root)
	return refs
}

// embeddableAttr names the resource-bearing attribute of elements we
// embed. Scripts are dropped rather than embedded; an archive is a
// snapshot, not a running page.
func embeddableAttr(n *html.Node) (string, bool) {
	switch n.Data {
	case "img", "source", "audio", "video", "embed":
		return "src", true
	case "link":
		for _, attr := range n.Attr {
			if attr.Key != "rel" {
				continue
			}
			rel := strings.ToLower(attr.Val)
			if strings.Contains(rel, "stylesheet") || strings.Contains(rel, "icon") {
				return "href", true
			}
		}
	}
	return "", false
}

func resolveRef(base *url.URL, raw string) (string, bool) {
	if strings.HasPrefix(raw, "data:") {
		return "", false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	return ref.String(), true
}
