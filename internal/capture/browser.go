package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/net/html"
)

// BrowserSource loads pages through a headless Chromium so scripted
// content is rendered before the scrape. The grace timeout bounds the
// wait for the load event; when it expires, capture proceeds with
// whatever DOM the page has built so far.
type BrowserSource struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	grace   time.Duration
}

// NewBrowserSource launches the browser. Call Close when done.
func NewBrowserSource(grace time.Duration, headless bool) (*BrowserSource, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		pw.Stop() //nolint:errcheck
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &BrowserSource{pw: pw, browser: browser, grace: grace}, nil
}

func (s *BrowserSource) Load(ctx context.Context, rawURL string) (*Document, error) {
	page, err := s.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close() //nolint:errcheck

	waitUntil := playwright.WaitUntilStateLoad
	_, err = page.Goto(rawURL, playwright.PageGotoOptions{
		WaitUntil: waitUntil,
		Timeout:   playwright.Float(float64(s.grace.Milliseconds())),
	})
	if err != nil && !errors.Is(err, playwright.ErrTimeout) {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("read page content: %w", err)
	}

	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	final, err := url.Parse(page.URL())
	if err != nil {
		final, _ = url.Parse(rawURL)
	}
	return &Document{Root: root, URL: final}, nil
}

// Close shuts the browser down and stops the driver.
func (s *BrowserSource) Close() error {
	if err := s.browser.Close(); err != nil {
		return err
	}
	return s.pw.Stop()
}
