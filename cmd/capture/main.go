// Command capture archives one URL end to end: it wires the popup,
// background, and content-script contexts over the channel (in-process
// router by default, Redis pub/sub with -transport=redis), captures the
// page, and saves the result to the archive server.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/pagevault/pagevault/internal/capture"
	"github.com/pagevault/pagevault/internal/channel"
	"github.com/pagevault/pagevault/internal/client"
	"github.com/pagevault/pagevault/internal/extension"
	"github.com/pagevault/pagevault/pkg/cache"
	"github.com/pagevault/pagevault/pkg/config"
	"github.com/pagevault/pagevault/pkg/logger"
)

func main() {
	var (
		pageURL    string
		folderID   int64
		token      string
		serverBase string
		useBrowser bool
		transport  string
	)

	flag.StringVar(&pageURL, "url", "", "page URL to archive")
	flag.Int64Var(&folderID, "folder", 0, "target folder id")
	flag.StringVar(&token, "token", "", "archive server bearer token")
	flag.StringVar(&serverBase, "server", "http://localhost:8080/api/v1", "archive API base URL")
	flag.BoolVar(&useBrowser, "browser", false, "render the page in headless Chromium before scraping")
	flag.StringVar(&transport, "transport", "inproc", "channel transport: inproc or redis")
	flag.Parse()

	if pageURL == "" || folderID <= 0 {
		log.Fatal("both -url and -folder are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var popup, backgroundEP, contentEP *channel.Endpoint
	switch transport {
	case "inproc":
		router := channel.NewRouter(cfg.Channel.InvokeTimeout)
		popup = router.Attach(channel.ContextPopup)
		backgroundEP = router.Attach(channel.ContextBackground)
		contentEP = router.Attach(channel.ContextContentScript)
	case "redis":
		rdb, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		defer rdb.Close() //nolint:errcheck

		rt := channel.NewRedisTransport(rdb, logr)
		popup = channel.NewEndpoint(channel.ContextPopup, rt, cfg.Channel.InvokeTimeout)
		backgroundEP = channel.NewEndpoint(channel.ContextBackground, rt, cfg.Channel.InvokeTimeout)
		contentEP = channel.NewEndpoint(channel.ContextContentScript, rt, cfg.Channel.InvokeTimeout)
		for _, ep := range []*channel.Endpoint{popup, backgroundEP, contentEP} {
			go rt.Listen(ctx, ep) //nolint:errcheck
		}
		// Request-topic subscriptions must be live before the first invoke.
		time.Sleep(100 * time.Millisecond)
	default:
		logr.Sugar().Fatalw("unknown transport", "transport", transport)
	}

	tokens := extension.NewMemoryTokenStore()
	tokens.Set(token)
	api := client.New(serverBase, tokens.Get)
	background := extension.NewBackground(backgroundEP, api, tokens, logr)

	var source capture.PageSource
	if useBrowser {
		browser, err := capture.NewBrowserSource(cfg.Capture.LoadGraceTimeout, cfg.Capture.Headless)
		if err != nil {
			logr.Sugar().Fatalw("failed to launch browser", "error", err)
		}
		defer browser.Close() //nolint:errcheck
		source = browser
	} else {
		source = capture.NewHTTPSource(cfg.Capture.LoadGraceTimeout)
	}

	const tabID = 1
	fetcher := capture.NewHTTPFetcher(cfg.Capture.ResourceTimeout, cfg.Capture.MaxResourceSize)
	inliner := capture.NewInliner(fetcher, cfg.Capture.InlineConcurrency, logr)
	agent := capture.NewAgent(tabID, pageURL, source, inliner, capture.NewChannelEmitter(contentEP), logr)
	agent.Register(contentEP)
	background.RegisterTab(tabID, channel.ContextContentScript)

	orch := capture.NewOrchestrator(popup, logr)

	progressStop := make(chan struct{})
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		last := orch.Stage(tabID)
		for {
			select {
			case <-ticker.C:
				if stage := orch.Stage(tabID); stage != last {
					logr.Sugar().Infow("capture progress", "stage", stage.String())
					last = stage
				}
			case <-progressStop:
				return
			}
		}
	}()

	data, err := orch.StartCapture(ctx, tabID)
	close(progressStop)
	<-progressDone
	if err != nil {
		logr.Sugar().Fatalw("capture failed", "url", pageURL, "error", err)
	}

	var ack channel.SuccessResponse
	err = popup.Invoke(context.Background(), channel.ContextBackground, channel.SavePage, channel.SavePageRequest{
		Content:  data.Content,
		Title:    data.Title,
		Href:     data.Href,
		FolderID: folderID,
		PageDesc: data.PageDesc,
	}, &ack)
	if err != nil {
		logr.Sugar().Fatalw("save failed", "title", data.Title, "error", err)
	}

	logr.Sugar().Infow("page archived", "title", data.Title, "href", data.Href, "folder", folderID)
}
