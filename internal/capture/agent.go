package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pagevault/pagevault/internal/channel"
	"github.com/pagevault/pagevault/internal/models"
	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

// descExcerptLen caps the visible-text fallback for pageDesc.
const descExcerptLen = 200

// ProgressEmitter reports stage transitions of a running capture. Emission
// is best-effort: a lost event degrades the progress display, never the
// capture itself.
type ProgressEmitter interface {
	EmitProgress(ctx context.Context, tabID int, stage models.CaptureStage) error
}

// Agent runs the capture pipeline for one tab: load the page, scrape its
// metadata, embed its sub-resources, and hand back a self-contained
// document.
type Agent struct {
	tabID   int
	pageURL string
	source  PageSource
	inliner *Inliner
	emitter ProgressEmitter
	logger  *zap.Logger
}

// NewAgent binds an agent to one tab and its page URL. The emitter may be
// nil when nobody is watching.
func NewAgent(tabID int, pageURL string, source PageSource, inliner *Inliner, emitter ProgressEmitter, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		tabID:   tabID,
		pageURL: pageURL,
		source:  source,
		inliner: inliner,
		emitter: emitter,
		logger:  logger,
	}
}

// Register serves the agent's capture over its context's endpoint.
func (a *Agent) Register(ep *channel.Endpoint) {
	ep.Handle(channel.ScrapePageData, func(ctx context.Context, _ interface{}) (interface{}, error) {
		data, err := a.Capture(ctx)
		if err != nil {
			return nil, err
		}
		return channel.PageDataResponse{
			Content:  data.Content,
			Title:    data.Title,
			Href:     data.Href,
			PageDesc: data.PageDesc,
		}, nil
	})
}

// Capture walks the pipeline to completion. Every run ends in exactly one
// terminal stage: Done with a result or Failed with an error.
func (a *Agent) Capture(ctx context.Context) (*models.PageData, error) {
	a.emit(ctx, models.StageNavigatingOrLoading)

	doc, err := a.source.Load(ctx, a.pageURL)
	if err != nil {
		return nil, a.fail(ctx, fmt.Errorf("load: %w", err))
	}

	a.emit(ctx, models.StageScraping)

	title := Title(doc.Root)
	if title == "" && doc.URL != nil {
		title = doc.URL.Host
	}
	href := CanonicalHref(doc.Root)
	if href == "" {
		href = a.pageURL
	}
	desc := MetaDescription(doc.Root)
	if desc == "" {
		desc = TextExcerpt(doc.Root, descExcerptLen)
	}

	if err := ctx.Err(); err != nil {
		return nil, a.fail(ctx, err)
	}

	a.emit(ctx, models.StageInliningResources)

	inlined, skipped := a.inliner.Inline(ctx, doc)
	if err := ctx.Err(); err != nil {
		return nil, a.fail(ctx, err)
	}

	content, err := Render(doc.Root)
	if err != nil {
		return nil, a.fail(ctx, fmt.Errorf("render: %w", err))
	}

	a.logger.Info("capture complete",
		zap.Int("tab_id", a.tabID),
		zap.String("url", a.pageURL),
		zap.Int("resources_inlined", inlined),
		zap.Int("resources_skipped", skipped))

	a.emit(ctx, models.StageDone)

	return &models.PageData{
		Content:  content,
		Title:    title,
		Href:     href,
		PageDesc: desc,
	}, nil
}

// fail emits the Failed stage and normalizes the pipeline error.
func (a *Agent) fail(ctx context.Context, err error) error {
	a.emit(ctx, models.StageFailed)
	if errors.Is(err, context.Canceled) {
		return appErrors.ErrCancelled
	}
	a.logger.Warn("capture failed",
		zap.Int("tab_id", a.tabID),
		zap.String("url", a.pageURL),
		zap.Error(err))
	return err
}

// emit sends a progress event without letting it interfere with the
// pipeline. Terminal events still go out after cancellation, so the
// emission context is detached from the capture's.
func (a *Agent) emit(ctx context.Context, stage models.CaptureStage) {
	if a.emitter == nil {
		return
	}
	emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := a.emitter.EmitProgress(emitCtx, a.tabID, stage); err != nil {
		a.logger.Debug("progress event dropped",
			zap.Int("tab_id", a.tabID),
			zap.String("stage", stage.String()),
			zap.Error(err))
	}
}

// ChannelEmitter forwards progress events to the background context over
// the channel.
type ChannelEmitter struct {
	ep *channel.Endpoint
}

func NewChannelEmitter(ep *channel.Endpoint) *ChannelEmitter {
	return &ChannelEmitter{ep: ep}
}

func (e *ChannelEmitter) EmitProgress(ctx context.Context, tabID int, stage models.CaptureStage) error {
	return e.ep.Invoke(ctx, channel.ContextBackground, channel.ScrapePageProgress, channel.ProgressEvent{
		TabID: tabID,
		Stage: stage.String(),
	}, nil)
}
