package capture

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/pagevault/pagevault/internal/channel"
	"github.com/pagevault/pagevault/internal/models"
	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

// session tracks one running or settled capture for a tab.
type session struct {
	stage  models.CaptureStage
	cancel context.CancelFunc
}

// Orchestrator drives captures from the popup context. It keeps at most
// one live session per tab, projects each session's current stage from
// best-effort progress events, and treats the invocation result as the
// authoritative terminal outcome.
type Orchestrator struct {
	ep     *channel.Endpoint
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[int]*session
}

// NewOrchestrator attaches the orchestrator to its endpoint and starts
// listening for forwarded progress events.
func NewOrchestrator(ep *channel.Endpoint, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		ep:       ep,
		logger:   logger,
		sessions: make(map[int]*session),
	}
	ep.Handle(channel.ScrapePageProgressToPopup, func(_ context.Context, req interface{}) (interface{}, error) {
		event := req.(*channel.ProgressEvent)
		o.onProgress(event.TabID, models.ParseCaptureStage(event.Stage))
		return channel.EmptyResponse{}, nil
	})
	return o
}

// StartCapture runs a capture for the tab and blocks until it settles.
// A capture already running for the same tab is cancelled first; the new
// session replaces it immediately.
func (o *Orchestrator) StartCapture(ctx context.Context, tabID int) (*models.PageData, error) {
	runCtx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	if prev, ok := o.sessions[tabID]; ok && !prev.stage.Terminal() {
		o.logger.Info("superseding running capture", zap.Int("tab_id", tabID))
		prev.cancel()
	}
	s := &session{stage: models.StageNavigatingOrLoading, cancel: cancel}
	o.sessions[tabID] = s
	o.mu.Unlock()

	var resp channel.PageDataResponse
	err := o.ep.Invoke(runCtx, channel.ContextBackground, channel.GetCurrentPageData,
		channel.GetCurrentPageDataRequest{TabID: tabID}, &resp)
	cancel()

	o.mu.Lock()
	defer o.mu.Unlock()

	// A superseding capture owns the projection now; only report our own
	// outcome.
	current := o.sessions[tabID] == s

	if err != nil {
		if current {
			s.stage = models.StageFailed
		}
		if runCtx.Err() == context.Canceled {
			return nil, appErrors.ErrCancelled
		}
		return nil, err
	}

	if current {
		s.stage = models.StageDone
	}
	return &models.PageData{
		Content:  resp.Content,
		Title:    resp.Title,
		Href:     resp.Href,
		PageDesc: resp.PageDesc,
	}, nil
}

// Stage reports the tab's projected capture stage. A tab with no session
// is Idle.
func (o *Orchestrator) Stage(tabID int) models.CaptureStage {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.sessions[tabID]; ok {
		return s.stage
	}
	return models.StageIdle
}

// Cancel aborts the tab's running capture, if any. Settled sessions are
// left untouched.
func (o *Orchestrator) Cancel(tabID int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.sessions[tabID]; ok && !s.stage.Terminal() {
		s.cancel()
	}
}

// Forget drops the tab's session, returning its projection to Idle. Used
// when the popup closes.
func (o *Orchestrator) Forget(tabID int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.sessions[tabID]; ok {
		if !s.stage.Terminal() {
			s.cancel()
		}
		delete(o.sessions, tabID)
	}
}

// onProgress advances the projection from a progress event. Events are
// advisory and may arrive late or out of order: the stage only moves
// forward, and a settled session ignores them entirely.
func (o *Orchestrator) onProgress(tabID int, stage models.CaptureStage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[tabID]
	if !ok || s.stage.Terminal() {
		return
	}
	if stage > s.stage && !stage.Terminal() {
		s.stage = stage
	}
}
