// Package extension hosts the background context: the bridge between the
// popup, the per-tab capture agents, and the archive server.
package extension

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/pagevault/pagevault/internal/channel"
	"github.com/pagevault/pagevault/internal/dto"
)

// ArchiveAPI is the slice of the archive server the background needs.
type ArchiveAPI interface {
	CheckAuth(ctx context.Context) (bool, error)
	SavePage(ctx context.Context, req dto.SavePageRequest) (*dto.PageItem, error)
}

// Background serves the bridge channels: token storage, auth checks,
// page saves, and progress forwarding from agents to the popup.
type Background struct {
	ep     *channel.Endpoint
	api    ArchiveAPI
	tokens TokenStore
	logger *zap.Logger

	mu   sync.RWMutex
	tabs map[int]string
}

// NewBackground attaches the bridge to its endpoint and registers every
// channel it serves.
func NewBackground(ep *channel.Endpoint, api ArchiveAPI, tokens TokenStore, logger *zap.Logger) *Background {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Background{
		ep:     ep,
		api:    api,
		tokens: tokens,
		logger: logger,
		tabs:   make(map[int]string),
	}

	ep.Handle(channel.CheckAuth, b.handleCheckAuth)
	ep.Handle(channel.GetToken, b.handleGetToken)
	ep.Handle(channel.SetToken, b.handleSetToken)
	ep.Handle(channel.SavePage, b.handleSavePage)
	ep.Handle(channel.GetCurrentPageData, b.handleGetCurrentPageData)
	ep.Handle(channel.ScrapePageProgress, b.handleProgress)

	return b
}

// RegisterTab maps a tab to the context name its capture agent attached
// under. Unmapped tabs fall back to the default content-script context.
func (b *Background) RegisterTab(tabID int, contextName string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tabs[tabID] = contextName
}

// UnregisterTab drops the mapping when a tab closes.
func (b *Background) UnregisterTab(tabID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tabs, tabID)
}

func (b *Background) tabContext(tabID int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if name, ok := b.tabs[tabID]; ok {
		return name
	}
	return channel.ContextContentScript
}

func (b *Background) handleCheckAuth(ctx context.Context, _ interface{}) (interface{}, error) {
	ok, err := b.api.CheckAuth(ctx)
	if err != nil {
		return nil, err
	}
	return channel.SuccessResponse{Success: ok}, nil
}

func (b *Background) handleGetToken(_ context.Context, _ interface{}) (interface{}, error) {
	return channel.TokenResponse{Token: b.tokens.Get()}, nil
}

func (b *Background) handleSetToken(_ context.Context, req interface{}) (interface{}, error) {
	payload := req.(*channel.SetTokenRequest)
	b.tokens.Set(payload.Token)
	return channel.SuccessResponse{Success: true}, nil
}

func (b *Background) handleSavePage(ctx context.Context, req interface{}) (interface{}, error) {
	payload := req.(*channel.SavePageRequest)
	_, err := b.api.SavePage(ctx, dto.SavePageRequest{
		Title:    payload.Title,
		Content:  payload.Content,
		PageURL:  payload.Href,
		FolderID: payload.FolderID,
		PageDesc: payload.PageDesc,
	})
	if err != nil {
		return nil, err
	}
	return channel.SuccessResponse{Success: true}, nil
}

// handleGetCurrentPageData relays a capture request to the tab's agent
// and hands the result straight back.
func (b *Background) handleGetCurrentPageData(ctx context.Context, req interface{}) (interface{}, error) {
	payload := req.(*channel.GetCurrentPageDataRequest)

	var resp channel.PageDataResponse
	err := b.ep.Invoke(ctx, b.tabContext(payload.TabID), channel.ScrapePageData, channel.EmptyRequest{}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// handleProgress forwards an agent's progress event to the popup. The
// popup may be closed; a failed forward is dropped, never propagated
// back to the agent.
func (b *Background) handleProgress(ctx context.Context, req interface{}) (interface{}, error) {
	payload := req.(*channel.ProgressEvent)
	err := b.ep.Invoke(ctx, channel.ContextPopup, channel.ScrapePageProgressToPopup, *payload, nil)
	if err != nil {
		b.logger.Debug("progress forward dropped",
			zap.Int("tab_id", payload.TabID),
			zap.String("stage", payload.Stage),
			zap.Error(err))
	}
	return channel.EmptyResponse{}, nil
}
