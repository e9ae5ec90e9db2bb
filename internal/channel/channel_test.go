package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

func TestInvokeRoundTrip(t *testing.T) {
	router := NewRouter(time.Second)
	popup := router.Attach(ContextPopup)
	background := router.Attach(ContextBackground)

	background.Handle(SetToken, func(ctx context.Context, req interface{}) (interface{}, error) {
		payload := req.(*SetTokenRequest)
		assert.Equal(t, "secret", payload.Token)
		return SuccessResponse{Success: true}, nil
	})

	var resp SuccessResponse
	err := popup.Invoke(context.Background(), ContextBackground, SetToken, SetTokenRequest{Token: "secret"}, &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestInvokeUnreachableContext(t *testing.T) {
	router := NewRouter(time.Second)
	popup := router.Attach(ContextPopup)

	var resp PageDataResponse
	err := popup.Invoke(context.Background(), ContextContentScript, ScrapePageData, EmptyRequest{}, &resp)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrChannelUnreachable))
}

func TestInvokeDetachedContext(t *testing.T) {
	router := NewRouter(time.Second)
	popup := router.Attach(ContextPopup)
	router.Attach(ContextContentScript)
	router.Detach(ContextContentScript)

	var resp PageDataResponse
	err := popup.Invoke(context.Background(), ContextContentScript, ScrapePageData, EmptyRequest{}, &resp)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrChannelUnreachable))
}

func TestInvokeUnservedChannel(t *testing.T) {
	router := NewRouter(time.Second)
	popup := router.Attach(ContextPopup)
	router.Attach(ContextBackground)

	var resp TokenResponse
	err := popup.Invoke(context.Background(), ContextBackground, GetToken, EmptyRequest{}, &resp)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrChannelUnreachable))
}

func TestInvokeTimesOutOnSlowHandler(t *testing.T) {
	router := NewRouter(50 * time.Millisecond)
	popup := router.Attach(ContextPopup)
	background := router.Attach(ContextBackground)

	background.Handle(GetToken, func(ctx context.Context, req interface{}) (interface{}, error) {
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
		}
		return TokenResponse{}, nil
	})

	start := time.Now()
	var resp TokenResponse
	err := popup.Invoke(context.Background(), ContextBackground, GetToken, EmptyRequest{}, &resp)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrChannelTimeout))
	assert.Less(t, time.Since(start), time.Second)
}

func TestInvokeRejectsUnknownChannel(t *testing.T) {
	router := NewRouter(time.Second)
	popup := router.Attach(ContextPopup)

	err := popup.Invoke(context.Background(), ContextBackground, "not-a-channel", EmptyRequest{}, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrProtocolMismatch))
}

func TestInvokeRejectsWrongPayloadType(t *testing.T) {
	router := NewRouter(time.Second)
	popup := router.Attach(ContextPopup)

	err := popup.Invoke(context.Background(), ContextBackground, SetToken, EmptyRequest{}, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrProtocolMismatch))
}

func TestInvokeRejectsInvalidPayloadFields(t *testing.T) {
	router := NewRouter(time.Second)
	popup := router.Attach(ContextPopup)
	router.Attach(ContextBackground)

	err := popup.Invoke(context.Background(), ContextBackground, SetToken, SetTokenRequest{}, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrProtocolMismatch))
}

func TestHandlerErrorPropagatesTyped(t *testing.T) {
	router := NewRouter(time.Second)
	popup := router.Attach(ContextPopup)
	background := router.Attach(ContextBackground)

	background.Handle(SavePage, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "folder does not exist")
	})

	var resp SuccessResponse
	err := popup.Invoke(context.Background(), ContextBackground, SavePage, SavePageRequest{
		Content:  "<html></html>",
		Title:    "Example",
		Href:     "https://example.com",
		FolderID: 1,
	}, &resp)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestConcurrentInvocationsKeepResponsesPaired(t *testing.T) {
	router := NewRouter(time.Second)
	popup := router.Attach(ContextPopup)
	background := router.Attach(ContextBackground)

	background.Handle(SetToken, func(ctx context.Context, req interface{}) (interface{}, error) {
		payload := req.(*SetTokenRequest)
		return SuccessResponse{Success: payload.Token != ""}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			token := string(rune('a' + n))
			var resp SuccessResponse
			err := popup.Invoke(context.Background(), ContextBackground, SetToken, SetTokenRequest{Token: token}, &resp)
			assert.NoError(t, err)
			assert.True(t, resp.Success)
		}(i)
	}
	wg.Wait()
}
