package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagevault/pagevault/internal/dto"
	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, New(server.URL, func() string { return "secret" })
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, data interface{}, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
		"code":    status,
		"success": success,
		"data":    data,
		"msg":     msg,
	})
}

func TestListFoldersDecodesData(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/folders/all", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, true, []dto.FolderItem{{ID: 1, Name: "reading"}}, "")
	})

	folders, err := c.ListFolders(context.Background())
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "reading", folders[0].Name)
}

func TestSavePagePostsPayload(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pages/create", r.URL.Path)
		var req dto.SavePageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(3), req.FolderID)
		assert.Equal(t, "Example", req.Title)
		writeEnvelope(w, http.StatusOK, true, dto.PageItem{ID: 9, Title: req.Title}, "")
	})

	page, err := c.SavePage(context.Background(), dto.SavePageRequest{
		Title:    "Example",
		Content:  "<html></html>",
		PageURL:  "https://example.com",
		FolderID: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), page.ID)
}

func TestCheckAuthDistinguishesRejectionFromFailure(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, nil, "unauthorized")
	})

	ok, err := c.CheckAuth(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, true, "")
	}))
	t.Cleanup(server.Close)
	ok, err = New(server.URL, nil).CheckAuth(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestErrorEnvelopeMapsToTypedError(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "folder does not exist")
	})

	err := c.DeleteFolder(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, appErrors.FromError(err).Message, "folder does not exist")
}

func TestDeleteFolderSendsQueryID(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/folders/delete", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("id"))
		writeEnvelope(w, http.StatusOK, true, true, "")
	})

	require.NoError(t, c.DeleteFolder(context.Background(), 42))
}
