package handler

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/pagevault/pagevault/internal/dto"
	"github.com/pagevault/pagevault/internal/service"
	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

type pageServiceStub struct {
	saveErr    error
	pages      []dto.PageItem
	deleteErr  error
	contentErr error
	content    string

	savedReq *dto.SavePageRequest
}

func (s *pageServiceStub) Save(_ context.Context, req dto.SavePageRequest) (*dto.PageItem, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.savedReq = &req
	return &dto.PageItem{ID: 5, Title: req.Title, FolderID: req.FolderID}, nil
}

func (s *pageServiceStub) ListByFolder(context.Context, int64) ([]dto.PageItem, error) {
	return s.pages, nil
}

func (s *pageServiceStub) Delete(context.Context, int64) error {
	return s.deleteErr
}

func (s *pageServiceStub) DownloadURL(_ context.Context, id int64, apiPrefix string) (string, error) {
	return apiPrefix + "/pages/content/5?token=tok", nil
}

func (s *pageServiceStub) Content(_ context.Context, _ int64, token string) (*service.ContentDownload, error) {
	if s.contentErr != nil {
		return nil, s.contentErr
	}
	dir, err := os.MkdirTemp("", "content")
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "page.html")
	if err := os.WriteFile(path, []byte(s.content), 0o600); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &service.ContentDownload{File: file, Title: "Example"}, nil
}

func buildPageRouter(stub *pageServiceStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewPageHandler(stub, nil, "/api/v1")
	router.POST("/pages/create", h.Create)
	router.GET("/pages/all", h.List)
	router.DELETE("/pages/delete", h.Delete)
	router.GET("/pages/:id/download-url", h.DownloadURL)
	router.GET("/pages/content/:id", h.Content)
	return router
}

func TestPageRoutes(t *testing.T) {
	t.Run("create success", func(t *testing.T) {
		stub := &pageServiceStub{}
		router := buildPageRouter(stub)
		payload := `{"title":"Example","content":"<html></html>","pageUrl":"https://example.com","folderId":3}`
		req, _ := http.NewRequest(http.MethodPost, "/pages/create", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.NotNil(t, stub.savedReq)
		require.Equal(t, int64(3), stub.savedReq.FolderID)
	})

	t.Run("create rejects invalid url", func(t *testing.T) {
		router := buildPageRouter(&pageServiceStub{})
		payload := `{"title":"Example","content":"<html></html>","pageUrl":"not a url","folderId":3}`
		req, _ := http.NewRequest(http.MethodPost, "/pages/create", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("create maps missing folder", func(t *testing.T) {
		stub := &pageServiceStub{saveErr: appErrors.Clone(appErrors.ErrNotFound, "folder does not exist")}
		router := buildPageRouter(stub)
		payload := `{"title":"Example","content":"<html></html>","pageUrl":"https://example.com","folderId":3}`
		req, _ := http.NewRequest(http.MethodPost, "/pages/create", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
		require.Contains(t, resp.Body.String(), "folder does not exist")
	})

	t.Run("list requires folderId", func(t *testing.T) {
		router := buildPageRouter(&pageServiceStub{})
		req, _ := http.NewRequest(http.MethodGet, "/pages/all", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("list success", func(t *testing.T) {
		router := buildPageRouter(&pageServiceStub{pages: []dto.PageItem{{ID: 5, Title: "Example"}}})
		req, _ := http.NewRequest(http.MethodGet, "/pages/all?folderId=3", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"Example"`)
	})

	t.Run("download url", func(t *testing.T) {
		router := buildPageRouter(&pageServiceStub{})
		req, _ := http.NewRequest(http.MethodGet, "/pages/5/download-url", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), "/api/v1/pages/content/5?token=")
	})

	t.Run("content streams html", func(t *testing.T) {
		router := buildPageRouter(&pageServiceStub{content: "<html><body>archived</body></html>"})
		req, _ := http.NewRequest(http.MethodGet, "/pages/content/5?token=tok", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Header().Get("Content-Type"), "text/html")
		require.Contains(t, resp.Body.String(), "archived")
	})

	t.Run("content rejects bad token", func(t *testing.T) {
		router := buildPageRouter(&pageServiceStub{contentErr: appErrors.Clone(appErrors.ErrAuth, "invalid content token")})
		req, _ := http.NewRequest(http.MethodGet, "/pages/content/5?token=bad", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}
