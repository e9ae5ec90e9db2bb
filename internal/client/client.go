// Package client is the Go consumer of the archive HTTP API, used by the
// extension's background context to reach the store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pagevault/pagevault/internal/dto"
	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

// TokenProvider supplies the bearer token for each request, so a token
// set at runtime takes effect without rebuilding the client.
type TokenProvider func() string

// Client talks to the archive server and unwraps its response envelope.
type Client struct {
	baseURL string
	token   TokenProvider
	http    *http.Client
}

// New builds a client for the API root, e.g. "http://localhost:8080/api/v1".
func New(baseURL string, token TokenProvider) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope mirrors the server's wire contract.
type envelope struct {
	Code    int             `json:"code"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Msg     string          `json:"msg,omitempty"`
}

// CheckAuth reports whether the configured token is accepted.
func (c *Client) CheckAuth(ctx context.Context) (bool, error) {
	err := c.call(ctx, http.MethodGet, "/auth/check", nil, nil)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrAuth) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListFolders returns the active folders.
func (c *Client) ListFolders(ctx context.Context) ([]dto.FolderItem, error) {
	var folders []dto.FolderItem
	if err := c.call(ctx, http.MethodGet, "/folders/all", nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// CreateFolder creates a folder with the given name.
func (c *Client) CreateFolder(ctx context.Context, name string) (*dto.FolderItem, error) {
	var folder dto.FolderItem
	if err := c.call(ctx, http.MethodPost, "/folders/create", dto.CreateFolderRequest{Name: name}, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// RenameFolder renames a folder.
func (c *Client) RenameFolder(ctx context.Context, id int64, name string) error {
	return c.call(ctx, http.MethodPut, "/folders/update", dto.UpdateFolderRequest{ID: id, Name: name}, nil)
}

// DeleteFolder soft-deletes a folder and its pages.
func (c *Client) DeleteFolder(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, "/folders/delete?id="+strconv.FormatInt(id, 10), nil, nil)
}

// SavePage archives a captured page into a folder.
func (c *Client) SavePage(ctx context.Context, req dto.SavePageRequest) (*dto.PageItem, error) {
	var page dto.PageItem
	if err := c.call(ctx, http.MethodPost, "/pages/create", req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListPages returns the active pages of a folder.
func (c *Client) ListPages(ctx context.Context, folderID int64) ([]dto.PageItem, error) {
	var pages []dto.PageItem
	query := url.Values{"folderId": {strconv.FormatInt(folderID, 10)}}
	if err := c.call(ctx, http.MethodGet, "/pages/all?"+query.Encode(), nil, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// DeletePage soft-deletes one page.
func (c *Client) DeletePage(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, "/pages/delete?id="+strconv.FormatInt(id, 10), nil, nil)
}

// call performs one request and decodes the envelope; out, when non-nil,
// receives the data member.
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("archive server unreachable: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if !env.Success {
		return c.asError(resp.StatusCode, env.Msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// asError maps an error envelope back onto the shared error set.
func (c *Client) asError(status int, msg string) error {
	switch status {
	case http.StatusUnauthorized:
		return appErrors.Clone(appErrors.ErrAuth, msg)
	case http.StatusBadRequest:
		return appErrors.Clone(appErrors.ErrValidation, msg)
	default:
		return appErrors.Clone(appErrors.ErrInternal, msg)
	}
}
