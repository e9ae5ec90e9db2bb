package handler

import (
	"context"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pagevault/pagevault/internal/dto"
	"github.com/pagevault/pagevault/internal/service"
	appErrors "github.com/pagevault/pagevault/pkg/errors"
	"github.com/pagevault/pagevault/pkg/response"
)

type pageService interface {
	Save(ctx context.Context, req dto.SavePageRequest) (*dto.PageItem, error)
	ListByFolder(ctx context.Context, folderID int64) ([]dto.PageItem, error)
	Delete(ctx context.Context, id int64) error
	DownloadURL(ctx context.Context, id int64, apiPrefix string) (string, error)
	Content(ctx context.Context, id int64, token string) (*service.ContentDownload, error)
}

// PageHandler exposes archived page endpoints.
type PageHandler struct {
	service   pageService
	validate  *validator.Validate
	apiPrefix string
}

// NewPageHandler builds a new handler.
func NewPageHandler(service pageService, validate *validator.Validate, apiPrefix string) *PageHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &PageHandler{service: service, validate: validate, apiPrefix: apiPrefix}
}

// Create godoc
// @Summary Archive a captured page
// @Tags Pages
// @Accept json
// @Produce json
// @Param payload body dto.SavePageRequest true "Capture payload"
// @Success 200 {object} response.Envelope
// @Router /pages/create [post]
func (h *PageHandler) Create(c *gin.Context) {
	var req dto.SavePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid page payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid page payload"))
		return
	}
	item, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

// List godoc
// @Summary List active pages in a folder
// @Tags Pages
// @Produce json
// @Param folderId query int true "Folder id"
// @Success 200 {object} response.Envelope
// @Router /pages/all [get]
func (h *PageHandler) List(c *gin.Context) {
	folderID, err := strconv.ParseInt(c.Query("folderId"), 10, 64)
	if err != nil || folderID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "folderId is required"))
		return
	}
	items, err := h.service.ListByFolder(c.Request.Context(), folderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// Delete godoc
// @Summary Delete a page
// @Tags Pages
// @Produce json
// @Param id query int true "Page id"
// @Success 200 {object} response.Envelope
// @Router /pages/delete [delete]
func (h *PageHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id is required"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, true)
}

// DownloadURL godoc
// @Summary Mint a signed content download link
// @Tags Pages
// @Produce json
// @Param id path int true "Page id"
// @Success 200 {object} response.Envelope
// @Router /pages/{id}/download-url [get]
func (h *PageHandler) DownloadURL(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id is required"))
		return
	}
	url, err := h.service.DownloadURL(c.Request.Context(), id, h.apiPrefix)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"url": url})
}

// Content godoc
// @Summary Stream a page's stored content
// @Tags Pages
// @Produce html
// @Param id path int true "Page id"
// @Param token query string true "Signed content token"
// @Success 200 {string} string "content"
// @Router /pages/content/{id} [get]
func (h *PageHandler) Content(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id is required"))
		return
	}
	download, err := h.service.Content(c.Request.Context(), id, c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck
	c.Header("Content-Type", "text/html; charset=utf-8")
	_, _ = io.Copy(c.Writer, download.File)
}
