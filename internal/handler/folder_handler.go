package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pagevault/pagevault/internal/dto"
	appErrors "github.com/pagevault/pagevault/pkg/errors"
	"github.com/pagevault/pagevault/pkg/response"
)

type folderService interface {
	List(ctx context.Context) ([]dto.FolderItem, error)
	Create(ctx context.Context, name string) (*dto.FolderItem, error)
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

// FolderHandler exposes folder endpoints.
type FolderHandler struct {
	service folderService
}

// NewFolderHandler builds a new handler.
func NewFolderHandler(service folderService) *FolderHandler {
	return &FolderHandler{service: service}
}

// List godoc
// @Summary List active folders
// @Tags Folders
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /folders/all [get]
func (h *FolderHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// Create godoc
// @Summary Create a folder
// @Tags Folders
// @Accept json
// @Produce json
// @Param payload body dto.CreateFolderRequest true "Folder payload"
// @Success 200 {object} response.Envelope
// @Router /folders/create [post]
func (h *FolderHandler) Create(c *gin.Context) {
	var req dto.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "name is required"))
		return
	}
	if _, err := h.service.Create(c.Request.Context(), req.Name); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, true)
}

// Update godoc
// @Summary Rename a folder
// @Tags Folders
// @Accept json
// @Produce json
// @Param payload body dto.UpdateFolderRequest true "Folder payload"
// @Success 200 {object} response.Envelope
// @Router /folders/update [put]
func (h *FolderHandler) Update(c *gin.Context) {
	var req dto.UpdateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id is required"))
		return
	}
	if err := h.service.Rename(c.Request.Context(), req.ID, req.Name); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, true)
}

// Delete godoc
// @Summary Delete a folder and its pages
// @Tags Folders
// @Produce json
// @Param id query int true "Folder id"
// @Success 200 {object} response.Envelope
// @Router /folders/delete [delete]
func (h *FolderHandler) Delete(c *gin.Context) {
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
