package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pagevault/pagevault/internal/dto"
	"github.com/pagevault/pagevault/internal/models"
	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

type pageStore interface {
	Insert(ctx context.Context, page *models.Page) error
	GetByID(ctx context.Context, id int64) (*models.Page, error)
	ListActiveByFolder(ctx context.Context, folderID int64) ([]models.Page, error)
	SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error
}

type pageFolderResolver interface {
	GetActive(ctx context.Context, id int64) (*models.Folder, error)
}

type contentStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type contentTokenSigner interface {
	Generate(pageID int64, contentRef string) (string, time.Time, error)
	Parse(token string) (pageID, contentRef string, err error)
}

// ContentDownload bundles a stored document reader with its metadata.
type ContentDownload struct {
	File  *os.File
	Title string
}

// PageService persists finished captures and serves their content back.
type PageService struct {
	repo    pageStore
	folders pageFolderResolver
	storage contentStorage
	signer  contentTokenSigner
	logger  *zap.Logger
}

// NewPageService constructs the service.
func NewPageService(repo pageStore, folders pageFolderResolver, storage contentStorage, signer contentTokenSigner, logger *zap.Logger) *PageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageService{repo: repo, folders: folders, storage: storage, signer: signer, logger: logger}
}

// Save writes the captured document to the blob store and inserts the page
// row. The blob is removed again if the insert fails.
func (s *PageService) Save(ctx context.Context, req dto.SavePageRequest) (*dto.PageItem, error) {
	if _, err := s.folders.GetActive(ctx, req.FolderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "folder does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve folder")
	}

	ref := fmt.Sprintf("pages/%s.html", uuid.NewString())
	if _, err := s.storage.Save(ref, []byte(req.Content)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store page content")
	}

	page := &models.Page{
		Title:      req.Title,
		ContentURL: ref,
		PageURL:    req.PageURL,
		FolderID:   req.FolderID,
		PageDesc:   req.PageDesc,
	}
	if err := s.repo.Insert(ctx, page); err != nil {
		_ = s.storage.Delete(ref)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save page")
	}

	s.logger.Info("page archived",
		zap.Int64("page_id", page.ID),
		zap.Int64("folder_id", page.FolderID),
		zap.String("page_url", page.PageURL),
	)
	return toPageItem(page), nil
}

// ListByFolder returns the active pages of a folder.
func (s *PageService) ListByFolder(ctx context.Context, folderID int64) ([]dto.PageItem, error) {
	pages, err := s.repo.ListActiveByFolder(ctx, folderID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pages")
	}
	items := make([]dto.PageItem, 0, len(pages))
	for i := range pages {
		items = append(items, *toPageItem(&pages[i]))
	}
	return items, nil
}

// Delete soft-deletes one page.
func (s *PageService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "page does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete page")
	}
	return nil
}

// DownloadURL mints a signed link for fetching a page's stored content.
func (s *PageService) DownloadURL(ctx context.Context, id int64, apiPrefix string) (string, error) {
	page, err := s.activePage(ctx, id)
	if err != nil {
		return "", err
	}
	token, _, err := s.signer.Generate(page.ID, page.ContentURL)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign content token")
	}
	return fmt.Sprintf("%s/pages/content/%d?token=%s", apiPrefix, page.ID, token), nil
}

// Content validates the token and opens the stored document for streaming.
func (s *PageService) Content(ctx context.Context, id int64, token string) (*ContentDownload, error) {
	page, err := s.activePage(ctx, id)
	if err != nil {
		return nil, err
	}
	tokenPageID, contentRef, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrAuth, "invalid or expired content token")
	}
	if tokenPageID != strconv.FormatInt(page.ID, 10) || contentRef != page.ContentURL {
		return nil, appErrors.Clone(appErrors.ErrAuth, "content token does not match page")
	}
	file, err := s.storage.Open(page.ContentURL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open page content")
	}
	return &ContentDownload{File: file, Title: page.Title}, nil
}

func (s *PageService) activePage(ctx context.Context, id int64) (*models.Page, error) {
	page, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "page does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load page")
	}
	if page.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "page does not exist")
	}
	return page, nil
}

func toPageItem(page *models.Page) *dto.PageItem {
	return &dto.PageItem{
		ID:         page.ID,
		Title:      page.Title,
		ContentURL: page.ContentURL,
		PageURL:    page.PageURL,
		FolderID:   page.FolderID,
		PageDesc:   page.PageDesc,
	}
}
