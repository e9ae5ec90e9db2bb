package service

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagevault/pagevault/internal/dto"
	"github.com/pagevault/pagevault/internal/models"
	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

type pageStoreStub struct {
	pages     map[int64]models.Page
	nextID    int64
	insertErr error
}

func newPageStoreStub() *pageStoreStub {
	return &pageStoreStub{pages: map[int64]models.Page{}, nextID: 1}
}

func (s *pageStoreStub) Insert(ctx context.Context, page *models.Page) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	page.ID = s.nextID
	s.nextID++
	s.pages[page.ID] = *page
	return nil
}

func (s *pageStoreStub) GetByID(ctx context.Context, id int64) (*models.Page, error) {
	page, ok := s.pages[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &page, nil
}

func (s *pageStoreStub) ListActiveByFolder(ctx context.Context, folderID int64) ([]models.Page, error) {
	var result []models.Page
	for _, page := range s.pages {
		if page.FolderID == folderID && !page.IsDeleted {
			result = append(result, page)
		}
	}
	return result, nil
}

func (s *pageStoreStub) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	page, ok := s.pages[id]
	if !ok || page.IsDeleted {
		return sql.ErrNoRows
	}
	page.IsDeleted = true
	page.DeletedAt = &deletedAt
	s.pages[id] = page
	return nil
}

type folderResolverStub struct {
	missing bool
}

func (s *folderResolverStub) GetActive(ctx context.Context, id int64) (*models.Folder, error) {
	if s.missing {
		return nil, sql.ErrNoRows
	}
	return &models.Folder{ID: id, Name: "Research"}, nil
}

type storageStub struct {
	saved   map[string][]byte
	deleted []string
	saveErr error
}

func newStorageStub() *storageStub {
	return &storageStub{saved: map[string][]byte{}}
}

func (s *storageStub) Save(filename string, data []byte) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.saved[filename] = data
	return filename, nil
}

func (s *storageStub) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (s *storageStub) Delete(filename string) error {
	s.deleted = append(s.deleted, filename)
	return nil
}

type signerStub struct{}

func (signerStub) Generate(pageID int64, contentRef string) (string, time.Time, error) {
	return "token", time.Now().Add(time.Minute), nil
}

func (signerStub) Parse(token string) (string, string, error) {
	return "1", "pages/x.html", nil
}

func validSaveRequest() dto.SavePageRequest {
	return dto.SavePageRequest{
		Title:    "Example",
		Content:  "<html></html>",
		PageURL:  "https://example.com",
		FolderID: 1,
		PageDesc: "desc",
	}
}

func TestPageServiceSave(t *testing.T) {
	store := newPageStoreStub()
	storage := newStorageStub()
	svc := NewPageService(store, &folderResolverStub{}, storage, signerStub{}, nil)

	item, err := svc.Save(context.Background(), validSaveRequest())
	require.NoError(t, err)
	assert.EqualValues(t, 1, item.ID)
	assert.NotEmpty(t, item.ContentURL)
	assert.Len(t, storage.saved, 1)
}

func TestPageServiceSaveRejectsMissingFolder(t *testing.T) {
	svc := NewPageService(newPageStoreStub(), &folderResolverStub{missing: true}, newStorageStub(), signerStub{}, nil)

	_, err := svc.Save(context.Background(), validSaveRequest())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestPageServiceSaveCleansUpBlobOnInsertFailure(t *testing.T) {
	store := newPageStoreStub()
	store.insertErr = assert.AnError
	storage := newStorageStub()
	svc := NewPageService(store, &folderResolverStub{}, storage, signerStub{}, nil)

	_, err := svc.Save(context.Background(), validSaveRequest())
	require.Error(t, err)
	require.Len(t, storage.deleted, 1)
}

func TestPageServiceDelete(t *testing.T) {
	store := newPageStoreStub()
	svc := NewPageService(store, &folderResolverStub{}, newStorageStub(), signerStub{}, nil)

	item, err := svc.Save(context.Background(), validSaveRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), item.ID))

	err = svc.Delete(context.Background(), item.ID)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestPageServiceListByFolderSkipsDeleted(t *testing.T) {
	store := newPageStoreStub()
	svc := NewPageService(store, &folderResolverStub{}, newStorageStub(), signerStub{}, nil)

	first, err := svc.Save(context.Background(), validSaveRequest())
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), validSaveRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), first.ID))

	items, err := svc.ListByFolder(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
}
