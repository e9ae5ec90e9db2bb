package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pagevault/pagevault/internal/dto"
	"github.com/pagevault/pagevault/internal/models"
	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

type folderStore interface {
	ListActive(ctx context.Context) ([]models.Folder, error)
	Insert(ctx context.Context, folder *models.Folder) error
	UpdateName(ctx context.Context, id int64, name string) (int64, error)
	GetActive(ctx context.Context, id int64) (*models.Folder, error)
	SoftDeleteWithPages(ctx context.Context, id int64, deletedAt time.Time) (int64, int64, error)
}

type folderPageCounter interface {
	CountActiveByFolder(ctx context.Context, folderID int64) (int64, error)
}

type inconsistencyRecorder interface {
	RecordInconsistency()
}

// FolderService owns the folder collection and the cross-collection
// delete consistency checks.
type FolderService struct {
	repo    folderStore
	pages   folderPageCounter
	metrics inconsistencyRecorder
	logger  *zap.Logger
}

// NewFolderService constructs the service. metrics may be nil.
func NewFolderService(repo folderStore, pages folderPageCounter, metrics inconsistencyRecorder, logger *zap.Logger) *FolderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FolderService{repo: repo, pages: pages, metrics: metrics, logger: logger}
}

// List returns all active folders.
func (s *FolderService) List(ctx context.Context) ([]dto.FolderItem, error) {
	folders, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list folders")
	}
	items := make([]dto.FolderItem, 0, len(folders))
	for _, folder := range folders {
		items = append(items, dto.FolderItem{ID: folder.ID, Name: folder.Name})
	}
	return items, nil
}

// Create inserts a new active folder.
func (s *FolderService) Create(ctx context.Context, name string) (*dto.FolderItem, error) {
	folder := &models.Folder{Name: name}
	if err := s.repo.Insert(ctx, folder); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create folder")
	}
	return &dto.FolderItem{ID: folder.ID, Name: folder.Name}, nil
}

// Rename updates an active folder's name. A zero-row update is ambiguous,
// so it is classified with a follow-up existence probe on the id: no
// active folder with that id means the target does not exist; otherwise
// the row was there but the update no-opped, which is an anomaly.
func (s *FolderService) Rename(ctx context.Context, id int64, name string) error {
	affected, err := s.repo.UpdateName(ctx, id, name)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rename folder")
	}
	if affected > 0 {
		return nil
	}

	if _, err := s.repo.GetActive(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "folder does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check folder existence")
	}
	s.logger.Error("folder rename no-opped on an existing row",
		zap.Int64("folder_id", id),
		zap.String("name", name),
	)
	return appErrors.Clone(appErrors.ErrInconsistentState, "no changes made")
}

// Delete soft-deletes a folder together with all of its active pages.
// The expected page count is recorded up front, the batch runs in one
// transaction, and the reported change counts are verified afterwards:
// the folder count must be exactly 1 and the page count must equal the
// expectation. Anything else that still changed rows means the batch was
// not atomic or a race slipped between the count and the update.
func (s *FolderService) Delete(ctx context.Context, id int64) error {
	expectedPages, err := s.pages.CountActiveByFolder(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count folder pages")
	}

	folderChanges, pageChanges, err := s.repo.SoftDeleteWithPages(ctx, id, time.Now().UTC())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete folder")
	}

	if folderChanges == 0 && pageChanges == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "folder does not exist")
	}

	if folderChanges != 1 || pageChanges != expectedPages {
		if s.metrics != nil {
			s.metrics.RecordInconsistency()
		}
		s.logger.Error("folder delete left collections in an inconsistent state",
			zap.Int64("folder_id", id),
			zap.Int64("folder_changes", folderChanges),
			zap.Int64("page_changes", pageChanges),
			zap.Int64("expected_pages", expectedPages),
		)
		return appErrors.ErrInconsistentState
	}

	return nil
}
