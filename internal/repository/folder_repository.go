package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pagevault/pagevault/internal/models"
)

// FolderRepository handles folder persistence.
type FolderRepository struct {
	db *sqlx.DB
}

// NewFolderRepository constructs the repository.
func NewFolderRepository(db *sqlx.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// ListActive returns all folders that have not been soft-deleted.
func (r *FolderRepository) ListActive(ctx context.Context) ([]models.Folder, error) {
	const query = `SELECT id, name, is_deleted, deleted_at, created_at, updated_at
	FROM folders WHERE is_deleted = FALSE ORDER BY created_at ASC`
	var folders []models.Folder
	if err := r.db.SelectContext(ctx, &folders, query); err != nil {
		return nil, fmt.Errorf("list active folders: %w", err)
	}
	return folders, nil
}

// Insert creates a new active folder and fills in its assigned id.
func (r *FolderRepository) Insert(ctx context.Context, folder *models.Folder) error {
	now := time.Now().UTC()
	folder.CreatedAt = now
	folder.UpdatedAt = now
	const query = `INSERT INTO folders (name, is_deleted, created_at, updated_at)
	VALUES ($1, FALSE, $2, $3) RETURNING id`
	if err := r.db.GetContext(ctx, &folder.ID, query, folder.Name, folder.CreatedAt, folder.UpdatedAt); err != nil {
		return fmt.Errorf("insert folder: %w", err)
	}
	return nil
}

// UpdateName renames an active folder and reports how many rows changed.
// Callers classify a zero count themselves; collapsing it into an error
// here would lose the information the consistency checks need.
func (r *FolderRepository) UpdateName(ctx context.Context, id int64, name string) (int64, error) {
	const query = `UPDATE folders SET name = $1, updated_at = $2
	WHERE id = $3 AND is_deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, name, time.Now().UTC(), id)
	if err != nil {
		return 0, fmt.Errorf("rename folder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check folder rename rows: %w", err)
	}
	return affected, nil
}

// GetActive fetches one active folder row. sql.ErrNoRows passes through
// unwrapped so callers can classify a missing id.
func (r *FolderRepository) GetActive(ctx context.Context, id int64) (*models.Folder, error) {
	const query = `SELECT id, name, is_deleted, deleted_at, created_at, updated_at
	FROM folders WHERE id = $1 AND is_deleted = FALSE`
	var folder models.Folder
	if err := r.db.GetContext(ctx, &folder, query, id); err != nil {
		return nil, err
	}
	return &folder, nil
}

// SoftDeleteWithPages marks the folder and all of its active pages as
// deleted inside a single transaction and returns the affected row count
// of each statement. Both updates carry an is_deleted guard so repeating
// the delete changes nothing.
func (r *FolderRepository) SoftDeleteWithPages(ctx context.Context, id int64, deletedAt time.Time) (folderChanges, pageChanges int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin folder delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const folderQuery = `UPDATE folders SET is_deleted = TRUE, deleted_at = $1, updated_at = $1
	WHERE id = $2 AND is_deleted = FALSE`
	folderRes, err := tx.ExecContext(ctx, folderQuery, deletedAt, id)
	if err != nil {
		return 0, 0, fmt.Errorf("soft delete folder: %w", err)
	}
	folderChanges, err = folderRes.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("check folder delete rows: %w", err)
	}

	const pageQuery = `UPDATE pages SET is_deleted = TRUE, deleted_at = $1, updated_at = $1
	WHERE folder_id = $2 AND is_deleted = FALSE`
	pageRes, err := tx.ExecContext(ctx, pageQuery, deletedAt, id)
	if err != nil {
		return 0, 0, fmt.Errorf("soft delete folder pages: %w", err)
	}
	pageChanges, err = pageRes.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("check page delete rows: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit folder delete: %w", err)
	}
	return folderChanges, pageChanges, nil
}
