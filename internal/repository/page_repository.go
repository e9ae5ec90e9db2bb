package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pagevault/pagevault/internal/models"
)

// PageRepository handles archived page persistence.
type PageRepository struct {
	db *sqlx.DB
}

// NewPageRepository constructs the repository.
func NewPageRepository(db *sqlx.DB) *PageRepository {
	return &PageRepository{db: db}
}

// Insert stores a new page row and fills in its assigned id.
func (r *PageRepository) Insert(ctx context.Context, page *models.Page) error {
	now := time.Now().UTC()
	page.CreatedAt = now
	page.UpdatedAt = now
	const query = `INSERT INTO pages (title, content_url, page_url, folder_id, page_desc, is_deleted, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7) RETURNING id`
	if err := r.db.GetContext(ctx, &page.ID, query,
		page.Title, page.ContentURL, page.PageURL, page.FolderID, page.PageDesc,
		page.CreatedAt, page.UpdatedAt); err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

// GetByID retrieves one page row regardless of deletion state.
func (r *PageRepository) GetByID(ctx context.Context, id int64) (*models.Page, error) {
	const query = `SELECT id, title, content_url, page_url, folder_id, page_desc,
	is_deleted, deleted_at, created_at, updated_at
	FROM pages WHERE id = $1`
	var page models.Page
	if err := r.db.GetContext(ctx, &page, query, id); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListActiveByFolder returns the active pages belonging to a folder.
func (r *PageRepository) ListActiveByFolder(ctx context.Context, folderID int64) ([]models.Page, error) {
	const query = `SELECT id, title, content_url, page_url, folder_id, page_desc,
	is_deleted, deleted_at, created_at, updated_at
	FROM pages WHERE folder_id = $1 AND is_deleted = FALSE ORDER BY created_at DESC`
	var pages []models.Page
	if err := r.db.SelectContext(ctx, &pages, query, folderID); err != nil {
		return nil, fmt.Errorf("list folder pages: %w", err)
	}
	return pages, nil
}

// CountActiveByFolder counts the active pages belonging to a folder. The
// delete flow records this number before the batch update so the actual
// change count can be verified against it afterwards.
func (r *PageRepository) CountActiveByFolder(ctx context.Context, folderID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM pages WHERE folder_id = $1 AND is_deleted = FALSE`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, folderID); err != nil {
		return 0, fmt.Errorf("count folder pages: %w", err)
	}
	return count, nil
}

// SoftDelete marks one page as deleted.
func (r *PageRepository) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	const query = `UPDATE pages SET is_deleted = TRUE, deleted_at = $1, updated_at = $1
	WHERE id = $2 AND is_deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, deletedAt, id)
	if err != nil {
		return fmt.Errorf("soft delete page: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check page delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
