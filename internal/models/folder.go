package models

import "time"

// Folder groups archived pages. Rows are soft-deleted; a deleted folder's
// name may be reused by a new active folder.
type Folder struct {
	ID        int64      `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	IsDeleted bool       `db:"is_deleted" json:"isDeleted"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}
