package models

import "time"

// Page is one archived web page. ContentURL references the stored
// self-contained document in the content blob store, PageURL is the
// original source address.
type Page struct {
	ID         int64      `db:"id" json:"id"`
	Title      string     `db:"title" json:"title"`
	ContentURL string     `db:"content_url" json:"contentUrl"`
	PageURL    string     `db:"page_url" json:"pageUrl"`
	FolderID   int64      `db:"folder_id" json:"folderId"`
	PageDesc   string     `db:"page_desc" json:"pageDesc"`
	IsDeleted  bool       `db:"is_deleted" json:"isDeleted"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}
