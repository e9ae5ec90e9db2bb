package dto

// PageItem is an archived page row as exposed via API.
type PageItem struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	ContentURL string `json:"contentUrl"`
	PageURL    string `json:"pageUrl"`
	FolderID   int64  `json:"folderId"`
	PageDesc   string `json:"pageDesc"`
}

// SavePageRequest carries a finished capture to the store.
type SavePageRequest struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	PageURL  string `json:"pageUrl" validate:"required,url"`
	FolderID int64  `json:"folderId" validate:"required,gt=0"`
	PageDesc string `json:"pageDesc"`
}
