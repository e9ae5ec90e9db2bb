package dto

// FolderItem is a folder row as exposed via API.
type FolderItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateFolderRequest describes the payload for creating a folder.
type CreateFolderRequest struct {
	Name string `json:"name" validate:"required"`
}

// UpdateFolderRequest describes the payload for renaming a folder.
type UpdateFolderRequest struct {
	ID   int64  `json:"id" validate:"required,gt=0"`
	Name string `json:"name"`
}
