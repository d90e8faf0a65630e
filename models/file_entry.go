package models

// FileEntry is one item returned by a cloud folder listing.
type FileEntry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	IsFolder bool   `json:"isFolder"`
	Size     int64  `json:"size"`
}
