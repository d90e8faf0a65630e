package models

// FolderStatus describes a design folder that is not ready to publish.
type FolderStatus struct {
	Folder     string `json:"folder"`
	HasJSON    bool   `json:"hasJson"`
	HasNotes   bool   `json:"hasNotes"`
	HasArt     bool   `json:"hasArt"`
	ImageCount int    `json:"imageCount"`
	Required   int    `json:"required"`
	Issues     string `json:"issues"`
}

// FolderAnalysis is the result of scanning the designs root.
type FolderAnalysis struct {
	Ready    []string       `json:"ready"`
	NotReady []FolderStatus `json:"notReady"`
}

// ArtworkInfo holds the decoded dimensions of a design's artwork file.
type ArtworkInfo struct {
	FileName    string  `json:"fileName"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspectRatio"`
}
