package models

import "time"

// UploadResult summarises one product created on the store.
type UploadResult struct {
	HandleOrTitle   string        `json:"handleOrTitle"`
	ProductID       int64         `json:"productId"`
	CreatedVariants int           `json:"createdVariants"`
	CreatedImages   int           `json:"createdImages"`
	AdminURL        string        `json:"adminUrl"`
	Elapsed         time.Duration `json:"elapsed"`
}

// DesignSummary is one line of a batch summary.
type DesignSummary struct {
	Folder   string         `json:"folder"`
	OK       bool           `json:"ok"`
	Error    string         `json:"error,omitempty"`
	Elapsed  time.Duration  `json:"elapsed"`
	Products []UploadResult `json:"products,omitempty"`
}
