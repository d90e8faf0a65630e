package models

import "time"

// SuffixRecord is one row of the SKU suffix log.
type SuffixRecord struct {
	Suffix     string    `json:"suffix"`
	Lister     string    `json:"lister"`
	RecordedAt time.Time `json:"recordedAt"`
}
