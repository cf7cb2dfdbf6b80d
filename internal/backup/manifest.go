package backup

import "time"

// manifestVersion is the current backup archive format version.
const manifestVersion = 1

// Manifest describes the contents of a backup archive.
type Manifest struct {
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	Counts    map[string]int `json:"counts"`
}
