package models

import "time"

// Record is the latest state of one stream: the document a controller keeps
// under a schema. Version starts at 1 and grows by one per merge.
type Record struct {
	StreamID   string
	Controller string
	Schema     string
	Content    map[string]any
	Version    int64
	UpdatedAt  time.Time
}

// Commit is the immutable trace of one successful merge.
type Commit struct {
	StreamID   string         `json:"stream_id"`
	Controller string         `json:"controller"`
	Schema     string         `json:"schema"`
	Version    int64          `json:"version"`
	Patch      map[string]any `json:"patch"`
	Content    map[string]any `json:"content"`
	CreatedAt  time.Time      `json:"created_at"`
}
