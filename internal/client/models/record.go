package models

import "github.com/dmitrijs2005/selfkeeper/internal/common"

// Record is a readout of one schema record of the connected identity.
// Content is nil when the identity has no record for the schema yet.
type Record struct {
	StreamID string
	Content  map[string]any
	Version  int64
}

// Exists reports whether the record has been written at least once.
func (r Record) Exists() bool {
	return r.Content != nil
}

// Name returns the profile name and whether it is set to a string.
func (r Record) Name() (string, bool) {
	if r.Content == nil {
		return "", false
	}
	v, ok := r.Content[common.NameField].(string)
	return v, ok
}
