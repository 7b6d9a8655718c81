package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord(t *testing.T) {
	var empty Record
	assert.False(t, empty.Exists())
	_, ok := empty.Name()
	assert.False(t, ok)

	r := Record{Content: map[string]any{"name": "Ada", "emoji": "🦊"}, Version: 2}
	assert.True(t, r.Exists())
	name, ok := r.Name()
	assert.True(t, ok)
	assert.Equal(t, "Ada", name)

	blank := Record{Content: map[string]any{"name": ""}}
	name, ok = blank.Name()
	assert.True(t, ok)
	assert.Empty(t, name)

	noName := Record{Content: map[string]any{"emoji": "x"}}
	_, ok = noName.Name()
	assert.False(t, ok)
}
