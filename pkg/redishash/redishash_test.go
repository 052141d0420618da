package redishash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name    string  `redis:"name"`
	Avatar  *string `redis:"avatar_url"`
	Rank    *int    `redis:"rank,omitempty"`
	Skipped string  `redis:"-"`
	Plain   bool
	hidden  string
}

func TestFields(t *testing.T) {
	rank := 3
	fields := Fields(&sample{Name: "alice", Rank: &rank, Skipped: "x", Plain: true, hidden: "y"})

	assert.Equal(t, map[string]any{
		"name":  "alice",
		"rank":  3,
		"Plain": true,
	}, fields)
}

func TestFieldsNonStruct(t *testing.T) {
	var s *sample
	assert.Empty(t, Fields(s))
	assert.Empty(t, Fields(42))
}
