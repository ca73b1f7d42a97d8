package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteIndexes(t *testing.T) {
	indexes := noteIndexes()
	require.Len(t, indexes, 1)
	assert.Equal(t, "notes_created_order", *indexes[0].Options.Name)
}
