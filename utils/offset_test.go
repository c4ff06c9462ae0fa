package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuneIndex_ToByte(t *testing.T) {
	text := "José won 1st"
	index := NewRuneIndex(text)

	assert.Equal(t, 12, index.Len())

	begin, ok := index.ToByte(5)
	assert.True(t, ok)
	end, ok := index.ToByte(8)
	assert.True(t, ok)
	assert.Equal(t, "won", text[begin:end])

	end, ok = index.ToByte(12)
	assert.True(t, ok)
	assert.Equal(t, len(text), end)

	_, ok = index.ToByte(13)
	assert.False(t, ok)
	_, ok = index.ToByte(-1)
	assert.False(t, ok)
}
