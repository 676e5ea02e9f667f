package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitText("short", 10, 2))
	assert.Equal(t, []string{"abcd", "cdef", "efgh"}, SplitText("abcdefgh", 4, 2))
	assert.Equal(t, []string{"abc", "def", "gh"}, SplitText("abcdefgh", 3, 5))
}

func TestChunkParagraphs_CombinesSmall(t *testing.T) {
	text := "first para\n\nsecond para\n\n\n\nthird"
	got := ChunkParagraphs(text, 100, 60, 20)
	assert.Equal(t, []string{"first para\n\nsecond para\n\nthird"}, got)
}

func TestChunkParagraphs_RespectsLimits(t *testing.T) {
	para := strings.Repeat("x", 40)
	text := strings.Join([]string{para, para, para, para}, "\n\n")

	got := ChunkParagraphs(text, 100, 50, 10)
	for _, c := range got {
		assert.LessOrEqual(t, len(c), 100)
	}
	assert.Len(t, got, 2)
}

func TestChunkParagraphs_SplitsOversized(t *testing.T) {
	got := ChunkParagraphs(strings.Repeat("y", 250), 100, 100, 10)
	assert.Len(t, got, 3)
	assert.Empty(t, ChunkParagraphs("  \n\n ", 100, 50, 10))
}
