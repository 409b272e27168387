package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/MindMesh/internal/models"
)

func collect(c *Chunker, pages []string, fullText string) []models.ChunkCandidate {
	var out []models.ChunkCandidate
	for cand := range c.Chunks(pages, fullText) {
		out = append(out, cand)
	}
	return out
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "w" + string(rune('a'+i%26))
	}
	return strings.Join(parts, " ")
}

func TestShortParagraphSingleChunk(t *testing.T) {
	c := New(60, 10)

	got := collect(c, []string{"A well-formed short paragraph."}, "")

	require.Len(t, got, 1)
	assert.Equal(t, "A well-formed short paragraph.", got[0].Content)
	assert.Equal(t, 0, got[0].ChunkIndex)
	assert.Equal(t, 1, got[0].PageNumber)
}

func TestOversizedParagraphSlidesWindows(t *testing.T) {
	c := New(60, 10)

	got := collect(c, []string{words(200)}, "")

	// windows start at 0, 50, 100, 150
	require.Len(t, got, 4)
	for i, cand := range got {
		assert.Equal(t, i, cand.ChunkIndex)
		assert.Equal(t, 1, cand.PageNumber)
	}
	assert.Len(t, strings.Fields(got[0].Content), 60)
	assert.Len(t, strings.Fields(got[1].Content), 60)
	assert.Len(t, strings.Fields(got[2].Content), 60)
	assert.Len(t, strings.Fields(got[3].Content), 50)

	// consecutive windows share the trailing overlap words
	prev := strings.Fields(got[0].Content)
	next := strings.Fields(got[1].Content)
	assert.Equal(t, prev[50:], next[:10])
}

func TestBufferOverflowSeedsOverlap(t *testing.T) {
	c := New(10, 3)

	pageText := words(8) + "\n" + words(8)
	got := collect(c, []string{pageText}, "")

	require.Len(t, got, 2)

	prevWords := strings.Fields(got[0].Content)
	tail := prevWords[len(prevWords)-3:]
	nextWords := strings.Fields(got[1].Content)
	assert.Equal(t, tail, nextWords[:3], "overlap words must reappear at the start of the next chunk")
	assert.Len(t, nextWords, 3+8)
}

func TestChunkWordCountBounded(t *testing.T) {
	c := New(25, 5)

	page := strings.Join([]string{words(10), words(12), words(9), words(24), words(3)}, "\n")
	got := collect(c, []string{page, page}, "")
	require.NotEmpty(t, got)

	for _, cand := range got {
		n := len(strings.Fields(cand.Content))
		assert.LessOrEqual(t, n, 25+5, "chunk %d has %d words", cand.ChunkIndex, n)
	}
}

func TestIndicesIncreaseAcrossPages(t *testing.T) {
	c := New(10, 2)

	got := collect(c, []string{words(25), "   \n  ", words(25), ""}, "")
	require.NotEmpty(t, got)

	for i, cand := range got {
		assert.Equal(t, i, cand.ChunkIndex)
	}
	assert.Equal(t, 1, got[0].PageNumber)
	assert.Equal(t, 3, got[len(got)-1].PageNumber, "empty pages are skipped, not renumbered")
}

func TestFullTextFallbackUsesPageOne(t *testing.T) {
	c := New(10, 2)

	got := collect(c, nil, words(25))
	require.NotEmpty(t, got)
	for _, cand := range got {
		assert.Equal(t, 1, cand.PageNumber)
	}
}

func TestEmptyInputEmitsNothing(t *testing.T) {
	c := New(60, 10)

	assert.Empty(t, collect(c, nil, ""))
	assert.Empty(t, collect(c, []string{"", "  \t\n "}, ""))
}

func TestSequenceIsRestartable(t *testing.T) {
	c := New(10, 2)
	seq := c.Chunks([]string{words(25)}, "")

	var first, second []models.ChunkCandidate
	for cand := range seq {
		first = append(first, cand)
	}
	for cand := range seq {
		second = append(second, cand)
	}
	assert.Equal(t, first, second)
}

func TestSequenceStopsEarly(t *testing.T) {
	c := New(10, 2)

	n := 0
	for range c.Chunks([]string{words(100)}, "") {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b", CleanText("a\tb"))
	assert.Equal(t, "Intro 7", CleanText("Intro . . . . 7"))
	assert.Equal(t, "one\ntwo", CleanText("one   \r\n   two"))
	assert.Equal(t, "", CleanText(" \t \r\n "))
}

func TestCleanTextIdempotent(t *testing.T) {
	inputs := []string{
		"Chapter 1 ......... 12\r\n\r\nBody\ttext   here.",
		"  padded \n\n\n lines \n",
		words(40),
	}
	for _, in := range inputs {
		once := CleanText(in)
		assert.Equal(t, once, CleanText(once))
	}
}
