// Package chunker splits page-segmented document text into overlapping,
// word-count-bounded chunk candidates. The sequence is lazy and restartable:
// ranging over Chunks never materializes the whole document, so the batcher
// can pull candidates one at a time.
package chunker

import (
	"iter"
	"regexp"
	"strings"

	"github.com/markdave123-py/MindMesh/internal/models"
)

const (
	DefaultChunkSize = 60
	DefaultOverlap   = 10
)

// Chunker carries the word-count targets. Overlap must stay below ChunkSize.
type Chunker struct {
	ChunkSize int
	Overlap   int
}

func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{ChunkSize: chunkSize, Overlap: overlap}
}

var (
	dotLeaders = regexp.MustCompile(`(?:\.\s*){3,}`)
	nlPadding  = regexp.MustCompile(`[^\S\n]*\n[^\S\n]*`)
	spaceRuns  = regexp.MustCompile(`[^\S\n]+`)
)

// CleanText normalizes line endings, turns tabs into spaces, drops runs of
// three or more leader dots, and collapses whitespace runs to a single
// space. Newlines survive so paragraph boundaries remain visible to the
// splitter. Cleaning is idempotent.
func CleanText(text string) string {
	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\t", " ")
	s = dotLeaders.ReplaceAllString(s, " ")
	s = nlPadding.ReplaceAllString(s, "\n")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func splitParagraphs(cleaned string) []string {
	parts := strings.Split(cleaned, "\n")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Chunks returns the candidate sequence for one document. Page numbers are
// 1-based; the chunk index is a single counter across all pages. When pages
// is empty the fullText fallback runs once with pageNumber fixed at 1.
// Whitespace-only pages are skipped without consuming an index.
func (c *Chunker) Chunks(pages []string, fullText string) iter.Seq[models.ChunkCandidate] {
	return func(yield func(models.ChunkCandidate) bool) {
		idx := 0
		emit := func(content string, page int) bool {
			ok := yield(models.ChunkCandidate{
				Content:    content,
				ChunkIndex: idx,
				PageNumber: page,
			})
			idx++
			return ok
		}

		if len(pages) == 0 {
			c.chunkPage(fullText, 1, emit)
			return
		}
		for i, page := range pages {
			if !c.chunkPage(page, i+1, emit) {
				return
			}
		}
	}
}

// chunkPage accumulates paragraphs into a buffer tracked by word count,
// flushing when the next paragraph would overflow and seeding the following
// buffer with the tail words of the flushed one. A single paragraph larger
// than ChunkSize is sliced into sliding windows instead.
func (c *Chunker) chunkPage(text string, page int, emit func(string, int) bool) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}

	var buf []string
	bufWords := 0

	for _, para := range splitParagraphs(CleanText(text)) {
		words := strings.Fields(para)

		if len(words) > c.ChunkSize {
			if len(buf) > 0 {
				if !emit(strings.Join(buf, "\n\n"), page) {
					return false
				}
				buf, bufWords = nil, 0
			}
			if !c.slideWindows(words, page, emit) {
				return false
			}
			continue
		}

		if bufWords+len(words) > c.ChunkSize && len(buf) > 0 {
			if !emit(strings.Join(buf, "\n\n"), page) {
				return false
			}
			seed := tailWords(strings.Join(buf, " "), c.Overlap)
			buf = []string{seed, para}
			bufWords = len(strings.Fields(seed)) + len(words)
		} else {
			buf = append(buf, para)
			bufWords += len(words)
		}
	}

	if len(buf) > 0 {
		return emit(strings.Join(buf, "\n\n"), page)
	}
	return true
}

// slideWindows emits consecutive ChunkSize-word windows advancing by
// ChunkSize-Overlap words; the last window holds whatever remains.
func (c *Chunker) slideWindows(words []string, page int, emit func(string, int) bool) bool {
	step := c.ChunkSize - c.Overlap
	for i := 0; i < len(words); i += step {
		end := i + c.ChunkSize
		if end > len(words) {
			end = len(words)
		}
		if !emit(strings.Join(words[i:end], " "), page) {
			return false
		}
		if i+c.ChunkSize >= len(words) {
			break
		}
	}
	return true
}

// tailWords returns the last n words of s, or all of them if fewer.
func tailWords(s string, n int) string {
	words := strings.Fields(s)
	if n > len(words) {
		n = len(words)
	}
	return strings.Join(words[len(words)-n:], " ")
}
