package splitter

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 150
)

// DefaultSeparators is tried coarsest-first: paragraph break, line
// break, then sentence terminators.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "? ", "! "}

// Splitter cuts text into chunks of at most ChunkSize runes, preferring
// coarse separators and seeding every chunk with the tail of the
// previous one. A segment that no separator can break is emitted as an
// oversized chunk rather than looping.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

func New(size, overlap int, separators []string) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return &Splitter{
		ChunkSize:    size,
		ChunkOverlap: overlap,
		Separators:   separators,
	}
}

// Split returns the chunks of text in source order. Non-empty text
// that already fits the budget comes back as a single chunk; empty
// input yields no chunks rather than one empty chunk.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	if runeLen(text) <= s.ChunkSize {
		return []string{text}
	}
	return s.merge(s.split(text, 0))
}

// split breaks text into segments that fit the budget, recursing to
// finer separators where a segment is still too long. Separators stay
// attached to the preceding segment, so concatenating the returned
// segments reproduces text exactly.
func (s *Splitter) split(text string, sepIdx int) []string {
	if runeLen(text) <= s.ChunkSize {
		return []string{text}
	}

	idx := -1
	for i := sepIdx; i < len(s.Separators); i++ {
		if strings.Contains(text, s.Separators[i]) {
			idx = i
			break
		}
	}
	if idx == -1 {
		// Separator list exhausted: the segment is indivisible and
		// stays over budget.
		return []string{text}
	}

	var segments []string
	for _, part := range strings.SplitAfter(text, s.Separators[idx]) {
		if part == "" {
			continue
		}
		if runeLen(part) > s.ChunkSize {
			segments = append(segments, s.split(part, idx+1)...)
		} else {
			segments = append(segments, part)
		}
	}
	return segments
}

// merge greedily packs segments into chunks. When a chunk is flushed,
// the next one starts with its trailing ChunkOverlap runes, unless that
// seed would push the next segment over the budget.
func (s *Splitter) merge(segments []string) []string {
	var chunks []string
	var buf string
	for _, seg := range segments {
		if buf != "" && runeLen(buf)+runeLen(seg) > s.ChunkSize {
			chunks = append(chunks, buf)
			tail := tailRunes(buf, s.ChunkOverlap)
			if runeLen(tail)+runeLen(seg) > s.ChunkSize {
				tail = ""
			}
			buf = tail
		}
		buf += seg
	}
	if buf != "" {
		chunks = append(chunks, buf)
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
