package splitter

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSeparators returns the separator priority list used when none is
// configured: paragraph break, line break, sentence terminators (CJK and
// Latin), clause punctuation, space, and finally character-level fallback.
func DefaultSeparators() []string {
	return []string{
		"\n\n",
		"\n",
		"。",
		"！",
		"？",
		"；",
		"，",
		". ",
		"! ",
		"? ",
		"; ",
		", ",
		" ",
		"",
	}
}

// Config controls how text is split into chunks. Lengths are in bytes.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// Validate rejects configurations that cannot make forward progress.
// ChunkOverlap >= ChunkSize would give the character-level fallback a
// non-positive stride, so it is refused here rather than mid-split.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap must not be negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// RecursiveSplitter splits text into bounded segments by trying separators
// in priority order and recursing into oversized pieces.
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func NewRecursiveSplitter(cfg Config) (*RecursiveSplitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seps := cfg.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators()
	}
	return &RecursiveSplitter{
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
		separators:   seps,
	}, nil
}

// Split returns ordered segments of text, each at most chunkSize bytes
// before overlap injection. When overlap is configured, every segment after
// the first is prefixed with the trailing overlap bytes of its pre-overlap
// predecessor.
func (s *RecursiveSplitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	segments, overlapped := s.segment(text, s.separators)
	if !overlapped && s.chunkOverlap > 0 && len(segments) > 1 {
		segments = s.addOverlap(segments)
	}
	return segments
}

// segment produces pre-overlap segments. The second return value reports
// that the whole result came from the character-level fallback, whose
// windows already carry overlap by construction.
func (s *RecursiveSplitter) segment(text string, separators []string) ([]string, bool) {
	if len(text) <= s.chunkSize {
		return []string{text}, false
	}

	sep := ""
	if len(separators) > 0 {
		sep = separators[0]
	}
	if sep == "" {
		return s.splitByStride(text), true
	}

	pieces := strings.Split(text, sep)
	if len(pieces) == 1 {
		// Separator not present, fall through to the next one.
		if len(separators) > 1 {
			return s.segment(text, separators[1:])
		}
		return s.splitByStride(text), true
	}

	// Greedily re-pack pieces into segments, rejoining with the separator
	// while the accumulated length stays within bounds.
	var segments []string
	current := ""
	for _, piece := range pieces {
		candidate := piece
		if current != "" {
			candidate = current + sep + piece
		}
		if len(candidate) <= s.chunkSize {
			current = candidate
			continue
		}

		if current != "" {
			segments = append(segments, current)
			current = ""
		}
		if len(piece) > s.chunkSize {
			rest := separators[1:]
			if len(rest) == 0 {
				rest = []string{""}
			}
			sub, _ := s.segment(piece, rest)
			segments = append(segments, sub...)
		} else {
			current = piece
		}
	}
	if current != "" {
		segments = append(segments, current)
	}

	return segments, false
}

// splitByStride is the character-level fallback: successive windows of
// chunkSize bytes at offsets 0, stride, 2*stride, ... where
// stride = chunkSize - chunkOverlap. Window boundaries are snapped to rune
// boundaries so multi-byte characters are never cut.
func (s *RecursiveSplitter) splitByStride(text string) []string {
	stride := s.chunkSize - s.chunkOverlap

	var windows []string
	for offset := 0; offset < len(text); offset += stride {
		begin := snapForward(text, offset)
		if begin >= len(text) {
			break
		}
		end := begin + s.chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = snapBack(text, end)
		}
		windows = append(windows, text[begin:end])
	}
	return windows
}

func (s *RecursiveSplitter) addOverlap(segments []string) []string {
	out := make([]string, 0, len(segments))
	out = append(out, segments[0])
	for i := 1; i < len(segments); i++ {
		out = append(out, overlapTail(segments[i-1], s.chunkOverlap)+segments[i])
	}
	return out
}

// overlapTail returns the trailing k bytes of prev (the whole of prev when
// shorter), snapped forward to a rune boundary.
func overlapTail(prev string, k int) string {
	if k >= len(prev) {
		return prev
	}
	return prev[snapForward(prev, len(prev)-k):]
}

func snapForward(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

func snapBack(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
