package splitter

import "sort"

// lineMap maps byte offsets in a text to 1-based line numbers. Every byte
// of line n, including its trailing newline, maps to n.
type lineMap struct {
	starts []int
}

func newLineMap(text string) *lineMap {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineMap{starts: starts}
}

// lineOf returns the line number containing the byte at offset. Offsets
// past the end clamp to the last line, negative offsets to line 1.
func (m *lineMap) lineOf(offset int) int {
	if offset < 0 {
		return 1
	}
	return sort.Search(len(m.starts), func(i int) bool {
		return m.starts[i] > offset
	})
}
