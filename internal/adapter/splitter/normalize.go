package splitter

import (
	"regexp"
	"strings"
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
	newlinePattern = regexp.MustCompile(`\r\n|\r`)
	blankPattern   = regexp.MustCompile(`\n\s*\n`)
	spacePattern   = regexp.MustCompile(`\s+`)
	controlPattern = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F-\x9F]`)
)

// Normalize prepares text for line-aware splitting: strips markup tags,
// unifies line terminators to LF, trims every line, and collapses runs of
// blank lines into a single blank line. Normalizing twice yields the same
// result as normalizing once.
func Normalize(text string) string {
	text = tagPattern.ReplaceAllString(text, "")
	text = newlinePattern.ReplaceAllString(text, "\n")

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	text = strings.Join(lines, "\n")

	text = blankPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// CleanForEmbedding flattens text for direct embedding: strips markup tags,
// collapses all whitespace runs to a single space and removes non-printable
// control characters.
func CleanForEmbedding(text string) string {
	text = tagPattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	text = controlPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
