package langspec

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// PathSeparator joins heading titles in a section path.
const PathSeparator = " > "

// HeadingStack reconstructs section paths from a sequence of headings.
// Pushing a heading first pops every entry whose level is greater than or
// equal to the new level, so skipped levels (h2 followed by h4) still nest
// the deeper heading directly under the shallower one.
type HeadingStack struct {
	levels []int
	titles []string
}

// Push records a heading and returns its section path.
func (s *HeadingStack) Push(level int, title string) string {
	for len(s.levels) > 0 && s.levels[len(s.levels)-1] >= level {
		s.levels = s.levels[:len(s.levels)-1]
		s.titles = s.titles[:len(s.titles)-1]
	}
	s.levels = append(s.levels, level)
	s.titles = append(s.titles, title)
	return s.Path()
}

// Path returns the current section path.
func (s *HeadingStack) Path() string {
	return strings.Join(s.titles, PathSeparator)
}

// StableID derives a section identifier for a heading without an explicit
// one. The position index keeps same-titled headings on a page distinct
// while staying stable across repeated ingestion of the same page.
func StableID(pageURL, title string, index int) string {
	h := xxhash.New()
	_, _ = fmt.Fprintf(h, "%s\x00%s\x00%d", pageURL, title, index)
	return fmt.Sprintf("gen-%012x", h.Sum64()&0xffffffffffff)
}

// HashContent returns the content hash of a section's full text.
func HashContent(fulltext string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(fulltext))
}
