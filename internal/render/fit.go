package render

import (
	"strings"

	"github.com/gogpu/gg/text"
)

// Text-fit parameters: candidate font sizes run from fitStartSize down to
// fitMinSize in fitStep decrements; block height is measured with
// fitLineSpacing applied per line.
const (
	fitStartSize   = 60.0
	fitMinSize     = 20.0
	fitStep        = 2.0
	fitLineSpacing = 1.2
)

// fitResult is the outcome of the fit search: the chosen face, the wrapped
// lines at that size, and the unspaced height of one line.
type fitResult struct {
	face       text.Face
	size       float64
	lines      []string
	lineHeight float64
}

// fitText finds the largest font size in [fitMinSize, fitStartSize] whose
// wrapped rendering of s fits the boxW×boxH bounding box. The search is a
// monotonic walk downward with a wrap-and-measure oracle at every step, so
// the same input always yields the same size and line breaks.
//
// When even the minimum size overflows, the minimum is returned with
// whatever overflow results. A card with slightly cramped text beats a
// failed render.
func fitText(src *text.FontSource, s string, boxW, boxH float64) fitResult {
	var last fitResult
	for size := fitStartSize; size >= fitMinSize; size -= fitStep {
		face := src.Face(size)
		m := face.Metrics()
		last = fitResult{
			face:       face,
			size:       size,
			lines:      wrapWords(face, s, boxW),
			lineHeight: m.Ascent + m.Descent,
		}
		total := last.lineHeight * float64(len(last.lines)) * fitLineSpacing
		if total <= boxH {
			return last
		}
	}
	return last
}

// wrapWords splits s on explicit line breaks, then greedily wraps each
// paragraph: words are appended while the measured width of the line stays
// within maxW, and a word that would overflow starts a new line. Paragraphs
// are separated by an empty line. The result is never empty.
func wrapWords(face text.Face, s string, maxW float64) []string {
	var lines []string

	for _, para := range strings.Split(s, "\n") {
		var current []string
		for _, word := range strings.Fields(para) {
			candidate := strings.Join(append(current, word), " ")
			if face.Advance(candidate) <= maxW {
				current = append(current, word)
				continue
			}
			if len(current) > 0 {
				lines = append(lines, strings.Join(current, " "))
			}
			current = []string{word}
		}
		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
		}
		lines = append(lines, "")
	}

	// Drop the separator after the final paragraph.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}
