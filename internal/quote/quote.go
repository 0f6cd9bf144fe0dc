// Package quote defines the domain aggregate built up during an authoring
// session: an ordered sequence of attributed phrases dated as a unit, plus
// the date codec for the user-facing dd.mm.yyyy form.
package quote

import (
	"sort"
	"time"

	"quotecard/internal/speaker"
)

// Phrase is one attributed line of speech within a quote. Speaker is nil
// until the authoring flow resolves who said it; exactly one assignment sets
// it. Context is reserved for a surrounding-situation note and has no input
// flow yet.
type Phrase struct {
	Speaker *speaker.Speaker
	Text    string
	Context string
}

// Quote is the unit of publication: one or more phrases in speaking order
// plus the calendar date they were heard. A quote with zero phrases is a
// valid in-progress value but must never reach the render pipeline.
type Quote struct {
	Phrases []Phrase
	Date    time.Time
}

// New returns an empty quote for the given date.
func New(date time.Time) *Quote {
	return &Quote{Date: date}
}

// Append adds a new phrase with the given text and no speaker, and returns
// a pointer to it.
func (q *Quote) Append(text string) *Phrase {
	q.Phrases = append(q.Phrases, Phrase{Text: text})
	return &q.Phrases[len(q.Phrases)-1]
}

// LastPhrase returns the most recently appended phrase, or nil when the
// quote is still empty.
func (q *Quote) LastPhrase() *Phrase {
	if len(q.Phrases) == 0 {
		return nil
	}
	return &q.Phrases[len(q.Phrases)-1]
}

// Complete reports whether the quote has at least one phrase and every
// phrase has a resolved speaker. Only complete quotes may be rendered.
func (q *Quote) Complete() bool {
	if len(q.Phrases) == 0 {
		return false
	}
	for i := range q.Phrases {
		if q.Phrases[i].Speaker == nil {
			return false
		}
	}
	return true
}

// UniqueSpeakerNames returns each referenced speaker name exactly once,
// sorted. Sorting keeps hashtag output stable regardless of how often or in
// what order a speaker appears.
func (q *Quote) UniqueSpeakerNames() []string {
	seen := make(map[string]bool, len(q.Phrases))
	var names []string
	for i := range q.Phrases {
		sp := q.Phrases[i].Speaker
		if sp == nil || seen[sp.Name] {
			continue
		}
		seen[sp.Name] = true
		names = append(names, sp.Name)
	}
	sort.Strings(names)
	return names
}

// FirstImageRef returns the image reference of the first phrase whose
// speaker has one. Only a single speaker image appears on a card even when
// several speakers have images; this is a documented limitation, not an
// oversight.
func (q *Quote) FirstImageRef() string {
	for i := range q.Phrases {
		if sp := q.Phrases[i].Speaker; sp != nil && sp.HasImage() {
			return sp.ImageRef
		}
	}
	return ""
}
