// Package render turns a completed quote into its shareable artifacts:
// canonical display text and a composited PNG card.
//
// The text side is pure string formatting in three levels, because call
// sites need partial output (the card body carries the dated form while the
// posting caption carries the tagged form). The image side is deterministic
// for fixed font and asset inputs; see [Compositor].
package render

import (
	"fmt"
	"strings"

	"quotecard/internal/quote"
)

// Body formats the quote without the date line. A single phrase renders as a
// quotation, several phrases as a dialogue with one line per phrase in
// speaking order.
func Body(q *quote.Quote) string {
	if len(q.Phrases) == 1 {
		p := q.Phrases[0]
		return fmt.Sprintf("\"%s\" - %s\n", p.Text, p.Speaker.Name)
	}

	var b strings.Builder
	for i := range q.Phrases {
		p := &q.Phrases[i]
		fmt.Fprintf(&b, "%s: %s\n", p.Speaker.Name, p.Text)
	}
	return b.String()
}

// BodyWithDate formats the quote with its date: appended to the attribution
// for a quotation, or as a trailing line for a dialogue.
func BodyWithDate(q *quote.Quote) string {
	if len(q.Phrases) == 1 {
		p := q.Phrases[0]
		return fmt.Sprintf("\"%s\" - %s, %s\n", p.Text, p.Speaker.Name, quote.FormatDate(q.Date))
	}
	return Body(q) + quote.FormatDate(q.Date) + "\n"
}

// BodyWithDateAndTags is the full posting caption: the dated form followed
// by one hashtag per unique speaker name, space-separated in sorted order.
func BodyWithDateAndTags(q *quote.Quote) string {
	return BodyWithDate(q) + "\n" + Tags(q)
}

// Tags returns the hashtag line: each unique speaker name exactly once,
// prefixed with '#', sorted so repeated renders of the same quote agree.
func Tags(q *quote.Quote) string {
	names := q.UniqueSpeakerNames()
	tags := make([]string, len(names))
	for i, name := range names {
		tags[i] = "#" + name
	}
	return strings.Join(tags, " ")
}
