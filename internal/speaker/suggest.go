package speaker

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// suggestThreshold is the minimum Jaro-Winkler similarity for a stored name
// to be offered as a possible duplicate of a newly entered one.
const suggestThreshold = 0.88

// Suggest returns the stored speaker whose name most closely resembles name,
// if any scores above the similarity threshold. Matching stays exact and
// case-sensitive everywhere else in the system; this is only a hint surfaced
// to the user when they introduce a near-duplicate ("bob" next to "Bob",
// or a typo of an existing name).
//
// The comparison is case-insensitive Jaro-Winkler. An exact (case-sensitive)
// match never yields a suggestion — that name resolves normally instead.
func Suggest(existing []Speaker, name string) (Speaker, bool) {
	lowered := strings.ToLower(name)

	var best Speaker
	bestScore := 0.0
	for _, sp := range existing {
		if sp.Name == name {
			return Speaker{}, false
		}
		score := matchr.JaroWinkler(lowered, strings.ToLower(sp.Name), false)
		if score > bestScore {
			best = sp
			bestScore = score
		}
	}

	if bestScore < suggestThreshold {
		return Speaker{}, false
	}
	return best, true
}
