package orchestrator

import "strings"

// Stance is a participant's reply inside a gated voting phase.
type Stance int

const (
	StanceNeither Stance = iota
	StanceAffirmative
	StanceNegative
)

var affirmativeWords = []string{
	"yes", "yep", "yeah", "ok", "okay", "sure", "agree", "agreed",
	"confirm", "confirmed", "replan", "fine", "sounds good", "go ahead",
	"approve", "approved", "👍",
}

var negativeWords = []string{
	"no", "nope", "nah", "disagree", "reject", "rejected", "cancel",
	"veto", "against", "don't", "do not", "👎",
}

// ParseStance reads a short reply as affirmative, negative, or neither.
// Negative wins on a mixed reply ("ok but no") so an objection is never
// silently counted as consent.
func ParseStance(message string) Stance {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return StanceNeither
	}
	for _, w := range negativeWords {
		if containsWord(text, w) {
			return StanceNegative
		}
	}
	for _, w := range affirmativeWords {
		if containsWord(text, w) {
			return StanceAffirmative
		}
	}
	return StanceNeither
}

// containsWord matches w as a whole word inside text.
func containsWord(text, w string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], w)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(w)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '\''
}
