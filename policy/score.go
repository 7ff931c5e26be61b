package policy

import (
	"strings"
	"unicode"
)

// Score rates a candidate password 0..4 and returns feedback strings for
// the weaknesses found. It is a heuristic for interactive strength meters
// only; Validate remains the gate.
func Score(plain string) (int, []string) {
	var feedback []string

	if plain == "" {
		return 0, []string{"add more characters"}
	}

	score := 0
	switch {
	case len(plain) >= 16:
		score += 2
	case len(plain) >= 12:
		score += 1
	case len(plain) < 8:
		feedback = append(feedback, "add more characters")
	}

	classes := 0
	var upper, lower, digit, symbol bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	for _, present := range []bool{upper, lower, digit, symbol} {
		if present {
			classes++
		}
	}
	switch classes {
	case 4:
		score += 2
	case 3:
		score += 1
	default:
		feedback = append(feedback, "mix uppercase, lowercase, digits and symbols")
	}

	if isCommonPattern(plain) {
		score -= 2
		feedback = append(feedback, "avoid common words and sequences")
	}
	if repeatedRun(plain) >= 4 {
		score--
		feedback = append(feedback, "avoid repeated characters")
	}

	if score < 0 {
		score = 0
	}
	if score > 4 {
		score = 4
	}
	if score >= 3 {
		feedback = nil
	}
	return score, feedback
}

var commonFragments = []string{
	"password", "qwerty", "asdf", "letmein", "welcome", "admin",
	"12345", "abcdef", "iloveyou", "dragon", "monkey",
}

func isCommonPattern(plain string) bool {
	lowered := strings.ToLower(plain)
	for _, fragment := range commonFragments {
		if strings.Contains(lowered, fragment) {
			return true
		}
	}
	return false
}

func repeatedRun(plain string) int {
	longest, run := 0, 0
	var prev rune
	for i, r := range plain {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = r
	}
	return longest
}
