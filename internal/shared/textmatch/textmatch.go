// Package textmatch implements the fuzzy similarity score used by entity
// resolution. The score is a pure function of two normalized strings so the
// acceptance policy can be tested without any I/O.
package textmatch

// Score returns a similarity score in [0, 1] between two normalized strings.
// It combines a rune-bigram Dice coefficient with a containment ratio so
// that short aliases embedded in longer provider titles still score high.
// Identical strings score 1; strings with nothing in common score 0.
func Score(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) == 1 || len(rb) == 1 {
		// Too short for bigrams; fall back to containment.
		return containment(ra, rb)
	}

	dice := diceCoefficient(ra, rb)
	if c := containment(ra, rb); c > dice {
		return c
	}
	return dice
}

// diceCoefficient computes 2*|A∩B| / (|A|+|B|) over rune bigram multisets.
func diceCoefficient(a, b []rune) float64 {
	bigramsA := bigrams(a)
	bigramsB := bigrams(b)

	counts := make(map[[2]rune]int, len(bigramsA))
	for _, bg := range bigramsA {
		counts[bg]++
	}

	overlap := 0
	for _, bg := range bigramsB {
		if counts[bg] > 0 {
			counts[bg]--
			overlap++
		}
	}

	return 2 * float64(overlap) / float64(len(bigramsA)+len(bigramsB))
}

// containment scores the shorter string's coverage inside the longer one,
// scaled by the length ratio so a two-rune substring of a long title does
// not dominate.
func containment(a, b []rune) float64 {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if !contains(long, short) {
		return 0
	}
	return float64(len(short)) / float64(len(long))
}

func contains(haystack, needle []rune) bool {
	if len(needle) == 0 {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func bigrams(rs []rune) [][2]rune {
	out := make([][2]rune, 0, len(rs)-1)
	for i := 0; i+1 < len(rs); i++ {
		out = append(out, [2]rune{rs[i], rs[i+1]})
	}
	return out
}
