package search

// approxMatch finds the substring of text that pattern can be turned into
// with the fewest single-rune edits (insert, delete, substitute). It
// returns that edit count and the rune offset where the substring starts;
// among equally cheap substrings the earliest start wins.
//
// This is the semi-global variant of Levenshtein distance: the first row is
// all zeros, so the match may begin anywhere in text.
func approxMatch(pattern, text []rune) (errs, start int) {
	m, n := len(pattern), len(text)
	if m == 0 {
		return 0, 0
	}

	prev := make([]int, n+1)
	cur := make([]int, n+1)
	prevStart := make([]int, n+1)
	curStart := make([]int, n+1)
	for j := range prev {
		prevStart[j] = j
	}

	for i := 1; i <= m; i++ {
		cur[0], curStart[0] = i, 0
		for j := 1; j <= n; j++ {
			cost := 1
			if pattern[i-1] == text[j-1] {
				cost = 0
			}

			best, from := prev[j-1]+cost, prevStart[j-1]
			if d := prev[j] + 1; d < best || d == best && prevStart[j] < from {
				best, from = d, prevStart[j]
			}
			if d := cur[j-1] + 1; d < best || d == best && curStart[j-1] < from {
				best, from = d, curStart[j-1]
			}
			cur[j], curStart[j] = best, from
		}
		prev, cur = cur, prev
		prevStart, curStart = curStart, prevStart
	}

	errs, start = prev[0], prevStart[0]
	for j := 1; j <= n; j++ {
		if prev[j] < errs || prev[j] == errs && prevStart[j] < start {
			errs, start = prev[j], prevStart[j]
		}
	}
	return errs, start
}
