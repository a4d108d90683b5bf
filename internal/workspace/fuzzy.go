package workspace

// damerauLevenshtein computes the Damerau-Levenshtein edit distance between
// a and b (insertions, deletions, substitutions, and adjacent transpositions
// all cost 1). No pack dependency implements edit-distance string
// similarity, so this is hand-rolled (see DESIGN.md's stdlib
// justification).
func damerauLevenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	la, lb := len(ar), len(br)

	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	// d[i][j] is the edit distance between ar[:i] and br[:j].
	d := make([][]int, la+1)
	for i := range d {
		d[i] = make([]int, lb+1)
		d[i][0] = i
	}
	for j := 0; j <= lb; j++ {
		d[0][j] = j
	}

	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}

			del := d[i-1][j] + 1
			ins := d[i][j-1] + 1
			sub := d[i-1][j-1] + cost
			best := del
			if ins < best {
				best = ins
			}
			if sub < best {
				best = sub
			}

			if i > 1 && j > 1 && ar[i-1] == br[j-2] && ar[i-2] == br[j-1] {
				if trans := d[i-2][j-2] + cost; trans < best {
					best = trans
				}
			}

			d[i][j] = best
		}
	}

	return d[la][lb]
}

// similarity returns a normalized Damerau-Levenshtein similarity in [0,1]:
// 1 means identical, 0 means maximally different relative to the longer
// string's length.
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	dist := damerauLevenshtein(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

// fuzzyMatch pairs a candidate filename with its similarity to the query.
type fuzzyMatch struct {
	name  string
	score float64
	order int // insertion order, for stable tie-breaking
}

// topNFuzzy scans candidates for the top_n entries by similarity to query,
// using an insert-and-prune strategy: O(N*top_n) instead of a full sort.
// Ties keep the earlier-seen candidate first (stable).
func topNFuzzy(query string, candidates []string, topN int) []string {
	if topN <= 0 {
		return nil
	}

	best := make([]fuzzyMatch, 0, topN)
	for i, c := range candidates {
		score := similarity(query, c)
		m := fuzzyMatch{name: c, score: score, order: i}

		if len(best) < topN {
			best = insertSorted(best, m)
			continue
		}
		if score > best[len(best)-1].score {
			best = best[:len(best)-1]
			best = insertSorted(best, m)
		}
	}

	out := make([]string, len(best))
	for i, m := range best {
		out[i] = m.name
	}
	return out
}

// insertSorted inserts m into best, keeping it sorted by descending score
// (ties broken by ascending insertion order).
func insertSorted(best []fuzzyMatch, m fuzzyMatch) []fuzzyMatch {
	idx := len(best)
	for i, existing := range best {
		if m.score > existing.score || (m.score == existing.score && m.order < existing.order) {
			idx = i
			break
		}
	}
	best = append(best, fuzzyMatch{})
	copy(best[idx+1:], best[idx:])
	best[idx] = m
	return best
}
