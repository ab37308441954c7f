package resolve

import "strings"

// Distance is the Levenshtein edit distance between a and b.
func Distance(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			sub := diag
			if a[i-1] != b[j-1] {
				sub++
			}
			diag = row[j]
			row[j] = min(row[j]+1, row[j-1]+1, sub)
		}
	}
	return row[len(b)]
}

// Nearest returns the index of the id closest to query by case-insensitive
// edit distance, or -1 when none is within maxDist. Ties keep the earlier id.
func Nearest(query string, ids []string, maxDist int) int {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return -1
	}
	best, bestDist := -1, maxDist+1
	for i, id := range ids {
		if d := Distance(query, strings.ToLower(id)); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
