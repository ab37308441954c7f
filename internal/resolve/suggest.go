// Package resolve finds the model and file IDs, commands and flags closest
// to what the user typed.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Match is a candidate and its fuzzy score; higher is better.
type Match struct {
	ID    string
	Score int
}

// NotFoundError is attached to a 404 when similar identifiers exist.
type NotFoundError struct {
	Query       string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("no match found for %q", e.Query)
	}
	return fmt.Sprintf("no match found for %q (did you mean %s?)", e.Query, strings.Join(e.Suggestions, ", "))
}

type folded []string

func (s folded) String(i int) string { return strings.ToLower(s[i]) }
func (s folded) Len() int            { return len(s) }

// MatchAll ranks ids whose characters contain query in order ("embed"
// finds "text-embedding-ada-002"), best first, at most limit.
func MatchAll(query string, ids []string, limit int) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(ids) == 0 || limit <= 0 {
		return nil
	}
	results := fuzzy.FindFrom(query, folded(ids))
	if len(results) > limit {
		results = results[:limit]
	}
	out := make([]Match, len(results))
	for i, r := range results {
		out[i] = Match{ID: ids[r.Index], Score: r.Score}
	}
	return out
}

// Suggest returns up to limit ids close to query. Subsequence matches come
// first; when there are none, ids within a few edits are used, which
// catches transpositions such as "gtp-4".
func Suggest(query string, ids []string, limit int) []string {
	var out []string
	for _, m := range MatchAll(query, ids, limit) {
		if !strings.EqualFold(m.ID, query) {
			out = append(out, m.ID)
		}
	}
	if len(out) > 0 {
		return out
	}
	return closest(query, ids, limit)
}

func closest(query string, ids []string, limit int) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return nil
	}
	maxDist := max(2, len(query)/3)
	type scored struct {
		id   string
		dist int
	}
	var near []scored
	for _, id := range ids {
		if d := Distance(query, strings.ToLower(id)); d > 0 && d <= maxDist {
			near = append(near, scored{id, d})
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].dist < near[j].dist })
	if len(near) > limit {
		near = near[:limit]
	}
	out := make([]string, len(near))
	for i, s := range near {
		out[i] = s.id
	}
	return out
}
