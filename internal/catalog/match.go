package catalog

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// ClosestItem finds the item a player most likely meant by query. Exact names
// win, then the shortest name containing the query, then the nearest name by
// edit distance within a length-dependent limit.
func (c *Catalog) ClosestItem(query string) (Item, bool) {
	q := normalizeName(query)
	if q == "" {
		return Item{}, false
	}

	for _, it := range c.items {
		if normalizeName(it.Name) == q || normalizeName(it.DisplayName) == q {
			return it, true
		}
	}

	best, found := Item{}, false
	for _, it := range c.items {
		name := normalizeName(it.Label())
		if strings.Contains(name, q) && (!found || len(name) < len(normalizeName(best.Label()))) {
			best, found = it, true
		}
	}
	if found {
		return best, true
	}

	bestDist := -1
	for _, it := range c.items {
		for _, candidate := range []string{it.Name, it.DisplayName} {
			name := normalizeName(candidate)
			if name == "" {
				continue
			}
			dist := levenshtein.ComputeDistance(q, name)
			if dist > distanceLimit(len(name)) {
				continue
			}
			if bestDist < 0 || dist < bestDist {
				best, bestDist = it, dist
			}
		}
	}
	return best, bestDist >= 0
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
