package state

import (
	"strings"

	"github.com/samber/lo"
)

// MergeEntities reconciles this turn's fresh extraction with the entities
// carried from the previous turn, field by field:
//
//   - cities: non-empty new extraction wins, empty extraction keeps the
//     carried value (silent carry-forward)
//   - duration_days: a genuine new value (>0) wins; defaulted durations are
//     applied after the merge and never overwrite a carried value
//   - dates: last-write-wins when the new extraction has any
//   - preferences: ordered union, previous-then-new, deduplicated
//   - budget: present-wins
func MergeEntities(prev, next Entities) Entities {
	merged := prev.Clone()

	if len(next.Cities) > 0 {
		merged.Cities = lo.Uniq(cleanList(next.Cities))
	}
	if next.DurationDays > 0 {
		merged.DurationDays = next.DurationDays
	}
	if len(next.Dates) > 0 {
		merged.Dates = cleanList(next.Dates)
	}
	if prefs := cleanList(next.Preferences); len(prefs) > 0 {
		merged.Preferences = lo.Uniq(append(merged.Preferences, prefs...))
	}
	if budget := strings.TrimSpace(next.Budget); budget != "" {
		merged.Budget = budget
	}

	return merged
}

// MergePlaces unions each turn's new exclusions/inclusions into the carried
// lists, then drops any excluded entry that fuzzy-matches an included one:
// inclusion always overrides exclusion.
func MergePlaces(prevExcluded, prevIncluded, newExcluded, newIncluded []string) (excluded, included []string) {
	included = lo.Uniq(cleanList(append(append([]string(nil), prevIncluded...), newIncluded...)))

	candidates := lo.Uniq(cleanList(append(append([]string(nil), prevExcluded...), newExcluded...)))
	excluded = lo.Filter(candidates, func(place string, _ int) bool {
		for _, inc := range included {
			if placesMatch(place, inc) {
				return false
			}
		}
		return true
	})

	return excluded, included
}

// placesMatch is the fuzzy place comparison: substring in either direction,
// so "西湖" matches "杭州西湖" and vice versa.
func placesMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
