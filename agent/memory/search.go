package memory

import (
	"sort"

	statex "github.com/tripmind-ai/tripmind/agent/state"
)

const (
	// appendDedupThreshold drops a new memory that restates an existing one.
	appendDedupThreshold = 0.75
	// searchMinScore filters out weakly related records.
	searchMinScore = 0.3
	// searchDedupThreshold keeps the result list diverse.
	searchDedupThreshold = 0.7
)

type scoredRecord struct {
	record
	Score float64
}

func scoreOf(query string, queryVec []float64, r record) float64 {
	if len(queryVec) > 0 && len(r.Embedding) > 0 {
		return cosine(queryVec, r.Embedding)
	}
	return textSimilarity(query, r.Content)
}

// rankRecords scores every record against the query, keeps those above the
// minimum, and returns them best-first capped at k*2 candidates.
func rankRecords(query string, queryVec []float64, records []record, k int) []scoredRecord {
	scored := make([]scoredRecord, 0, len(records))
	for _, r := range records {
		s := scoreOf(query, queryVec, r)
		if s < searchMinScore {
			continue
		}
		scored = append(scored, scoredRecord{record: r, Score: s})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if limit := k * 2; limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// selectHits walks the ranked candidates and drops any that restate an
// already selected hit, returning at most k results.
func selectHits(candidates []scoredRecord, k int) []statex.MemoryHit {
	hits := make([]statex.MemoryHit, 0, k)
	for _, c := range candidates {
		if len(hits) >= k {
			break
		}
		duplicate := false
		for _, h := range hits {
			if textSimilarity(c.Content, h.Content) >= searchDedupThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		hits = append(hits, statex.MemoryHit{
			Content:  c.Content,
			Category: c.Category,
			Score:    c.Score,
		})
	}
	return hits
}

// isDuplicate reports whether content restates any existing record.
func isDuplicate(content string, contentVec []float64, records []record) bool {
	for _, r := range records {
		var s float64
		if len(contentVec) > 0 && len(r.Embedding) > 0 {
			s = cosine(contentVec, r.Embedding)
		} else {
			s = textSimilarity(content, r.Content)
		}
		if s >= appendDedupThreshold {
			return true
		}
	}
	return false
}
