package memory

// Default bucket sizes when the caller leaves them unset.
const (
	DefaultHistoryCount   = 5
	DefaultShortTermCount = 10
)

// Categorize partitions an ordered episode sequence into history, short-term,
// and long-term buckets by position: the first historyCount episodes are
// history, the next shortTermCount are short-term, and the remainder is
// long-term (unbounded).
//
// The function assumes upstream ordering already encodes relevance (most
// important first) and performs no re-sorting or filtering. Callers control
// order entirely via what they pass in. The concatenation of the three
// buckets always equals the input.
func Categorize(episodes []Episode, historyCount, shortTermCount int) Categorized {
	if historyCount < 0 {
		historyCount = 0
	}
	if shortTermCount < 0 {
		shortTermCount = 0
	}

	historyEnd := min(historyCount, len(episodes))
	shortTermEnd := min(historyEnd+shortTermCount, len(episodes))

	return Categorized{
		History:   episodes[0:historyEnd],
		ShortTerm: episodes[historyEnd:shortTermEnd],
		LongTerm:  episodes[shortTermEnd:],
	}
}

// CategorizeBuckets partitions episodes using bucket membership the service
// already decided: episodes whose UUID appears in shortTerm go to the
// short-term bucket and everything else to long-term. History is always
// empty on this path.
func CategorizeBuckets(episodes []Episode, shortTerm, longTerm map[string]struct{}) Categorized {
	c := Categorized{
		History:   []Episode{},
		ShortTerm: make([]Episode, 0, len(shortTerm)),
		LongTerm:  make([]Episode, 0, len(longTerm)),
	}

	for _, ep := range episodes {
		if _, ok := shortTerm[ep.UUID]; ok && ep.UUID != "" {
			c.ShortTerm = append(c.ShortTerm, ep)
			continue
		}
		c.LongTerm = append(c.LongTerm, ep)
	}

	return c
}
