package memory

import "strings"

// DedupeEpisodes removes exact repeats while preserving first-seen order.
// Two episodes are duplicates only when content, producer, and recipient all
// match; the same sentence spoken by different parties is a distinct event.
// The input slice is never mutated.
func DedupeEpisodes(episodes []Episode) []Episode {
	seen := make(map[string]struct{}, len(episodes))
	out := make([]Episode, 0, len(episodes))

	for _, ep := range episodes {
		key := ep.Content + "|" + ep.Producer + "|" + ep.ProducedFor
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ep)
	}

	return out
}

// DedupeFacts removes repeated subject-predicate-object assertions while
// preserving first-seen order. Facts with an empty object are excluded
// regardless of duplication. The input slice is never mutated.
func DedupeFacts(facts []Fact) []Fact {
	seen := make(map[string]struct{}, len(facts))
	out := make([]Fact, 0, len(facts))

	for _, f := range facts {
		if strings.TrimSpace(f.Object) == "" {
			continue
		}
		key := f.Subject + "|" + f.Predicate + "|" + f.Object
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}

	return out
}
