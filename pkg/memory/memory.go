// Package memory implements the recall shaping pipeline for conversational
// memory retrieved from a MemMachine service.
//
// The pipeline is pure value transformation: a raw search response is
// normalized into canonical episode and fact records, deduplicated, bucketed
// into history / short-term / long-term memory, and optionally rendered
// through a user-authored context template into a single prompt block.
//
// Every stage degrades instead of failing: a malformed response, a missing
// field, or an empty template section produces partial or empty memory, never
// an error. The pipeline sits on the retrieval path of a live conversation;
// an agent turn must not crash because the memory service answered with an
// unexpected shape.
//
// No stage holds state; all functions are safe for concurrent use.
package memory

// EpisodeType classifies an episodic record.
type EpisodeType string

const (
	EpisodeDialog      EpisodeType = "dialog"
	EpisodeSummary     EpisodeType = "summary"
	EpisodeObservation EpisodeType = "observation"
)

// Episode is one conversational turn: a message exchanged between a producer
// and its intended recipient. Episodes live for the duration of a single
// recall or store call and are never persisted by this package.
type Episode struct {
	// UUID is the upstream identifier, used only to match episodes against
	// pre-bucketed responses.
	UUID        string         `json:"uuid,omitempty"`
	Content     string         `json:"content"`
	Producer    string         `json:"producer,omitempty"`
	ProducedFor string         `json:"produced_for,omitempty"`
	Type        EpisodeType    `json:"episode_type,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	GroupID     string         `json:"group_id,omitempty"`
	SessionID   string         `json:"session_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Fact is a durable subject-predicate-object assertion about a user or
// entity, independent of any single conversation turn.
type Fact struct {
	Subject    string  `json:"subject"`
	Predicate  string  `json:"predicate"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence,omitempty"`
	Source     string  `json:"source,omitempty"`
}

// Categorized is a partition of an ordered episode sequence into three
// recency buckets. The buckets are mutually exclusive and collectively
// exhaustive over the input sequence, in input order.
type Categorized struct {
	History   []Episode `json:"history"`
	ShortTerm []Episode `json:"short_term_memory"`
	LongTerm  []Episode `json:"long_term_memory"`
}

// Total returns the number of episodes across all three buckets.
func (c Categorized) Total() int {
	return len(c.History) + len(c.ShortTerm) + len(c.LongTerm)
}

// Role classifies the author of a message in the raw (non-templated) recall
// path.
type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

// RoleClassifier decides whether a producer identifier belongs to a human or
// an AI agent. Classification is a host policy, so callers inject it; the
// pipeline contains no producer naming heuristics.
type RoleClassifier func(producer string) Role

// ClassifierFromUserIDs builds a RoleClassifier that treats the given
// producer identifiers as human and everything else as AI.
func ClassifierFromUserIDs(userIDs []string) RoleClassifier {
	humans := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		humans[id] = struct{}{}
	}
	return func(producer string) Role {
		if _, ok := humans[producer]; ok {
			return RoleHuman
		}
		return RoleAI
	}
}
