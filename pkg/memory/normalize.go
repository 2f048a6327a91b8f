package memory

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Normalized is the canonical result of decoding one search response.
type Normalized struct {
	Episodes  []Episode
	Facts     []Fact
	Summaries []string

	// Bucketed reports whether the response pre-partitioned episodes into
	// short-term and long-term buckets. When true, CategorizeBuckets is the
	// right categorization path and the UUID sets below drive membership.
	Bucketed       bool
	ShortTermUUIDs map[string]struct{}
	LongTermUUIDs  map[string]struct{}
}

// The service answers search requests in one of two shapes. The flat shape
// tags every record with a type discriminator:
//
//	{"memories": [{"type": "episodic", ...}, {"type": "profile", ...}]}
//
// The nested shape partitions episodic memory into buckets:
//
//	{"content": {"episodic_memory": {"short_term_memory": {...},
//	                                 "long_term_memory": {...}},
//	             "semantic_memory": [...]}}
//
// Each variant is decoded as an explicit type below; Normalize attempts the
// flat shape first, then the nested shape, then gives up and returns empty
// collections.
type flatResponse struct {
	Memories []json.RawMessage `json:"memories"`
}

type nestedResponse struct {
	Content *nestedContent `json:"content"`
}

type nestedContent struct {
	EpisodicMemory *struct {
		ShortTermMemory *struct {
			Episodes       []json.RawMessage `json:"episodes"`
			EpisodeSummary []json.RawMessage `json:"episode_summary"`
		} `json:"short_term_memory"`
		LongTermMemory *struct {
			Episodes []json.RawMessage `json:"episodes"`
		} `json:"long_term_memory"`
	} `json:"episodic_memory"`
	SemanticMemory []json.RawMessage `json:"semantic_memory"`
}

// rawEpisode is one episodic item as the service returns it. Items arrive in
// two sub-shapes: either the fields live on the item itself, or the item
// wraps them in a messages list and the first message wins.
type rawEpisode struct {
	UID           string         `json:"uid"`
	ID            string         `json:"id"`
	UUID          string         `json:"uuid"`
	Content       string         `json:"content"`
	ProducerID    string         `json:"producer_id"`
	Producer      string         `json:"producer"`
	ProducedForID string         `json:"produced_for_id"`
	ProducedFor   string         `json:"produced_for"`
	EpisodeType   string         `json:"episode_type"`
	CreatedAt     string         `json:"created_at"`
	Timestamp     string         `json:"timestamp"`
	GroupID       string         `json:"group_id"`
	SessionID     string         `json:"session_id"`
	Metadata      map[string]any `json:"metadata"`
	Messages      []struct {
		Content     string         `json:"content"`
		Producer    string         `json:"producer"`
		ProducedFor string         `json:"produced_for"`
		Metadata    map[string]any `json:"metadata"`
	} `json:"messages"`
}

// rawFact is one semantic (profile) item. "feature" is a legacy alias of
// "feature_name"; id and value tolerate non-string JSON values.
type rawFact struct {
	ID          any      `json:"id"`
	Tag         string   `json:"tag"`
	Feature     string   `json:"feature"`
	FeatureName string   `json:"feature_name"`
	Value       any      `json:"value"`
	Similarity  *float64 `json:"similarity"`
}

const (
	defaultFactSubject   = "General"
	defaultFactPredicate = "property"
)

// Normalize decodes one raw search response into canonical collections.
// It never fails: unrecognized or malformed input degrades to empty
// collections so that recall produces partial or empty memory rather than an
// error mid-conversation.
func Normalize(raw []byte) Normalized {
	var flat flatResponse
	if err := json.Unmarshal(raw, &flat); err == nil && flat.Memories != nil {
		return normalizeFlat(flat)
	}

	var nested nestedResponse
	if err := json.Unmarshal(raw, &nested); err == nil && nested.Content != nil {
		return normalizeNested(nested)
	}

	return Normalized{}
}

func normalizeFlat(flat flatResponse) Normalized {
	var n Normalized
	for _, item := range flat.Memories {
		var discriminator struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(item, &discriminator); err != nil {
			continue
		}

		switch discriminator.Type {
		case "episodic":
			var re rawEpisode
			if err := json.Unmarshal(item, &re); err != nil {
				continue
			}
			if ep, ok := extractEpisode(re); ok {
				n.Episodes = append(n.Episodes, ep)
			}
		case "profile":
			var rf rawFact
			if err := json.Unmarshal(item, &rf); err != nil {
				continue
			}
			if fact, ok := extractFact(rf); ok {
				n.Facts = append(n.Facts, fact)
			}
		}
	}
	return n
}

func normalizeNested(nested nestedResponse) Normalized {
	n := Normalized{
		ShortTermUUIDs: map[string]struct{}{},
		LongTermUUIDs:  map[string]struct{}{},
	}

	if em := nested.Content.EpisodicMemory; em != nil {
		if st := em.ShortTermMemory; st != nil {
			n.Bucketed = true
			for _, item := range st.Episodes {
				ep, ok := decodeEpisode(item)
				if !ok {
					continue
				}
				n.Episodes = append(n.Episodes, ep)
				if ep.UUID != "" {
					n.ShortTermUUIDs[ep.UUID] = struct{}{}
				}
			}
			for _, item := range st.EpisodeSummary {
				var summary string
				if err := json.Unmarshal(item, &summary); err != nil {
					continue
				}
				if trimmed := strings.TrimSpace(summary); trimmed != "" {
					n.Summaries = append(n.Summaries, trimmed)
				}
			}
		}
		if lt := em.LongTermMemory; lt != nil {
			n.Bucketed = true
			for _, item := range lt.Episodes {
				ep, ok := decodeEpisode(item)
				if !ok {
					continue
				}
				n.Episodes = append(n.Episodes, ep)
				if ep.UUID != "" {
					n.LongTermUUIDs[ep.UUID] = struct{}{}
				}
			}
		}
	}

	for _, item := range nested.Content.SemanticMemory {
		var rf rawFact
		if err := json.Unmarshal(item, &rf); err != nil {
			continue
		}
		if fact, ok := extractFact(rf); ok {
			n.Facts = append(n.Facts, fact)
		}
	}

	return n
}

func decodeEpisode(item json.RawMessage) (Episode, bool) {
	var re rawEpisode
	if err := json.Unmarshal(item, &re); err != nil {
		return Episode{}, false
	}
	return extractEpisode(re)
}

// extractEpisode converts a raw item into a canonical Episode. Items whose
// content is empty after trimming are dropped, silently.
func extractEpisode(re rawEpisode) (Episode, bool) {
	ep := Episode{
		UUID:      firstNonEmpty(re.UID, re.ID, re.UUID),
		Type:      EpisodeDialog,
		GroupID:   re.GroupID,
		SessionID: re.SessionID,
	}

	if len(re.Messages) > 0 {
		msg := re.Messages[0]
		ep.Content = msg.Content
		ep.Producer = msg.Producer
		ep.ProducedFor = msg.ProducedFor
		ep.Metadata = msg.Metadata
	} else {
		ep.Content = re.Content
		ep.Producer = firstNonEmpty(re.ProducerID, re.Producer)
		ep.ProducedFor = firstNonEmpty(re.ProducedForID, re.ProducedFor)
		ep.Metadata = re.Metadata
		if re.EpisodeType != "" {
			ep.Type = EpisodeType(re.EpisodeType)
		}
	}

	if strings.TrimSpace(ep.Content) == "" {
		return Episode{}, false
	}

	ep.Timestamp = firstNonEmpty(re.CreatedAt, re.Timestamp)
	if ep.Timestamp == "" {
		ep.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	return ep, true
}

// extractFact converts a raw semantic item into a canonical Fact. Facts with
// an empty value are dropped.
func extractFact(rf rawFact) (Fact, bool) {
	object := stringifyValue(rf.Value)
	if strings.TrimSpace(object) == "" {
		return Fact{}, false
	}

	fact := Fact{
		Subject:   firstNonEmpty(rf.Tag, defaultFactSubject),
		Predicate: firstNonEmpty(rf.FeatureName, rf.Feature, defaultFactPredicate),
		Object:    object,
		Source:    factSource(rf.ID),
	}
	if rf.Similarity != nil {
		fact.Confidence = *rf.Similarity
	}

	return fact, true
}

func factSource(id any) string {
	switch v := id.(type) {
	case string:
		if v != "" {
			return "id_" + v
		}
	case float64:
		return "id_" + strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "unknown"
}

func stringifyValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
