package memory

import (
	"strings"
)

// The six placeholder tokens a context template may contain. Matching is
// literal, including the double-brace delimiters; tokens the template omits
// are simply not substituted, and unknown placeholder-like tokens are left
// verbatim.
const (
	PlaceholderHistory   = "{{history}}"
	PlaceholderShortTerm = "{{shortTermMemory}}"
	PlaceholderLongTerm  = "{{longTermMemory}}"
	PlaceholderProfile   = "{{profileMemory}}"
	PlaceholderSemantic  = "{{semanticMemory}}"
	PlaceholderSummary   = "{{episodeSummary}}"
)

// Empty-state strings rendered when a section has no data. Episode summaries
// are the exception: an empty summary list renders as an empty string.
const (
	emptyEpisodesText = "*No memories in this category*"
	emptyProfileText  = "*No profile information available*"
	emptySemanticText = "*No semantic features available*"
)

// RenderContext bundles everything one render call needs. It is fully
// derived from a single recall and never mutated.
type RenderContext struct {
	Categorized Categorized
	// Profile facts are grouped by subject during rendering.
	Profile []Fact
	// Features are rendered raw, one bullet per fact.
	Features []Fact
	Summaries []string
}

// Render substitutes the six placeholder tokens in template with
// Markdown-formatted renderings of the recall context. Substitution is a
// literal, global, single-pass find-and-replace. Replaced text is never
// rescanned, and the template is otherwise free-form user text.
//
// Render never fails: every section has an empty-state fallback, so missing
// data produces the documented placeholder message rather than a gap.
func Render(template string, rc RenderContext) string {
	replacer := strings.NewReplacer(
		PlaceholderHistory, formatEpisodes(rc.Categorized.History),
		PlaceholderShortTerm, formatEpisodes(rc.Categorized.ShortTerm),
		PlaceholderLongTerm, formatEpisodes(rc.Categorized.LongTerm),
		PlaceholderProfile, formatProfile(rc.Profile),
		PlaceholderSemantic, formatFeatures(rc.Features),
		PlaceholderSummary, formatSummaries(rc.Summaries),
	)
	return replacer.Replace(template)
}

// formatEpisodes renders one Markdown bullet per episode, in input order.
func formatEpisodes(episodes []Episode) string {
	if len(episodes) == 0 {
		return emptyEpisodesText
	}

	lines := make([]string, 0, len(episodes))
	for _, ep := range episodes {
		producer := ep.Producer
		if producer == "" {
			producer = "unknown"
		}
		producedFor := ep.ProducedFor
		if producedFor == "" {
			producedFor = "unknown"
		}
		lines = append(lines, "- **"+producer+"** → "+producedFor+": "+ep.Content)
	}
	return strings.Join(lines, "\n")
}

// formatProfile groups facts by subject (first-seen order) and renders each
// subject as a heading followed by predicate bullets.
func formatProfile(facts []Fact) string {
	grouped := make(map[string][]Fact, len(facts))
	subjects := make([]string, 0, len(facts))
	for _, f := range facts {
		if strings.TrimSpace(f.Object) == "" {
			continue
		}
		if _, ok := grouped[f.Subject]; !ok {
			subjects = append(subjects, f.Subject)
		}
		grouped[f.Subject] = append(grouped[f.Subject], f)
	}

	if len(subjects) == 0 {
		return emptyProfileText
	}

	sections := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		lines := make([]string, 0, len(grouped[subject])+1)
		lines = append(lines, "### "+subject)
		for _, f := range grouped[subject] {
			lines = append(lines, "- **"+f.Predicate+"**: "+f.Object)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

// formatFeatures renders semantic features raw and ungrouped.
func formatFeatures(facts []Fact) string {
	lines := make([]string, 0, len(facts))
	for _, f := range facts {
		if strings.TrimSpace(f.Object) == "" {
			continue
		}
		subject := f.Subject
		if subject == "" {
			subject = defaultFactSubject
		}
		predicate := f.Predicate
		if predicate == "" {
			predicate = defaultFactPredicate
		}
		lines = append(lines, "- **"+subject+"** / "+predicate+": "+f.Object)
	}

	if len(lines) == 0 {
		return emptySemanticText
	}
	return strings.Join(lines, "\n")
}

// formatSummaries renders each non-empty summary as a Markdown blockquote.
func formatSummaries(summaries []string) string {
	quotes := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if strings.TrimSpace(s) == "" {
			continue
		}
		quotes = append(quotes, "> "+s)
	}
	return strings.Join(quotes, "\n\n")
}
