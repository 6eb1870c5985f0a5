// internal/pipeline/scorer/profiles.go
package scorer

import (
	"regexp"

	"hybrid-query-engine/internal/models"
)

// Profile declares everything about a query that pulls an intent toward one
// backend. Scoring weights live in scorer.go; profiles only carry data.
type Profile struct {
	Source models.Source

	// Keywords and OperationPhrases are matched as substrings of the
	// lowercased original query.
	Keywords         []string
	OperationPhrases []string

	// EntityLabels are NER labels that hint at this backend. EntityTextHints
	// are substrings matched inside entity text when the label misses.
	EntityLabels    map[string]struct{}
	EntityTextHints []string

	// PhrasePatterns award PatternBonus once, on the first match.
	PhrasePatterns []*regexp.Regexp
	PatternBonus   float64

	// Structural bonuses for intents that carry aggregations or filters.
	// Zero for the search profile.
	AggregationBonus float64
	FilterBonus      float64
}

// intentAffinity is the shared routing table: how strongly each intent class
// belongs to each backend, before any query-text evidence.
var intentAffinity = map[models.Intent]map[models.Source]float64{
	models.IntentSearchData:          {models.SourceSearch: 0.8, models.SourceSQL: 0.3},
	models.IntentCountRecords:        {models.SourceSearch: 0.4, models.SourceSQL: 0.9},
	models.IntentAggregateData:       {models.SourceSearch: 0.2, models.SourceSQL: 0.95},
	models.IntentFilterData:          {models.SourceSearch: 0.7, models.SourceSQL: 0.8},
	models.IntentTimeAnalysis:        {models.SourceSearch: 0.6, models.SourceSQL: 0.8},
	models.IntentCompareData:         {models.SourceSearch: 0.5, models.SourceSQL: 0.7},
	models.IntentGetSchema:           {models.SourceSearch: 0.3, models.SourceSQL: 0.9},
	models.IntentTrendAnalysis:       {models.SourceSearch: 0.6, models.SourceSQL: 0.9},
	models.IntentStatisticalAnalysis: {models.SourceSearch: 0.3, models.SourceSQL: 0.95},
}

// SearchProfile pulls toward the full-text backend: document vocabulary,
// fuzzy/relevance operations, named-thing entities.
var SearchProfile = &Profile{
	Source:           models.SourceSearch,
	Keywords:         []string{"search", "find", "text", "document", "content", "title", "author", "tag"},
	OperationPhrases: []string{"full-text", "fuzzy", "match", "similarity", "relevance", "score"},
	EntityLabels: map[string]struct{}{
		"PERSON":      {},
		"ORG":         {},
		"GPE":         {},
		"WORK_OF_ART": {},
	},
	EntityTextHints: []string{"document", "article", "content"},
	PhrasePatterns: []*regexp.Regexp{
		regexp.MustCompile(`search for`),
		regexp.MustCompile(`find.*containing`),
		regexp.MustCompile(`documents about`),
		regexp.MustCompile(`articles on`),
	},
	PatternBonus: 0.1,
}

// SQLProfile pulls toward the relational backend: table vocabulary,
// aggregate operations, numeric entities, and structural evidence
// (aggregations and filters extracted upstream).
var SQLProfile = &Profile{
	Source:           models.SourceSQL,
	Keywords:         []string{"user", "employee", "product", "order", "customer", "count", "sum", "average"},
	OperationPhrases: []string{"aggregate", "group", "join", "calculate", "total", "statistics"},
	EntityLabels: map[string]struct{}{
		"MONEY":    {},
		"PERCENT":  {},
		"QUANTITY": {},
		"CARDINAL": {},
	},
	EntityTextHints: []string{"user", "product", "order", "customer"},
	PhrasePatterns: []*regexp.Regexp{
		regexp.MustCompile(`how many`),
		regexp.MustCompile(`count.*`),
		regexp.MustCompile(`sum of`),
		regexp.MustCompile(`average.*`),
		regexp.MustCompile(`group by`),
		regexp.MustCompile(`total.*`),
	},
	PatternBonus:     0.15,
	AggregationBonus: 0.3,
	FilterBonus:      0.1,
}
