// internal/models/intent.go
package models

// Intent is the classified purpose of a user query, produced by the
// upstream NLU stage. Unknown values are tolerated everywhere downstream.
type Intent string

const (
	IntentSearchData          Intent = "search_data"
	IntentCountRecords        Intent = "count_records"
	IntentAggregateData       Intent = "aggregate_data"
	IntentFilterData          Intent = "filter_data"
	IntentTimeAnalysis        Intent = "time_analysis"
	IntentCompareData         Intent = "compare_data"
	IntentGetSchema           Intent = "get_schema"
	IntentTrendAnalysis       Intent = "trend_analysis"
	IntentStatisticalAnalysis Intent = "statistical_analysis"
)

// FilterOperator is the closed set of comparison operators the NLU stage
// may emit. Operators outside this set are dropped by the translators.
type FilterOperator string

const (
	OpEqual        FilterOperator = "="
	OpNotEqual     FilterOperator = "!="
	OpGreater      FilterOperator = ">"
	OpGreaterEqual FilterOperator = ">="
	OpLess         FilterOperator = "<"
	OpLessEqual    FilterOperator = "<="
	OpContains     FilterOperator = "contains"
	OpBetween      FilterOperator = "between"
	OpIs           FilterOperator = "is"
	OpIsNot        FilterOperator = "is_not"
)

// AggregationType is the closed set of aggregation operations.
type AggregationType string

const (
	AggCount   AggregationType = "count"
	AggSum     AggregationType = "sum"
	AggAvg     AggregationType = "avg"
	AggMax     AggregationType = "max"
	AggMin     AggregationType = "min"
	AggGroupBy AggregationType = "group_by"
)

// Entity is a span the NLU stage recognized in the original query.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Filter is a single field predicate extracted from the query.
type Filter struct {
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    interface{}    `json:"value"`
	Kind     string         `json:"kind,omitempty"`
}

// RelativeTime expresses "last N days/months/years". Exactly one field is
// expected to be set; days takes precedence when several are.
type RelativeTime struct {
	Days   *int `json:"days,omitempty"`
	Months *int `json:"months,omitempty"`
	Years  *int `json:"years,omitempty"`
}

// TemporalInfo carries the temporal constraint extracted from the query.
type TemporalInfo struct {
	HasTimeConstraint bool          `json:"has_time_constraint"`
	Expressions       []string      `json:"time_expressions,omitempty"`
	RelativeTime      *RelativeTime `json:"relative_time,omitempty"`
	SpecificDates     []string      `json:"specific_dates,omitempty"`
}

// Aggregation is a single requested aggregation.
type Aggregation struct {
	Type  AggregationType `json:"type"`
	Field string          `json:"field"`
}

// NormalizedIntent is the pipeline's sole input: the NLU stage's full
// analysis of one user query. It is read-only for every downstream
// component.
type NormalizedIntent struct {
	OriginalQuery  string        `json:"original_query"`
	ProcessedQuery string        `json:"processed_query"`
	Intent         Intent        `json:"intent"`
	Entities       []Entity      `json:"entities,omitempty"`
	TemporalInfo   TemporalInfo  `json:"temporal_info"`
	Filters        []Filter      `json:"filters,omitempty"`
	Aggregations   []Aggregation `json:"aggregations,omitempty"`
}

// Clamp01 bounds a score or relevance value to [0, 1]. Every score
// computation site goes through this instead of clamping inline.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
