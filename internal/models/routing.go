// internal/models/routing.go
package models

// Source identifies one of the two query backends.
type Source string

const (
	SourceSearch Source = "search"
	SourceSQL    Source = "sql"
)

// Confidence holds the per-backend confidence scores, each in [0, 1].
type Confidence struct {
	Search float64 `json:"search"`
	SQL    float64 `json:"sql"`
}

// SearchQueryParams is the backend-neutral intermediate form handed to the
// search translator and executor. It is not the wire query itself.
type SearchQueryParams struct {
	SearchText   string        `json:"search_text"`
	Filters      []Filter      `json:"filters,omitempty"`
	Aggregations []Aggregation `json:"aggregations,omitempty"`
	TemporalInfo TemporalInfo  `json:"temporal_info"`
	Limit        int           `json:"limit"`
	SortField    string        `json:"sort_field"`
	SortOrder    string        `json:"sort_order"`
}

// SQLQueryParams is the intermediate form handed to the SQL translator and
// executor.
type SQLQueryParams struct {
	Intent        Intent        `json:"intent"`
	OriginalQuery string        `json:"original_query"`
	Entities      []Entity      `json:"entities,omitempty"`
	Filters       []Filter      `json:"filters,omitempty"`
	Aggregations  []Aggregation `json:"aggregations,omitempty"`
	TemporalInfo  TemporalInfo  `json:"temporal_info"`
	Limit         int           `json:"limit"`
	SortField     string        `json:"sort_field,omitempty"`
	SortOrder     string        `json:"sort_order"`
}

// RoutingDecision is the router's output: which backends to query, which
// one is primary, and the translated query parameters for each enabled
// backend. Constructed once per request and never mutated afterwards.
type RoutingDecision struct {
	UseSearch     bool               `json:"use_search"`
	UseSQL        bool               `json:"use_sql"`
	PrimarySource Source             `json:"primary_source"`
	Confidence    Confidence         `json:"confidence"`
	SearchQuery   *SearchQueryParams `json:"search_query,omitempty"`
	SQLQuery      *SQLQueryParams    `json:"sql_query,omitempty"`
	Reasoning     []string           `json:"reasoning"`
}
