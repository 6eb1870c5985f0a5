// internal/models/result.go
package models

import (
	"encoding/json"
	"math"
)

// SourceResult is what one backend execution produced. Records stay as
// generic maps because the two backends return heterogeneous shapes.
type SourceResult struct {
	Source       Source                   `json:"source"`
	TotalResults int                      `json:"total_results"`
	Results      []map[string]interface{} `json:"results"`
	Aggregations map[string]interface{}   `json:"aggregations,omitempty"`
	QueryInfo    map[string]interface{}   `json:"query_info,omitempty"`
}

// MergedResultType mirrors the intent that produced the merge.
type MergedResultType string

const (
	ResultTypeSearch     MergedResultType = "search_results"
	ResultTypeCount      MergedResultType = "count_results"
	ResultTypeAggregate  MergedResultType = "aggregate_results"
	ResultTypeFilter     MergedResultType = "filter_results"
	ResultTypeTime       MergedResultType = "time_analysis"
	ResultTypeComparison MergedResultType = "comparison_results"
)

// SourceBreakdown is one backend's slice of a time-analysis result.
type SourceBreakdown struct {
	Count   int                      `json:"count"`
	Results []map[string]interface{} `json:"results"`
}

// TimelineBucket groups relational rows by calendar date.
type TimelineBucket struct {
	Date  string                   `json:"date"`
	Count int                      `json:"count"`
	Items []map[string]interface{} `json:"items"`
}

// ComparisonSide is one backend's view in a comparison result.
type ComparisonSide struct {
	TotalRecords int                      `json:"total_records"`
	SampleData   []map[string]interface{} `json:"sample_data"`
}

// RecordComparison compares the two backends' totals. Ratio is +Inf when
// the relational total is zero.
type RecordComparison struct {
	Search     int     `json:"search"`
	SQL        int     `json:"sql"`
	Difference int     `json:"difference"`
	Ratio      float64 `json:"ratio"`
}

// MarshalJSON renders an infinite ratio as null; encoding/json rejects
// IEEE infinities outright.
func (rc RecordComparison) MarshalJSON() ([]byte, error) {
	type alias RecordComparison
	if math.IsInf(rc.Ratio, 0) || math.IsNaN(rc.Ratio) {
		return json.Marshal(struct {
			alias
			Ratio interface{} `json:"ratio"`
		}{alias: alias(rc), Ratio: nil})
	}
	return json.Marshal(alias(rc))
}

// ComparisonMetrics holds the computed comparison block.
type ComparisonMetrics struct {
	TotalRecords *RecordComparison `json:"total_records,omitempty"`
}

// QueryInfo summarizes the analyzed query inside result metadata.
type QueryInfo struct {
	OriginalQuery         string `json:"original_query"`
	Intent                Intent `json:"intent"`
	EntitiesFound         int    `json:"entities_found"`
	FiltersApplied        int    `json:"filters_applied"`
	AggregationsRequested int    `json:"aggregations_requested"`
}

// Metadata is attached to every merged result.
type Metadata struct {
	RequestID      string         `json:"request_id,omitempty"`
	QueryInfo      QueryInfo      `json:"query_info"`
	SourcesQueried []Source       `json:"sources_queried"`
	ProcessingTime string         `json:"processing_time"`
	ResultCounts   map[Source]int `json:"result_counts"`
}

// MergedResult is the pipeline's terminal value. Which payload fields are
// populated depends on Type; the zero value of unused fields is omitted
// from the wire form.
type MergedResult struct {
	Type MergedResultType `json:"type"`

	// search_results / filter_results
	TotalResults   int                               `json:"total_results,omitempty"`
	Results        []map[string]interface{}          `json:"results,omitempty"`
	Aggregations   map[Source]map[string]interface{} `json:"aggregations,omitempty"`
	SQLQuery       string                            `json:"sql_query,omitempty"`
	Truncated      bool                              `json:"truncated"`
	TotalShown     int                               `json:"total_shown,omitempty"`
	AppliedFilters []Filter                          `json:"applied_filters,omitempty"`

	// count_results
	TotalCount int            `json:"total_count,omitempty"`
	Breakdown  map[Source]int `json:"breakdown,omitempty"`

	// aggregate_results
	Details []map[string]interface{} `json:"details,omitempty"`

	// time_analysis
	TimePeriod      *TemporalInfo              `json:"time_period,omitempty"`
	ResultsBySource map[Source]SourceBreakdown `json:"results_by_source,omitempty"`
	Timeline        []TimelineBucket           `json:"timeline,omitempty"`

	// comparison_results
	ComparisonData map[Source]ComparisonSide `json:"comparison_data,omitempty"`
	Metrics        *ComparisonMetrics        `json:"metrics,omitempty"`

	Sources  []Source `json:"sources,omitempty"`
	Metadata Metadata `json:"metadata"`
	Summary  string   `json:"summary"`
}
