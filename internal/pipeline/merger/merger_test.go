// internal/pipeline/merger/merger_test.go
package merger

import (
	"encoding/json"
	"testing"
	"time"

	"hybrid-query-engine/internal/models"

	"github.com/stretchr/testify/assert"
)

func testMerger() *Merger {
	return &Merger{now: func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	}}
}

func TestMerge_CountFromSQLAggregate(t *testing.T) {
	m := testMerger()

	merged := m.Merge(map[models.Source]models.SourceResult{
		models.SourceSQL: {
			Source:       models.SourceSQL,
			TotalResults: 5,
			Results:      []map[string]interface{}{{"count_all": 5}},
		},
	}, &models.NormalizedIntent{
		OriginalQuery: "how many users",
		Intent:        models.IntentCountRecords,
		Aggregations:  []models.Aggregation{{Type: models.AggCount, Field: "*"}},
	})

	assert.Equal(t, models.ResultTypeCount, merged.Type)
	assert.Equal(t, 5, merged.TotalCount)
	assert.Equal(t, map[models.Source]int{models.SourceSQL: 5}, merged.Breakdown)
	assert.Equal(t, "Total count: 5", merged.Summary)
}

func TestMerge_CountBreakdownAcrossSources(t *testing.T) {
	m := testMerger()

	merged := m.Merge(map[models.Source]models.SourceResult{
		models.SourceSearch: {Source: models.SourceSearch, TotalResults: 3},
		models.SourceSQL: {
			Source:       models.SourceSQL,
			TotalResults: 1,
			// The aggregate column overrides the raw row count.
			Results: []map[string]interface{}{{"count_all": float64(7)}},
		},
	}, &models.NormalizedIntent{
		OriginalQuery: "how many records",
		Intent:        models.IntentCountRecords,
	})

	assert.Equal(t, 10, merged.TotalCount)
	assert.Equal(t, "Total count: 10 (search: 3, sql: 7)", merged.Summary)
}

func TestMerge_SearchSortsAcrossSources(t *testing.T) {
	m := testMerger()
	intent := &models.NormalizedIntent{
		OriginalQuery: "find machine learning documents",
		Intent:        models.IntentSearchData,
	}

	merged := m.Merge(map[models.Source]models.SourceResult{
		models.SourceSearch: {
			Source:       models.SourceSearch,
			TotalResults: 2,
			Results: []map[string]interface{}{
				{"title": "A", "_score": 2.5},
				{"title": "B", "_score": 0.3},
			},
		},
		models.SourceSQL: {
			Source:       models.SourceSQL,
			TotalResults: 1,
			Results: []map[string]interface{}{
				{"full_name": "machine learning expert"},
			},
			QueryInfo: map[string]interface{}{"sql_query": "SELECT * FROM users"},
		},
	}, intent)

	assert.Equal(t, models.ResultTypeSearch, merged.Type)
	assert.Equal(t, 3, merged.TotalResults)
	assert.Equal(t, []models.Source{models.SourceSearch, models.SourceSQL}, merged.Sources)
	assert.False(t, merged.Truncated)
	assert.Equal(t, 3, merged.TotalShown)
	assert.Equal(t, "SELECT * FROM users", merged.SQLQuery)

	// search 2.5, then sql row at 0.5 + 0.1 (machine) + 0.1 (learning), then search 0.3
	assert.Equal(t, "A", merged.Results[0]["title"])
	assert.Equal(t, "machine learning expert", merged.Results[1]["full_name"])
	assert.Equal(t, "B", merged.Results[2]["title"])
	assert.InDelta(t, 0.7, merged.Results[1]["_relevance_score"].(float64), 1e-9)

	assert.Equal(t, "Found 3 total results across 2 data sources", merged.Summary)
}

func TestMerge_SearchTruncatesToTwenty(t *testing.T) {
	m := testMerger()

	records := make([]map[string]interface{}, 25)
	for i := range records {
		records[i] = map[string]interface{}{"title": "doc", "_score": float64(25 - i)}
	}

	merged := m.Merge(map[models.Source]models.SourceResult{
		models.SourceSearch: {Source: models.SourceSearch, TotalResults: 25, Results: records},
	}, &models.NormalizedIntent{
		OriginalQuery: "find documents",
		Intent:        models.IntentSearchData,
	})

	assert.True(t, merged.Truncated)
	assert.Len(t, merged.Results, 20)
	assert.Equal(t, 20, merged.TotalShown)
	assert.Equal(t, "Found 25 total results, showing top 20", merged.Summary)
}

func TestMerge_SearchDoesNotMutateInput(t *testing.T) {
	m := testMerger()
	record := map[string]interface{}{"title": "A", "_score": 1.0}

	m.Merge(map[models.Source]models.SourceResult{
		models.SourceSearch: {
			Source:       models.SourceSearch,
			TotalResults: 1,
			Results:      []map[string]interface{}{record},
		},
	}, &models.NormalizedIntent{OriginalQuery: "a", Intent: models.IntentSearchData})

	assert.NotContains(t, record, "_source")
	assert.NotContains(t, record, "_relevance_score")
}

func TestMerge_Aggregates(t *testing.T) {
	m := testMerger()

	merged := m.Merge(map[models.Source]models.SourceResult{
		models.SourceSearch: {
			Source:       models.SourceSearch,
			Aggregations: map[string]interface{}{"avg_score": 4.5},
		},
		models.SourceSQL: {
			Source:       models.SourceSQL,
			TotalResults: 2,
			Results: []map[string]interface{}{
				{"avg_salary": 80000.0, "department": "Engineering"},
				{"avg_salary": 70000.0, "department": "Marketing"},
			},
		},
	}, &models.NormalizedIntent{
		OriginalQuery: "average salary by department",
		Intent:        models.IntentAggregateData,
	})

	assert.Equal(t, models.ResultTypeAggregate, merged.Type)
	assert.Equal(t, map[string]interface{}{"avg_score": 4.5}, merged.Aggregations[models.SourceSearch])
	assert.Equal(t, map[string]interface{}{"avg_salary": 70000.0}, merged.Aggregations[models.SourceSQL])
	assert.Len(t, merged.Details, 2)
	assert.Equal(t, "Aggregation results from 2 source(s)", merged.Summary)
}

func TestMerge_FilterAttachesFilters(t *testing.T) {
	m := testMerger()
	filters := []models.Filter{{Field: "price", Operator: models.OpBetween, Value: []interface{}{10, 50}}}

	merged := m.Merge(map[models.Source]models.SourceResult{
		models.SourceSQL: {Source: models.SourceSQL, TotalResults: 1, Results: []map[string]interface{}{{"name": "desk"}}},
	}, &models.NormalizedIntent{
		OriginalQuery: "products between 10 and 50",
		Intent:        models.IntentFilterData,
		Filters:       filters,
	})

	assert.Equal(t, models.ResultTypeFilter, merged.Type)
	assert.Equal(t, filters, merged.AppliedFilters)
	assert.Equal(t, "Query processed successfully", merged.Summary)
}

func TestMerge_TimeAnalysisTimeline(t *testing.T) {
	m := testMerger()

	merged := m.Merge(map[models.Source]models.SourceResult{
		models.SourceSQL: {
			Source:       models.SourceSQL,
			TotalResults: 5,
			Results: []map[string]interface{}{
				{"id": 1, "order_date": "2024-02-01T09:00:00Z"},
				{"id": 2, "order_date": "2024-02-01T12:00:00Z"},
				{"id": 3, "order_date": "2024-02-01T15:00:00Z"},
				{"id": 4, "order_date": "2024-02-01T18:00:00Z"},
				{"id": 5, "order_date": "2024-01-20T10:00:00Z"},
			},
		},
	}, &models.NormalizedIntent{
		OriginalQuery: "orders over time",
		Intent:        models.IntentTimeAnalysis,
		TemporalInfo: models.TemporalInfo{
			HasTimeConstraint: true,
			Expressions:       []string{"last month"},
		},
	})

	assert.Equal(t, models.ResultTypeTime, merged.Type)
	assert.Equal(t, 5, merged.TotalResults)
	assert.Len(t, merged.Timeline, 2)

	// Chronological order, capped samples.
	assert.Equal(t, "2024-01-20", merged.Timeline[0].Date)
	assert.Equal(t, 1, merged.Timeline[0].Count)
	assert.Equal(t, "2024-02-01", merged.Timeline[1].Date)
	assert.Equal(t, 4, merged.Timeline[1].Count)
	assert.Len(t, merged.Timeline[1].Items, 3)

	assert.Equal(t, "Time analysis: 5 records for last month", merged.Summary)
}

func TestMerge_ComparisonMetrics(t *testing.T) {
	m := testMerger()

	merged := m.Merge(map[models.Source]models.SourceResult{
		models.SourceSearch: {Source: models.SourceSearch, TotalResults: 12},
		models.SourceSQL:    {Source: models.SourceSQL, TotalResults: 4},
	}, &models.NormalizedIntent{
		OriginalQuery: "compare documents and records",
		Intent:        models.IntentCompareData,
	})

	assert.Equal(t, models.ResultTypeComparison, merged.Type)
	assert.Equal(t, 12, merged.Metrics.TotalRecords.Search)
	assert.Equal(t, 4, merged.Metrics.TotalRecords.SQL)
	assert.Equal(t, 8, merged.Metrics.TotalRecords.Difference)
	assert.InDelta(t, 3.0, merged.Metrics.TotalRecords.Ratio, 1e-9)
}

func TestMerge_ComparisonInfiniteRatioMarshals(t *testing.T) {
	m := testMerger()

	merged := m.Merge(map[models.Source]models.SourceResult{
		models.SourceSearch: {Source: models.SourceSearch, TotalResults: 3},
		models.SourceSQL:    {Source: models.SourceSQL, TotalResults: 0},
	}, &models.NormalizedIntent{
		OriginalQuery: "compare",
		Intent:        models.IntentCompareData,
	})

	assert.True(t, merged.Metrics.TotalRecords.Ratio > 0)

	data, err := json.Marshal(merged)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"ratio":null`)
}

func TestMerge_EmptyResults(t *testing.T) {
	m := testMerger()
	intents := []models.Intent{
		models.IntentSearchData, models.IntentCountRecords, models.IntentAggregateData,
		models.IntentFilterData, models.IntentTimeAnalysis, models.IntentCompareData,
		"unknown_intent",
	}

	for _, in := range intents {
		merged := m.Merge(map[models.Source]models.SourceResult{}, &models.NormalizedIntent{
			OriginalQuery: "anything",
			Intent:        in,
		})

		assert.Zero(t, merged.TotalResults, string(in))
		assert.Zero(t, merged.TotalCount, string(in))
		assert.NotEmpty(t, merged.Summary, string(in))
		assert.Empty(t, merged.Metadata.SourcesQueried, string(in))
	}
}

func TestMerge_Metadata(t *testing.T) {
	m := testMerger()

	merged := m.Merge(map[models.Source]models.SourceResult{
		models.SourceSearch: {Source: models.SourceSearch, TotalResults: 2},
		models.SourceSQL:    {Source: models.SourceSQL, TotalResults: 3},
	}, &models.NormalizedIntent{
		OriginalQuery: "find active users",
		Intent:        models.IntentSearchData,
		Entities:      []models.Entity{{Text: "users", Label: "ORG"}},
		Filters:       []models.Filter{{Field: "is_active", Operator: models.OpEqual, Value: true}},
	})

	meta := merged.Metadata
	assert.Equal(t, "find active users", meta.QueryInfo.OriginalQuery)
	assert.Equal(t, models.IntentSearchData, meta.QueryInfo.Intent)
	assert.Equal(t, 1, meta.QueryInfo.EntitiesFound)
	assert.Equal(t, 1, meta.QueryInfo.FiltersApplied)
	assert.Equal(t, 0, meta.QueryInfo.AggregationsRequested)
	assert.Equal(t, []models.Source{models.SourceSearch, models.SourceSQL}, meta.SourcesQueried)
	assert.Equal(t, map[models.Source]int{models.SourceSearch: 2, models.SourceSQL: 3}, meta.ResultCounts)
	assert.Equal(t, "2024-03-15T10:30:00Z", meta.ProcessingTime)
}

func TestRelevance_Bounds(t *testing.T) {
	m := testMerger()
	intent := &models.NormalizedIntent{
		OriginalQuery: "machine learning data data data data data data",
	}

	records := []map[string]interface{}{
		{},
		{"a": "data data data", "b": "machine learning data", "c": "data", "d": "data", "e": "data"},
		{"created_at": "2024-03-10T00:00:00Z", "title": "machine learning"},
		{"created_at": "not a date"},
		{"n": 42, "f": 3.14, "b": true},
	}

	for i, record := range records {
		score := m.relevance(record, intent)
		assert.GreaterOrEqual(t, score, 0.0, i)
		assert.LessOrEqual(t, score, 1.0, i)
	}
}

func TestRelevance_RecencyBoost(t *testing.T) {
	m := testMerger()
	intent := &models.NormalizedIntent{OriginalQuery: "zzz"}

	// 5 days old: +0.2
	recent := m.relevance(map[string]interface{}{"created_at": "2024-03-10T00:00:00Z"}, intent)
	assert.InDelta(t, 0.7, recent, 1e-9)

	// 60 days old: +0.1
	older := m.relevance(map[string]interface{}{"created_at": "2024-01-15T00:00:00Z"}, intent)
	assert.InDelta(t, 0.6, older, 1e-9)

	// 2 years old: no boost
	old := m.relevance(map[string]interface{}{"created_at": "2022-03-15T00:00:00Z"}, intent)
	assert.InDelta(t, 0.5, old, 1e-9)
}
