// internal/pipeline/searchquery/builder_test.go
package searchquery

import (
	"testing"

	"hybrid-query-engine/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestBuildParams_SearchText(t *testing.T) {
	tests := []struct {
		name     string
		intent   *models.NormalizedIntent
		expected string
	}{
		{
			name: "command words stripped",
			intent: &models.NormalizedIntent{
				OriginalQuery:  "Find documents about machine learning",
				ProcessedQuery: "find documents about machine learning",
				Intent:         models.IntentSearchData,
			},
			expected: "documents about machine learning",
		},
		{
			name: "short words dropped",
			intent: &models.NormalizedIntent{
				OriginalQuery:  "articles on AI in go",
				ProcessedQuery: "articles on ai in go",
				Intent:         models.IntentSearchData,
			},
			expected: "articles",
		},
		{
			name: "collapsed text falls back to original query",
			intent: &models.NormalizedIntent{
				OriginalQuery:  "how many",
				ProcessedQuery: "how many",
				Intent:         models.IntentCountRecords,
			},
			expected: "how many",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildParams(tt.intent).SearchText)
		})
	}
}

func TestBuildParams_IntentOverrides(t *testing.T) {
	t.Run("count_records drops records and counts ids", func(t *testing.T) {
		params := BuildParams(&models.NormalizedIntent{
			OriginalQuery:  "how many published articles",
			ProcessedQuery: "how many published articles",
			Intent:         models.IntentCountRecords,
		})

		assert.Equal(t, 0, params.Limit)
		assert.Contains(t, params.Aggregations, models.Aggregation{Type: models.AggCount, Field: "_id"})
	})

	t.Run("time_analysis sorts and groups by created_at", func(t *testing.T) {
		params := BuildParams(&models.NormalizedIntent{
			OriginalQuery:  "documents published over time",
			ProcessedQuery: "documents published over time",
			Intent:         models.IntentTimeAnalysis,
		})

		assert.Equal(t, "created_at", params.SortField)
		assert.Equal(t, 200, params.Limit)
		assert.Contains(t, params.Aggregations, models.Aggregation{Type: models.AggGroupBy, Field: "created_at"})
	})
}

func TestBuildParams_Limits(t *testing.T) {
	tests := []struct {
		intent models.Intent
		limit  int
	}{
		{models.IntentCountRecords, 0},
		{models.IntentAggregateData, 100},
		{models.IntentSearchData, 50},
		{models.IntentFilterData, 100},
		{models.IntentTimeAnalysis, 200},
		{models.IntentCompareData, 100},
		{"unknown_intent", 50},
	}

	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			params := BuildParams(&models.NormalizedIntent{
				OriginalQuery:  "query text here",
				ProcessedQuery: "query text here",
				Intent:         tt.intent,
			})
			assert.Equal(t, tt.limit, params.Limit)
		})
	}
}

func TestBuildParams_GroupByKeywordSuffix(t *testing.T) {
	params := BuildParams(&models.NormalizedIntent{
		OriginalQuery:  "documents grouped by category",
		ProcessedQuery: "documents grouped by category",
		Intent:         models.IntentAggregateData,
		Aggregations: []models.Aggregation{
			{Type: models.AggGroupBy, Field: "category"},
			{Type: models.AggGroupBy, Field: ""},
			{Type: models.AggSum, Field: "views"},
			{Type: "median", Field: "views"},
		},
	})

	assert.Equal(t, []models.Aggregation{
		{Type: models.AggGroupBy, Field: "category.keyword"},
		{Type: models.AggGroupBy, Field: "category.keyword"},
		{Type: models.AggSum, Field: "views"},
	}, params.Aggregations)
}
