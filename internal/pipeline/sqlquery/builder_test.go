// internal/pipeline/sqlquery/builder_test.go
package sqlquery

import (
	"testing"

	"hybrid-query-engine/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestBuildParams_CountAppendsAggregation(t *testing.T) {
	params := BuildParams(&models.NormalizedIntent{
		OriginalQuery: "how many users are there",
		Intent:        models.IntentCountRecords,
	})

	assert.Equal(t, 0, params.Limit)
	assert.Equal(t, []models.Aggregation{{Type: models.AggCount, Field: "*"}}, params.Aggregations)
}

func TestBuildParams_PassesIntentThrough(t *testing.T) {
	intent := &models.NormalizedIntent{
		OriginalQuery: "average product price by category",
		Intent:        models.IntentAggregateData,
		Filters: []models.Filter{
			{Field: "category", Operator: models.OpEqual, Value: "Electronics"},
		},
		Aggregations: []models.Aggregation{{Type: models.AggAvg, Field: "price"}},
	}

	params := BuildParams(intent)

	assert.Equal(t, models.IntentAggregateData, params.Intent)
	assert.Equal(t, intent.OriginalQuery, params.OriginalQuery)
	assert.Equal(t, intent.Filters, params.Filters)
	assert.Equal(t, intent.Aggregations, params.Aggregations)
	assert.Equal(t, 100, params.Limit)
	assert.Equal(t, "DESC", params.SortOrder)
	assert.Empty(t, params.SortField)
}

func TestBuildParams_DefaultLimit(t *testing.T) {
	params := BuildParams(&models.NormalizedIntent{
		OriginalQuery: "whatever",
		Intent:        "unknown_intent",
	})

	assert.Equal(t, 50, params.Limit)
}
