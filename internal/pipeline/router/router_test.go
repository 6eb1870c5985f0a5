// internal/pipeline/router/router_test.go
package router

import (
	"testing"

	"hybrid-query-engine/internal/models"
	"hybrid-query-engine/internal/pipeline/scorer"

	"github.com/stretchr/testify/assert"
)

func TestRoute_SearchHeavyIntent(t *testing.T) {
	decision := Route(&models.NormalizedIntent{
		OriginalQuery:  "search for documents about machine learning",
		ProcessedQuery: "search for documents about machine learning",
		Intent:         models.IntentSearchData,
	})

	assert.True(t, decision.UseSearch)
	assert.NotNil(t, decision.SearchQuery)
	assert.Equal(t, models.SourceSearch, decision.PrimarySource)
	assert.Contains(t, decision.Reasoning[0], "search selected (score: ")
}

func TestRoute_SQLHeavyIntent(t *testing.T) {
	decision := Route(&models.NormalizedIntent{
		OriginalQuery:  "how many orders were placed",
		ProcessedQuery: "how many orders were placed",
		Intent:         models.IntentCountRecords,
		Aggregations:   []models.Aggregation{{Type: models.AggCount, Field: "*"}},
	})

	assert.True(t, decision.UseSQL)
	assert.NotNil(t, decision.SQLQuery)
	assert.Equal(t, models.SourceSQL, decision.PrimarySource)
}

func TestRoute_LowConfidenceFallback(t *testing.T) {
	intent := &models.NormalizedIntent{
		OriginalQuery:  "hm",
		ProcessedQuery: "hm",
		Intent:         "unknown_intent",
	}

	// Both profiles score below the threshold for this intent.
	assert.Less(t, scorer.Score(intent, scorer.SearchProfile), Threshold)
	assert.Less(t, scorer.Score(intent, scorer.SQLProfile), Threshold)

	decision := Route(intent)

	assert.True(t, decision.UseSearch)
	assert.True(t, decision.UseSQL)
	assert.NotNil(t, decision.SearchQuery)
	assert.NotNil(t, decision.SQLQuery)
	assert.Contains(t, decision.Reasoning, "low confidence - querying both sources")
}

func TestRoute_TieResolvesToSQL(t *testing.T) {
	// Empty intent scores 0 for both backends, an exact tie.
	decision := Route(&models.NormalizedIntent{Intent: "unknown_intent"})

	assert.Equal(t, models.Confidence{Search: 0, SQL: 0}, decision.Confidence)
	assert.Equal(t, models.SourceSQL, decision.PrimarySource)
}

func TestRoute_ReasoningNeverEmpty(t *testing.T) {
	intents := []*models.NormalizedIntent{
		{OriginalQuery: "search for articles", ProcessedQuery: "search for articles", Intent: models.IntentSearchData},
		{OriginalQuery: "how many users", ProcessedQuery: "how many users", Intent: models.IntentCountRecords},
		{OriginalQuery: "", ProcessedQuery: "", Intent: "unknown_intent"},
	}

	for _, intent := range intents {
		decision := Route(intent)
		assert.NotEmpty(t, decision.Reasoning)
	}
}

func TestRoute_DisabledBackendHasNoQuery(t *testing.T) {
	// Pure aggregation intent with structural bonuses: sql well above
	// threshold, search below it.
	decision := Route(&models.NormalizedIntent{
		OriginalQuery:  "average salary by department",
		ProcessedQuery: "average salary by department",
		Intent:         models.IntentAggregateData,
		Aggregations: []models.Aggregation{
			{Type: models.AggAvg, Field: "salary"},
			{Type: models.AggGroupBy, Field: "department"},
		},
	})

	assert.True(t, decision.UseSQL)
	assert.False(t, decision.UseSearch)
	assert.Nil(t, decision.SearchQuery)
	assert.NotNil(t, decision.SQLQuery)
}
