// internal/pipeline/searchquery/builder.go
package searchquery

import (
	"strings"

	"hybrid-query-engine/internal/models"
)

// Command words stripped from the processed query before full-text matching.
var searchStopwords = map[string]struct{}{
	"find":   {},
	"search": {},
	"get":    {},
	"show":   {},
	"list":   {},
	"how":    {},
	"many":   {},
	"count":  {},
	"total":  {},
}

// intentLimits caps result sizes per intent class. Counts need no records
// at all; time analysis wants a wide window for bucketing.
var intentLimits = map[models.Intent]int{
	models.IntentCountRecords:  0,
	models.IntentAggregateData: 100,
	models.IntentSearchData:    50,
	models.IntentFilterData:    100,
	models.IntentTimeAnalysis:  200,
	models.IntentCompareData:   100,
}

const defaultLimit = 50

// BuildParams translates a normalized intent into the intermediate search
// parameters the executor consumes. The wire query itself is produced by
// BuildQuery.
func BuildParams(intent *models.NormalizedIntent) *models.SearchQueryParams {
	params := &models.SearchQueryParams{
		SearchText:   extractSearchText(intent),
		Filters:      intent.Filters,
		Aggregations: adaptAggregations(intent.Aggregations),
		TemporalInfo: intent.TemporalInfo,
		Limit:        limitFor(intent.Intent),
		SortField:    "_score",
		SortOrder:    "desc",
	}

	switch intent.Intent {
	case models.IntentCountRecords:
		// Only the count matters, skip fetching documents.
		params.Limit = 0
		params.Aggregations = append(params.Aggregations, models.Aggregation{
			Type:  models.AggCount,
			Field: "_id",
		})
	case models.IntentTimeAnalysis:
		params.SortField = "created_at"
		params.Aggregations = append(params.Aggregations, models.Aggregation{
			Type:  models.AggGroupBy,
			Field: "created_at",
		})
	}

	return params
}

// extractSearchText strips command words and short tokens from the processed
// query. When stripping leaves fewer than 3 characters the original query is
// used unmodified.
func extractSearchText(intent *models.NormalizedIntent) string {
	var kept []string
	for _, word := range strings.Fields(intent.ProcessedQuery) {
		if _, stop := searchStopwords[word]; stop {
			continue
		}
		if len(word) <= 2 {
			continue
		}
		kept = append(kept, word)
	}

	searchText := strings.Join(kept, " ")
	if len(strings.TrimSpace(searchText)) < 3 {
		return intent.OriginalQuery
	}
	return searchText
}

// adaptAggregations rewrites the generic aggregation list for the search
// backend: metric aggregations pass through, group_by targets the keyword
// sub-field. Unknown types are dropped.
func adaptAggregations(aggs []models.Aggregation) []models.Aggregation {
	var adapted []models.Aggregation
	for _, agg := range aggs {
		switch agg.Type {
		case models.AggCount, models.AggSum, models.AggAvg, models.AggMax, models.AggMin:
			adapted = append(adapted, agg)
		case models.AggGroupBy:
			field := "category.keyword"
			if agg.Field != "" {
				field = agg.Field + ".keyword"
			}
			adapted = append(adapted, models.Aggregation{Type: models.AggGroupBy, Field: field})
		}
	}
	return adapted
}

func limitFor(intent models.Intent) int {
	if limit, ok := intentLimits[intent]; ok {
		return limit
	}
	return defaultLimit
}
