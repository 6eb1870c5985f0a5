// internal/pipeline/sqlquery/builder.go
package sqlquery

import (
	"hybrid-query-engine/internal/models"
)

// intentLimits mirrors the search translator's limit policy.
var intentLimits = map[models.Intent]int{
	models.IntentCountRecords:  0,
	models.IntentAggregateData: 100,
	models.IntentSearchData:    50,
	models.IntentFilterData:    100,
	models.IntentTimeAnalysis:  200,
	models.IntentCompareData:   100,
}

const defaultLimit = 50

// BuildParams translates a normalized intent into the intermediate SQL
// parameters. The executable statement is produced by BuildStatement.
func BuildParams(intent *models.NormalizedIntent) *models.SQLQueryParams {
	params := &models.SQLQueryParams{
		Intent:        intent.Intent,
		OriginalQuery: intent.OriginalQuery,
		Entities:      intent.Entities,
		Filters:       intent.Filters,
		Aggregations:  intent.Aggregations,
		TemporalInfo:  intent.TemporalInfo,
		Limit:         limitFor(intent.Intent),
		SortOrder:     "DESC",
	}

	if intent.Intent == models.IntentCountRecords {
		params.Aggregations = append(params.Aggregations, models.Aggregation{
			Type:  models.AggCount,
			Field: "*",
		})
	}

	return params
}

func limitFor(intent models.Intent) int {
	if limit, ok := intentLimits[intent]; ok {
		return limit
	}
	return defaultLimit
}
