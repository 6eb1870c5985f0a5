// internal/pipeline/router/router.go
package router

import (
	"fmt"

	"hybrid-query-engine/internal/models"
	"hybrid-query-engine/internal/pipeline/scorer"
	"hybrid-query-engine/internal/pipeline/searchquery"
	"hybrid-query-engine/internal/pipeline/sqlquery"
)

// Threshold is the minimum confidence for a backend to be queried on its own
// merits. Below it for both backends, the low-confidence fallback queries
// everything rather than guessing.
const Threshold = 0.4

// Route scores the intent against both backend profiles and decides which
// backends to query. Enabled backends get their translated query parameters
// attached; execution happens elsewhere.
func Route(intent *models.NormalizedIntent) *models.RoutingDecision {
	searchScore := scorer.Score(intent, scorer.SearchProfile)
	sqlScore := scorer.Score(intent, scorer.SQLProfile)

	decision := &models.RoutingDecision{
		Confidence: models.Confidence{Search: searchScore, SQL: sqlScore},
	}

	if searchScore >= Threshold {
		decision.UseSearch = true
		decision.SearchQuery = searchquery.BuildParams(intent)
		decision.Reasoning = append(decision.Reasoning,
			fmt.Sprintf("search selected (score: %.2f)", searchScore))
	}

	if sqlScore >= Threshold {
		decision.UseSQL = true
		decision.SQLQuery = sqlquery.BuildParams(intent)
		decision.Reasoning = append(decision.Reasoning,
			fmt.Sprintf("sql selected (score: %.2f)", sqlScore))
	}

	// Ties resolve to sql, the stable default.
	if searchScore > sqlScore {
		decision.PrimarySource = models.SourceSearch
	} else {
		decision.PrimarySource = models.SourceSQL
	}

	// Neither backend is confident: query both and let the merger sort it out.
	if searchScore < Threshold && sqlScore < Threshold {
		decision.UseSearch = true
		decision.UseSQL = true
		decision.SearchQuery = searchquery.BuildParams(intent)
		decision.SQLQuery = sqlquery.BuildParams(intent)
		decision.Reasoning = append(decision.Reasoning,
			"low confidence - querying both sources")
	}

	return decision
}
