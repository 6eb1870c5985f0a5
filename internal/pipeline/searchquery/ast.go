// internal/pipeline/searchquery/ast.go
package searchquery

import (
	"fmt"
	"time"

	"hybrid-query-engine/internal/models"
)

// Fields the full-text clause searches, title weighted highest.
var multiMatchFields = []string{"title^3", "content^2", "tags", "author"}

// BuildQuery assembles the boolean query AST the search executor accepts.
func BuildQuery(params *models.SearchQueryParams) map[string]interface{} {
	return buildQuery(params, time.Now())
}

func buildQuery(params *models.SearchQueryParams, now time.Time) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if params.SearchText != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     params.SearchText,
				"fields":    multiMatchFields,
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		})
	}

	for _, filter := range params.Filters {
		if clause := convertFilter(filter); clause != nil {
			filterClauses = append(filterClauses, clause)
		}
	}

	if params.TemporalInfo.HasTimeConstraint {
		if clause := buildTimeFilter(params.TemporalInfo, now); clause != nil {
			filterClauses = append(filterClauses, clause)
		}
	}

	aggs := map[string]interface{}{}
	for _, agg := range params.Aggregations {
		name, clause := buildAggregation(agg)
		if clause != nil {
			aggs[name] = clause
		}
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":     mustClauses,
				"filter":   filterClauses,
				"should":   []interface{}{},
				"must_not": []interface{}{},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{
				params.SortField: map[string]interface{}{"order": params.SortOrder},
			},
		},
		"aggs": aggs,
	}

	// No full-text clause means nothing to score against; match everything.
	if params.SearchText == "" {
		query["query"] = map[string]interface{}{"match_all": map[string]interface{}{}}
	}

	return query
}

// convertFilter maps one predicate to its search-engine clause. Unsupported
// operators yield nil and are dropped from the query.
func convertFilter(filter models.Filter) map[string]interface{} {
	if filter.Field == "" || filter.Operator == "" {
		return nil
	}

	switch filter.Operator {
	case models.OpEqual, models.OpIs:
		return map[string]interface{}{
			"term": map[string]interface{}{filter.Field: filter.Value},
		}
	case models.OpNotEqual, models.OpIsNot:
		return map[string]interface{}{
			"bool": map[string]interface{}{
				"must_not": map[string]interface{}{
					"term": map[string]interface{}{filter.Field: filter.Value},
				},
			},
		}
	case models.OpGreater:
		return rangeClause(filter.Field, "gt", filter.Value)
	case models.OpGreaterEqual:
		return rangeClause(filter.Field, "gte", filter.Value)
	case models.OpLess:
		return rangeClause(filter.Field, "lt", filter.Value)
	case models.OpLessEqual:
		return rangeClause(filter.Field, "lte", filter.Value)
	case models.OpContains:
		return map[string]interface{}{
			"wildcard": map[string]interface{}{
				filter.Field: fmt.Sprintf("*%v*", filter.Value),
			},
		}
	case models.OpBetween:
		low, high, ok := valuePair(filter.Value)
		if !ok {
			return nil
		}
		return map[string]interface{}{
			"range": map[string]interface{}{
				filter.Field: map[string]interface{}{"gte": low, "lte": high},
			},
		}
	}

	return nil
}

func rangeClause(field, bound string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"range": map[string]interface{}{
			field: map[string]interface{}{bound: value},
		},
	}
}

// valuePair extracts the two bounds of a between filter. The value arrives
// either as a decoded JSON array or as a typed slice from tests.
func valuePair(value interface{}) (interface{}, interface{}, bool) {
	switch v := value.(type) {
	case []interface{}:
		if len(v) == 2 {
			return v[0], v[1], true
		}
	case []int:
		if len(v) == 2 {
			return v[0], v[1], true
		}
	case []float64:
		if len(v) == 2 {
			return v[0], v[1], true
		}
	case []string:
		if len(v) == 2 {
			return v[0], v[1], true
		}
	}
	return nil, nil, false
}

// buildTimeFilter turns a relative time constraint into a created_at range.
// Day zero means today, midnight to end of day. Months and years are
// approximated as 30 and 365 day multiples; a known precision limitation
// carried over rather than a calendar-aware computation.
func buildTimeFilter(info models.TemporalInfo, now time.Time) map[string]interface{} {
	if info.RelativeTime == nil {
		return nil
	}

	var start, end time.Time
	switch {
	case info.RelativeTime.Days != nil:
		days := *info.RelativeTime.Days
		if days == 0 {
			start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			end = time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999999000, now.Location())
		} else {
			start = now.AddDate(0, 0, days)
			end = now
		}
	case info.RelativeTime.Months != nil:
		start = now.AddDate(0, 0, *info.RelativeTime.Months*30)
		end = now
	case info.RelativeTime.Years != nil:
		start = now.AddDate(0, 0, *info.RelativeTime.Years*365)
		end = now
	default:
		return nil
	}

	return map[string]interface{}{
		"range": map[string]interface{}{
			"created_at": map[string]interface{}{
				"gte": start.Format(time.RFC3339),
				"lte": end.Format(time.RFC3339),
			},
		},
	}
}

// buildAggregation maps one aggregation to its named search-engine clause.
func buildAggregation(agg models.Aggregation) (string, map[string]interface{}) {
	if agg.Type == "" || agg.Field == "" {
		return "", nil
	}

	name := fmt.Sprintf("%s_%s", agg.Type, agg.Field)

	switch agg.Type {
	case models.AggCount:
		return name, map[string]interface{}{
			"value_count": map[string]interface{}{"field": agg.Field},
		}
	case models.AggSum, models.AggAvg, models.AggMax, models.AggMin:
		return name, map[string]interface{}{
			string(agg.Type): map[string]interface{}{"field": agg.Field},
		}
	case models.AggGroupBy:
		return name, map[string]interface{}{
			"terms": map[string]interface{}{"field": agg.Field, "size": 100},
		}
	}

	return "", nil
}
