// internal/pipeline/merger/merger.go
package merger

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"hybrid-query-engine/internal/models"
)

const maxMergedResults = 20

// Merger combines per-backend results into one response, dispatching on the
// intent class. It holds no request state; the clock is injectable for tests.
type Merger struct {
	now func() time.Time
}

func New() *Merger {
	return &Merger{now: time.Now}
}

// Merge dispatches to the intent's merge strategy, then attaches metadata
// and a summary. An intent with no strategy of its own merges as search
// results. Missing sources simply contribute nothing.
func (m *Merger) Merge(results map[models.Source]models.SourceResult, intent *models.NormalizedIntent) *models.MergedResult {
	var merged *models.MergedResult

	switch intent.Intent {
	case models.IntentCountRecords:
		merged = m.mergeCounts(results)
	case models.IntentAggregateData:
		merged = m.mergeAggregates(results)
	case models.IntentFilterData:
		merged = m.mergeFiltered(results, intent)
	case models.IntentTimeAnalysis:
		merged = m.mergeTimeAnalysis(results, intent)
	case models.IntentCompareData:
		merged = m.mergeComparison(results)
	default:
		merged = m.mergeSearch(results, intent)
	}

	merged.Metadata = m.buildMetadata(results, intent)
	merged.Summary = summarize(merged)
	return merged
}

// mergeSearch concatenates both sources' records, tags each with its origin
// and a relevance score, sorts by relevance when the sources are mixed, and
// truncates to the top results.
func (m *Merger) mergeSearch(results map[models.Source]models.SourceResult, intent *models.NormalizedIntent) *models.MergedResult {
	merged := &models.MergedResult{
		Type:         models.ResultTypeSearch,
		Results:      []map[string]interface{}{},
		Aggregations: map[models.Source]map[string]interface{}{},
	}

	if searchData, ok := results[models.SourceSearch]; ok {
		merged.TotalResults += searchData.TotalResults
		merged.Sources = append(merged.Sources, models.SourceSearch)

		for _, record := range searchData.Results {
			merged.Results = append(merged.Results,
				tagRecord(record, models.SourceSearch, asFloat(record["_score"])))
		}
		if len(searchData.Aggregations) > 0 {
			merged.Aggregations[models.SourceSearch] = searchData.Aggregations
		}
	}

	if sqlData, ok := results[models.SourceSQL]; ok {
		merged.TotalResults += sqlData.TotalResults
		merged.Sources = append(merged.Sources, models.SourceSQL)

		for _, record := range sqlData.Results {
			merged.Results = append(merged.Results,
				tagRecord(record, models.SourceSQL, m.relevance(record, intent)))
		}
		if query, ok := sqlData.QueryInfo["sql_query"].(string); ok {
			merged.SQLQuery = query
		}
	}

	if len(merged.Sources) > 1 {
		sort.SliceStable(merged.Results, func(i, j int) bool {
			return asFloat(merged.Results[i]["_relevance_score"]) > asFloat(merged.Results[j]["_relevance_score"])
		})
	}

	if len(merged.Results) > maxMergedResults {
		merged.Results = merged.Results[:maxMergedResults]
		merged.Truncated = true
		merged.TotalShown = maxMergedResults
	} else {
		merged.TotalShown = len(merged.Results)
	}

	return merged
}

// mergeCounts sums the per-source totals. A relational row carrying a
// count_-prefixed column overrides that source's raw row count: the count
// came from an aggregate projection, not from fetched rows.
func (m *Merger) mergeCounts(results map[models.Source]models.SourceResult) *models.MergedResult {
	merged := &models.MergedResult{
		Type:      models.ResultTypeCount,
		Breakdown: map[models.Source]int{},
	}

	if searchData, ok := results[models.SourceSearch]; ok {
		merged.Breakdown[models.SourceSearch] = searchData.TotalResults
		merged.TotalCount += searchData.TotalResults
		merged.Sources = append(merged.Sources, models.SourceSearch)
	}

	if sqlData, ok := results[models.SourceSQL]; ok {
		count := sqlData.TotalResults
		if len(sqlData.Results) > 0 {
			if v, ok := firstPrefixedValue(sqlData.Results[0], "count_"); ok {
				count = int(asFloat(v))
			}
		}
		merged.Breakdown[models.SourceSQL] = count
		merged.TotalCount += count
		merged.Sources = append(merged.Sources, models.SourceSQL)
	}

	return merged
}

// mergeAggregates passes the search engine's aggregation map through and
// lifts aggregate columns out of relational rows, keeping the raw rows as
// supporting detail.
func (m *Merger) mergeAggregates(results map[models.Source]models.SourceResult) *models.MergedResult {
	merged := &models.MergedResult{
		Type:         models.ResultTypeAggregate,
		Aggregations: map[models.Source]map[string]interface{}{},
	}

	if searchData, ok := results[models.SourceSearch]; ok {
		if len(searchData.Aggregations) > 0 {
			merged.Aggregations[models.SourceSearch] = searchData.Aggregations
			merged.Sources = append(merged.Sources, models.SourceSearch)
		}
	}

	if sqlData, ok := results[models.SourceSQL]; ok {
		extracted := map[string]interface{}{}
		for _, record := range sqlData.Results {
			for key, value := range record {
				if hasAggregatePrefix(key) {
					extracted[key] = value
				}
			}
		}
		if len(extracted) > 0 {
			merged.Aggregations[models.SourceSQL] = extracted
			merged.Sources = append(merged.Sources, models.SourceSQL)
			merged.Details = sqlData.Results
		}
	}

	return merged
}

// mergeFiltered is the search merge with the applied filters attached.
func (m *Merger) mergeFiltered(results map[models.Source]models.SourceResult, intent *models.NormalizedIntent) *models.MergedResult {
	merged := m.mergeSearch(results, intent)
	merged.Type = models.ResultTypeFilter
	merged.AppliedFilters = intent.Filters
	return merged
}

// mergeTimeAnalysis keeps per-source result sets apart and builds a
// chronological timeline from the relational rows.
func (m *Merger) mergeTimeAnalysis(results map[models.Source]models.SourceResult, intent *models.NormalizedIntent) *models.MergedResult {
	temporal := intent.TemporalInfo
	merged := &models.MergedResult{
		Type:            models.ResultTypeTime,
		TimePeriod:      &temporal,
		ResultsBySource: map[models.Source]models.SourceBreakdown{},
		Timeline:        []models.TimelineBucket{},
	}

	if searchData, ok := results[models.SourceSearch]; ok {
		merged.ResultsBySource[models.SourceSearch] = models.SourceBreakdown{
			Count:   searchData.TotalResults,
			Results: searchData.Results,
		}
		merged.TotalResults += searchData.TotalResults
	}

	if sqlData, ok := results[models.SourceSQL]; ok {
		merged.ResultsBySource[models.SourceSQL] = models.SourceBreakdown{
			Count:   sqlData.TotalResults,
			Results: sqlData.Results,
		}
		merged.TotalResults += sqlData.TotalResults
		merged.Timeline = buildTimeline(sqlData.Results)
	}

	return merged
}

// mergeComparison keeps totals and a few sample rows per source and, when
// both sources responded, a difference/ratio metric block.
func (m *Merger) mergeComparison(results map[models.Source]models.SourceResult) *models.MergedResult {
	merged := &models.MergedResult{
		Type:           models.ResultTypeComparison,
		ComparisonData: map[models.Source]models.ComparisonSide{},
	}

	const sampleSize = 5
	for _, source := range []models.Source{models.SourceSearch, models.SourceSQL} {
		data, ok := results[source]
		if !ok {
			continue
		}
		samples := data.Results
		if len(samples) > sampleSize {
			samples = samples[:sampleSize]
		}
		merged.ComparisonData[source] = models.ComparisonSide{
			TotalRecords: data.TotalResults,
			SampleData:   samples,
		}
		merged.Sources = append(merged.Sources, source)
	}

	searchSide, hasSearch := merged.ComparisonData[models.SourceSearch]
	sqlSide, hasSQL := merged.ComparisonData[models.SourceSQL]
	if hasSearch && hasSQL {
		// Division by a zero relational total yields +Inf, rendered as null
		// on the wire.
		ratio := math.Inf(1)
		if sqlSide.TotalRecords > 0 {
			ratio = float64(searchSide.TotalRecords) / float64(sqlSide.TotalRecords)
		}
		diff := searchSide.TotalRecords - sqlSide.TotalRecords
		if diff < 0 {
			diff = -diff
		}
		merged.Metrics = &models.ComparisonMetrics{
			TotalRecords: &models.RecordComparison{
				Search:     searchSide.TotalRecords,
				SQL:        sqlSide.TotalRecords,
				Difference: diff,
				Ratio:      ratio,
			},
		}
	}

	return merged
}

func (m *Merger) buildMetadata(results map[models.Source]models.SourceResult, intent *models.NormalizedIntent) models.Metadata {
	metadata := models.Metadata{
		QueryInfo: models.QueryInfo{
			OriginalQuery:         intent.OriginalQuery,
			Intent:                intent.Intent,
			EntitiesFound:         len(intent.Entities),
			FiltersApplied:        len(intent.Filters),
			AggregationsRequested: len(intent.Aggregations),
		},
		SourcesQueried: []models.Source{},
		ProcessingTime: m.now().Format(time.RFC3339),
		ResultCounts:   map[models.Source]int{},
	}

	for _, source := range []models.Source{models.SourceSearch, models.SourceSQL} {
		if data, ok := results[source]; ok {
			metadata.SourcesQueried = append(metadata.SourcesQueried, source)
			metadata.ResultCounts[source] = data.TotalResults
		}
	}

	return metadata
}

func summarize(merged *models.MergedResult) string {
	switch merged.Type {
	case models.ResultTypeSearch:
		summary := fmt.Sprintf("Found %d total results", merged.TotalResults)
		if len(merged.Sources) > 1 {
			summary += fmt.Sprintf(" across %d data sources", len(merged.Sources))
		}
		if merged.TotalShown < merged.TotalResults {
			summary += fmt.Sprintf(", showing top %d", merged.TotalShown)
		}
		return summary

	case models.ResultTypeCount:
		summary := fmt.Sprintf("Total count: %d", merged.TotalCount)
		if len(merged.Breakdown) > 1 {
			var details []string
			for _, source := range []models.Source{models.SourceSearch, models.SourceSQL} {
				if count, ok := merged.Breakdown[source]; ok {
					details = append(details, fmt.Sprintf("%s: %d", source, count))
				}
			}
			summary += fmt.Sprintf(" (%s)", strings.Join(details, ", "))
		}
		return summary

	case models.ResultTypeAggregate:
		return fmt.Sprintf("Aggregation results from %d source(s)", len(merged.Aggregations))

	case models.ResultTypeTime:
		summary := fmt.Sprintf("Time analysis: %d records", merged.TotalResults)
		if merged.TimePeriod != nil && len(merged.TimePeriod.Expressions) > 0 {
			summary += fmt.Sprintf(" for %s", strings.Join(merged.TimePeriod.Expressions, ", "))
		}
		return summary
	}

	return "Query processed successfully"
}

// tagRecord copies a record and marks it with its origin and relevance.
// Source records stay untouched.
func tagRecord(record map[string]interface{}, source models.Source, relevance float64) map[string]interface{} {
	tagged := make(map[string]interface{}, len(record)+2)
	for key, value := range record {
		tagged[key] = value
	}
	tagged["_source"] = string(source)
	tagged["_relevance_score"] = relevance
	return tagged
}

// firstPrefixedValue returns the value of the alphabetically first key with
// the given prefix. Sorted scan keeps the pick stable across map iterations.
func firstPrefixedValue(record map[string]interface{}, prefix string) (interface{}, bool) {
	keys := make([]string, 0, len(record))
	for key := range record {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, false
	}
	sort.Strings(keys)
	return record[keys[0]], true
}

var aggregatePrefixes = []string{"sum_", "avg_", "max_", "min_", "count_"}

func hasAggregatePrefix(key string) bool {
	for _, prefix := range aggregatePrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func asFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
