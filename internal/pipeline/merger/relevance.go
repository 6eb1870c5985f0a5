// internal/pipeline/merger/relevance.go
package merger

import (
	"sort"
	"strings"
	"time"

	"hybrid-query-engine/internal/models"
)

// Date columns recognized in relational rows, checked in this order.
var recordDateFields = []string{"created_at", "updated_at", "order_date", "hire_date"}

// relevance scores a relational row against the query. Rows have no native
// relevance, so one is derived: base 0.5, +0.1 per query term found in a
// string field, recency boosts per date field present. Clamped to [0, 1].
func (m *Merger) relevance(record map[string]interface{}, intent *models.NormalizedIntent) float64 {
	score := 0.5

	terms := strings.Fields(strings.ToLower(intent.OriginalQuery))
	for _, value := range record {
		text, ok := value.(string)
		if !ok {
			continue
		}
		lower := strings.ToLower(text)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				score += 0.1
			}
		}
	}

	now := m.now()
	for _, field := range recordDateFields {
		parsed, ok := parseRecordDate(record[field])
		if !ok {
			continue
		}
		daysOld := int(now.Sub(parsed).Hours() / 24)
		if daysOld < 30 {
			score += 0.2
		} else if daysOld < 90 {
			score += 0.1
		}
	}

	return models.Clamp01(score)
}

// buildTimeline groups rows by the calendar date of their first recognized
// date field, chronologically, keeping up to 3 sample rows per day.
func buildTimeline(records []map[string]interface{}) []models.TimelineBucket {
	groups := map[string][]map[string]interface{}{}

	for _, record := range records {
		for _, field := range recordDateFields {
			parsed, ok := parseRecordDate(record[field])
			if !ok {
				continue
			}
			key := parsed.Format("2006-01-02")
			groups[key] = append(groups[key], record)
			break
		}
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	timeline := make([]models.TimelineBucket, 0, len(keys))
	for _, key := range keys {
		items := groups[key]
		samples := items
		if len(samples) > 3 {
			samples = samples[:3]
		}
		timeline = append(timeline, models.TimelineBucket{
			Date:  key,
			Count: len(items),
			Items: samples,
		})
	}

	return timeline
}

// parseRecordDate accepts the value shapes the executors produce: time.Time
// from the relational driver and ISO strings from the search engine.
func parseRecordDate(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, v); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}
