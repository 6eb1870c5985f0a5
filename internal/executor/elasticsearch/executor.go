// internal/executor/elasticsearch/executor.go
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hybrid-query-engine/internal/common/errors"
	"hybrid-query-engine/internal/common/logger"
	"hybrid-query-engine/internal/models"
	"hybrid-query-engine/internal/pipeline/searchquery"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Executor runs translated search queries against one index and normalizes
// the responses into SourceResult form.
type Executor struct {
	client  *elasticsearch.Client
	index   string
	timeout time.Duration
	log     logger.Logger
}

func New(client *elasticsearch.Client, index string, timeout time.Duration, log logger.Logger) *Executor {
	return &Executor{
		client:  client,
		index:   index,
		timeout: timeout,
		log:     log.WithFields(map[string]interface{}{"component": "search_executor"}),
	}
}

// Execute builds the query body from the translated parameters, runs the
// search, and parses the response.
func (e *Executor) Execute(ctx context.Context, params *models.SearchQueryParams) (models.SourceResult, error) {
	body := searchquery.BuildQuery(params)
	body["size"] = params.Limit

	payload, err := json.Marshal(body)
	if err != nil {
		return models.SourceResult{}, fmt.Errorf("failed to marshal search query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(payload),
	}

	start := time.Now()
	res, err := req.Do(ctx, e.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return models.SourceResult{}, errors.NewSearchTimeoutError(e.index)
		}
		return models.SourceResult{}, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == http.StatusNotFound {
			return models.SourceResult{}, errors.NewIndexNotFoundError(e.index)
		}
		return models.SourceResult{}, errors.NewSearchQueryFailedError(e.index,
			fmt.Errorf("search returned %s", res.Status()))
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return models.SourceResult{}, errors.NewSearchQueryFailedError(e.index, err)
	}

	result, err := ParseResponse(raw, e.index, queryTypeFor(params))
	if err != nil {
		return models.SourceResult{}, err
	}

	e.log.Debug("search query executed", map[string]interface{}{
		"index":       e.index,
		"total":       result.TotalResults,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return result, nil
}

func queryTypeFor(params *models.SearchQueryParams) string {
	if len(params.Aggregations) > 0 {
		return "aggregation"
	}
	return "search"
}

// ParseResponse normalizes a raw search response. Hit sources are annotated
// with their score and document id, totals accept both the modern object form
// and the legacy number, and aggregations collapse to either a scalar value
// or a bucket list.
func ParseResponse(raw []byte, index, queryType string) (models.SourceResult, error) {
	var response map[string]interface{}
	if err := json.Unmarshal(raw, &response); err != nil {
		return models.SourceResult{}, errors.NewSearchQueryFailedError(index,
			fmt.Errorf("failed to decode response: %w", err))
	}

	result := models.SourceResult{
		Source:  models.SourceSearch,
		Results: []map[string]interface{}{},
		QueryInfo: map[string]interface{}{
			"index":      index,
			"query_type": queryType,
		},
	}

	if hits, ok := response["hits"].(map[string]interface{}); ok {
		result.TotalResults = parseTotal(hits["total"])

		if hitList, ok := hits["hits"].([]interface{}); ok {
			for _, item := range hitList {
				hit, ok := item.(map[string]interface{})
				if !ok {
					continue
				}
				source, ok := hit["_source"].(map[string]interface{})
				if !ok {
					source = map[string]interface{}{}
				}
				source["_score"] = hit["_score"]
				source["_id"] = hit["_id"]
				result.Results = append(result.Results, source)
			}
		}
	}

	if aggs, ok := response["aggregations"].(map[string]interface{}); ok {
		result.Aggregations = parseAggregations(aggs)
	}

	return result, nil
}

// parseTotal handles both {"value": n, "relation": ...} and a bare number.
func parseTotal(total interface{}) int {
	switch v := total.(type) {
	case map[string]interface{}:
		if value, ok := v["value"].(float64); ok {
			return int(value)
		}
	case float64:
		return int(v)
	}
	return 0
}

func parseAggregations(aggs map[string]interface{}) map[string]interface{} {
	parsed := map[string]interface{}{}

	for name, raw := range aggs {
		agg, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		if value, ok := agg["value"]; ok {
			parsed[name] = value
			continue
		}

		if buckets, ok := agg["buckets"].([]interface{}); ok {
			entries := make([]map[string]interface{}, 0, len(buckets))
			for _, item := range buckets {
				bucket, ok := item.(map[string]interface{})
				if !ok {
					continue
				}
				entries = append(entries, map[string]interface{}{
					"key":   bucket["key"],
					"count": bucket["doc_count"],
				})
			}
			parsed[name] = entries
		}
	}

	return parsed
}
