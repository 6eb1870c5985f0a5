// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"hybrid-query-engine/internal/common/errors"
	"hybrid-query-engine/internal/common/logger"
	"hybrid-query-engine/internal/executor/postgres"
	"hybrid-query-engine/internal/models"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xeipuuv/gojsonschema"
)

// QueryEngine is the pipeline surface the HTTP layer drives.
type QueryEngine interface {
	Execute(ctx context.Context, intent *models.NormalizedIntent) (*models.MergedResult, error)
}

// SchemaProvider exposes relational schema introspection.
type SchemaProvider interface {
	Schema(ctx context.Context) (map[string][]postgres.Column, error)
}

// HealthChecker reports whether one dependency is reachable.
type HealthChecker func(ctx context.Context) error

// Server is the HTTP boundary: intent in, merged result out.
type Server struct {
	engine QueryEngine
	schema SchemaProvider
	checks map[string]HealthChecker
	log    logger.Logger
}

func New(engine QueryEngine, schema SchemaProvider, checks map[string]HealthChecker, log logger.Logger) *Server {
	return &Server{
		engine: engine,
		schema: schema,
		checks: checks,
		log:    log,
	}
}

// Routes builds the request mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/schema/sql", s.handleSchema)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// intentSchema validates the request body before it is decoded. The intent
// value itself stays open: unknown intents route through the low-confidence
// fallback rather than being rejected.
const intentSchema = `{
	"type": "object",
	"required": ["original_query", "intent"],
	"properties": {
		"original_query": {"type": "string", "minLength": 1},
		"processed_query": {"type": "string"},
		"intent": {"type": "string", "minLength": 1},
		"entities": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["text", "label"],
				"properties": {
					"text": {"type": "string"},
					"label": {"type": "string"},
					"start": {"type": "integer"},
					"end": {"type": "integer"}
				}
			}
		},
		"temporal_info": {
			"type": "object",
			"properties": {
				"has_time_constraint": {"type": "boolean"},
				"time_expressions": {"type": "array", "items": {"type": "string"}},
				"relative_time": {"type": "object"},
				"specific_dates": {"type": "array", "items": {"type": "string"}}
			}
		},
		"filters": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["field", "operator"],
				"properties": {
					"field": {"type": "string"},
					"operator": {"type": "string"},
					"kind": {"type": "string"}
				}
			}
		},
		"aggregations": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["type", "field"],
				"properties": {
					"type": {"type": "string"},
					"field": {"type": "string"}
				}
			}
		}
	}
}`

var intentSchemaLoader = gojsonschema.NewStringLoader(intentSchema)

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := gojsonschema.Validate(intentSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to validate request")
		return
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "intent failed validation",
			"details": details,
		})
		return
	}

	var intent models.NormalizedIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		writeError(w, http.StatusBadRequest, "invalid intent payload")
		return
	}

	merged, err := s.engine.Execute(r.Context(), &intent)
	if err != nil {
		s.log.WithError(err).Error("query execution failed", map[string]interface{}{
			"intent": string(intent.Intent),
		})
		status := http.StatusBadGateway
		if stdErr, ok := err.(*errors.StandardError); ok && !stdErr.Retryable {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, merged)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	dependencies := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			dependencies[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		dependencies[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}

	writeJSON(w, status, map[string]interface{}{
		"status":       overall,
		"dependencies": dependencies,
		"time":         time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if s.schema == nil {
		writeError(w, http.StatusNotFound, "schema introspection unavailable")
		return
	}

	schema, err := s.schema.Schema(r.Context())
	if err != nil {
		s.log.WithError(err).Error("schema introspection failed", nil)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tables": schema})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
