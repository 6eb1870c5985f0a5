// internal/executor/postgres/executor.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"hybrid-query-engine/internal/common/errors"
	"hybrid-query-engine/internal/common/logger"
	"hybrid-query-engine/internal/models"
	"hybrid-query-engine/internal/pipeline/sqlquery"
)

// Executor runs translated SQL statements and normalizes the row sets into
// SourceResult form.
type Executor struct {
	db      *sql.DB
	timeout time.Duration
	log     logger.Logger
}

func New(db *sql.DB, timeout time.Duration, log logger.Logger) *Executor {
	return &Executor{
		db:      db,
		timeout: timeout,
		log:     log.WithFields(map[string]interface{}{"component": "sql_executor"}),
	}
}

// Execute builds the statement from the translated parameters, runs it, and
// scans the rows into generic records.
func (e *Executor) Execute(ctx context.Context, params *models.SQLQueryParams) (models.SourceResult, error) {
	stmt := sqlquery.BuildStatement(params)
	table := sqlquery.TableFor(params)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return models.SourceResult{}, errors.NewQueryTimeoutError(table)
		}
		return models.SourceResult{}, errors.NewQueryExecutionFailedError(table, err)
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return models.SourceResult{}, errors.NewQueryExecutionFailedError(table, err)
	}

	e.log.Debug("sql query executed", map[string]interface{}{
		"table":       table,
		"rows":        len(records),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return models.SourceResult{
		Source:       models.SourceSQL,
		TotalResults: len(records),
		Results:      records,
		QueryInfo: map[string]interface{}{
			"sql_query": stmt.SQL,
			"table":     table,
		},
	}, nil
}

// Column describes one column of an introspected table.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
}

const schemaQuery = `SELECT table_name, column_name, data_type, is_nullable ` +
	`FROM information_schema.columns WHERE table_schema = 'public' ` +
	`ORDER BY table_name, ordinal_position`

// Schema introspects the public schema and returns its tables with their
// columns in ordinal order.
func (e *Executor) Schema(ctx context.Context) (map[string][]Column, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.db.QueryContext(ctx, schemaQuery)
	if err != nil {
		return nil, errors.NewSchemaIntrospectionError(err)
	}
	defer rows.Close()

	schema := map[string][]Column{}
	for rows.Next() {
		var table, column, dataType, nullable string
		if err := rows.Scan(&table, &column, &dataType, &nullable); err != nil {
			return nil, errors.NewSchemaIntrospectionError(err)
		}
		schema[table] = append(schema[table], Column{
			Name:     column,
			DataType: dataType,
			Nullable: nullable == "YES",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewSchemaIntrospectionError(err)
	}

	return schema, nil
}

// Ping tests the database connection.
func (e *Executor) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

// scanRows converts a row set into generic records. Timestamps become
// RFC 3339 strings and raw byte columns become plain strings so the records
// serialize cleanly.
func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		record := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			record[column] = normalizeValue(values[i])
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	case []byte:
		return string(v)
	}
	return value
}
