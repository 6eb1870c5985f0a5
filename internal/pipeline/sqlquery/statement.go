// internal/pipeline/sqlquery/statement.go
package sqlquery

import (
	"fmt"
	"strings"
	"time"

	"hybrid-query-engine/internal/models"
)

// Statement is an executable query: SQL text with positional placeholders
// and the values bound to them. Values are never interpolated into the text.
type Statement struct {
	SQL  string
	Args []interface{}
}

// tableRule maps query vocabulary to a table. Order matters: the first
// table whose keyword appears in the query wins.
type tableRule struct {
	table    string
	keywords []string
}

var tableRules = []tableRule{
	{table: "users", keywords: []string{"user", "employee", "person", "staff", "worker"}},
	{table: "products", keywords: []string{"product", "item", "inventory", "goods"}},
	{table: "orders", keywords: []string{"order", "purchase", "transaction", "sale"}},
}

// dateFields names the temporal column consulted per table.
var dateFields = map[string]string{
	"users":    "hire_date",
	"products": "created_at",
	"orders":   "order_date",
}

// defaultOrderBy is the fallback ordering per table.
var defaultOrderBy = map[string]string{
	"users":    "created_at DESC",
	"products": "created_at DESC",
	"orders":   "order_date DESC",
}

// BuildStatement assembles the SELECT statement for the given parameters.
// Clause order is fixed: SELECT, FROM, JOIN, WHERE, GROUP BY, ORDER BY, LIMIT.
func BuildStatement(params *models.SQLQueryParams) Statement {
	return buildStatement(params, time.Now())
}

func buildStatement(params *models.SQLQueryParams, now time.Time) Statement {
	table := determineTable(params.Entities, params.OriginalQuery)

	var args []interface{}

	parts := []string{
		"SELECT " + buildSelectClause(params.Aggregations),
		"FROM " + table,
	}
	parts = append(parts, buildJoinClauses(table, params.Entities)...)

	if where := buildWhereClause(params.Filters, params.TemporalInfo, table, now, &args); where != "" {
		parts = append(parts, "WHERE "+where)
	}
	if groupBy := buildGroupByClause(params.Aggregations); groupBy != "" {
		parts = append(parts, "GROUP BY "+groupBy)
	}
	parts = append(parts, "ORDER BY "+buildOrderByClause(params, table))
	parts = append(parts, fmt.Sprintf("LIMIT %d", params.Limit))

	return Statement{SQL: strings.Join(parts, " "), Args: args}
}

// TableFor exposes the table resolution for callers that report which table
// a statement targets.
func TableFor(params *models.SQLQueryParams) string {
	return determineTable(params.Entities, params.OriginalQuery)
}

// determineTable picks the primary table: an entity naming a table directly
// wins, then the first table keyword found in the query, then users.
func determineTable(entities []models.Entity, originalQuery string) string {
	query := strings.ToLower(originalQuery)

	for _, entity := range entities {
		text := strings.ToLower(entity.Text)
		for _, rule := range tableRules {
			if text == rule.table {
				return rule.table
			}
		}
	}

	for _, rule := range tableRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(query, keyword) {
				return rule.table
			}
		}
	}

	return "users"
}

func buildSelectClause(aggs []models.Aggregation) string {
	if len(aggs) == 0 {
		return "*"
	}

	var parts []string
	for _, agg := range aggs {
		switch agg.Type {
		case models.AggCount:
			if agg.Field == "*" || agg.Field == "" {
				parts = append(parts, "COUNT(*) AS count_all")
			} else {
				parts = append(parts, fmt.Sprintf("COUNT(%s) AS count_%s", agg.Field, agg.Field))
			}
		case models.AggSum:
			parts = append(parts, fmt.Sprintf("SUM(%s) AS sum_%s", agg.Field, agg.Field))
		case models.AggAvg:
			parts = append(parts, fmt.Sprintf("AVG(%s) AS avg_%s", agg.Field, agg.Field))
		case models.AggMax:
			parts = append(parts, fmt.Sprintf("MAX(%s) AS max_%s", agg.Field, agg.Field))
		case models.AggMin:
			parts = append(parts, fmt.Sprintf("MIN(%s) AS min_%s", agg.Field, agg.Field))
		case models.AggGroupBy:
			parts = append(parts, agg.Field)
		}
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, ", ")
}

// buildJoinClauses adds joins only from orders, when an entity mentions the
// joined table's subject.
func buildJoinClauses(table string, entities []models.Entity) []string {
	if table != "orders" {
		return nil
	}

	var joins []string
	mentionsUser, mentionsProduct := false, false
	for _, entity := range entities {
		text := strings.ToLower(entity.Text)
		if strings.Contains(text, "user") || strings.Contains(text, "employee") {
			mentionsUser = true
		}
		if strings.Contains(text, "product") || strings.Contains(text, "item") {
			mentionsProduct = true
		}
	}

	if mentionsUser {
		joins = append(joins, "JOIN users ON orders.user_id = users.id")
	}
	if mentionsProduct {
		joins = append(joins, "JOIN products ON orders.product_id = products.id")
	}
	return joins
}

func buildWhereClause(filters []models.Filter, temporal models.TemporalInfo, table string, now time.Time, args *[]interface{}) string {
	var conditions []string

	for _, filter := range filters {
		if condition := convertFilter(filter, args); condition != "" {
			conditions = append(conditions, condition)
		}
	}

	if temporal.HasTimeConstraint {
		if condition := buildTimeCondition(temporal, table, now, args); condition != "" {
			conditions = append(conditions, condition)
		}
	}

	// Soft-deleted rows are excluded by default on tables that carry the flag.
	if table == "users" || table == "products" {
		conditions = append(conditions, table+".is_active = true")
	}

	return strings.Join(conditions, " AND ")
}

// convertFilter maps one predicate to a SQL condition with its values bound
// as placeholders. Unsupported operators yield an empty condition.
func convertFilter(filter models.Filter, args *[]interface{}) string {
	if filter.Field == "" || filter.Operator == "" {
		return ""
	}

	switch filter.Operator {
	case models.OpEqual, models.OpIs:
		return fmt.Sprintf("%s = %s", filter.Field, bind(args, filter.Value))
	case models.OpNotEqual, models.OpIsNot:
		return fmt.Sprintf("%s != %s", filter.Field, bind(args, filter.Value))
	case models.OpGreater:
		return fmt.Sprintf("%s > %s", filter.Field, bind(args, filter.Value))
	case models.OpGreaterEqual:
		return fmt.Sprintf("%s >= %s", filter.Field, bind(args, filter.Value))
	case models.OpLess:
		return fmt.Sprintf("%s < %s", filter.Field, bind(args, filter.Value))
	case models.OpLessEqual:
		return fmt.Sprintf("%s <= %s", filter.Field, bind(args, filter.Value))
	case models.OpContains:
		return fmt.Sprintf("%s ILIKE %s", filter.Field, bind(args, fmt.Sprintf("%%%v%%", filter.Value)))
	case models.OpBetween:
		low, high, ok := valuePair(filter.Value)
		if !ok {
			return ""
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", filter.Field, bind(args, low), bind(args, high))
	}

	return ""
}

// bind appends a value to the args list and returns its placeholder.
func bind(args *[]interface{}, value interface{}) string {
	*args = append(*args, value)
	return fmt.Sprintf("$%d", len(*args))
}

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

// buildTimeCondition derives the temporal predicate from the table's date
// column. Day zero compares against CURRENT_DATE, month zero matches the
// current calendar month. Non-zero offsets bind a computed boundary, with
// months and years approximated as 30 and 365 day multiples.
func buildTimeCondition(temporal models.TemporalInfo, table string, now time.Time, args *[]interface{}) string {
	dateField, ok := dateFields[table]
	if !ok {
		return ""
	}
	relative := temporal.RelativeTime
	if relative == nil {
		return ""
	}

	switch {
	case relative.Days != nil:
		days := *relative.Days
		if days == 0 {
			return fmt.Sprintf("DATE(%s) = CURRENT_DATE", dateField)
		}
		return fmt.Sprintf("%s >= %s", dateField, bind(args, now.AddDate(0, 0, days)))
	case relative.Months != nil:
		months := *relative.Months
		if months == 0 {
			return fmt.Sprintf(
				"EXTRACT(MONTH FROM %s) = EXTRACT(MONTH FROM CURRENT_DATE) AND EXTRACT(YEAR FROM %s) = EXTRACT(YEAR FROM CURRENT_DATE)",
				dateField, dateField,
			)
		}
		return fmt.Sprintf("%s >= %s", dateField, bind(args, now.AddDate(0, 0, months*30)))
	case relative.Years != nil:
		return fmt.Sprintf("%s >= %s", dateField, bind(args, now.AddDate(0, 0, *relative.Years*365)))
	}

	return ""
}

func buildGroupByClause(aggs []models.Aggregation) string {
	var fields []string
	for _, agg := range aggs {
		if agg.Type == models.AggGroupBy && agg.Field != "" {
			fields = append(fields, agg.Field)
		}
	}
	return strings.Join(fields, ", ")
}

func buildOrderByClause(params *models.SQLQueryParams, table string) string {
	if params.SortField != "" {
		return params.SortField + " " + params.SortOrder
	}
	if orderBy, ok := defaultOrderBy[table]; ok {
		return orderBy
	}
	return "id DESC"
}
