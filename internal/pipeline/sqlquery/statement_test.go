// internal/pipeline/sqlquery/statement_test.go
package sqlquery

import (
	"strings"
	"testing"
	"time"

	"hybrid-query-engine/internal/models"

	"github.com/stretchr/testify/assert"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
}

func TestDetermineTable(t *testing.T) {
	tests := []struct {
		name     string
		entities []models.Entity
		query    string
		expected string
	}{
		{"entity naming a table wins", []models.Entity{{Text: "orders"}}, "show everything", "orders"},
		{"employee keyword maps to users", nil, "list all employees in engineering", "users"},
		{"inventory keyword maps to products", nil, "check the inventory levels", "products"},
		{"transaction keyword maps to orders", nil, "recent transactions", "orders"},
		{"nothing recognized defaults to users", nil, "show me everything", "users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, determineTable(tt.entities, tt.query))
		})
	}
}

func TestBuildStatement_BetweenFilter(t *testing.T) {
	stmt := buildStatement(&models.SQLQueryParams{
		Intent:        models.IntentFilterData,
		OriginalQuery: "products priced between 10 and 50",
		Filters: []models.Filter{
			{Field: "price", Operator: models.OpBetween, Value: []interface{}{10, 50}},
		},
		Limit:     100,
		SortOrder: "DESC",
	}, fixedNow())

	assert.Equal(t,
		"SELECT * FROM products WHERE price BETWEEN $1 AND $2 AND products.is_active = true ORDER BY created_at DESC LIMIT 100",
		stmt.SQL)
	assert.Equal(t, []interface{}{10, 50}, stmt.Args)
}

func TestBuildStatement_TodayOnOrders(t *testing.T) {
	days := 0
	stmt := buildStatement(&models.SQLQueryParams{
		Intent:        models.IntentTimeAnalysis,
		OriginalQuery: "orders placed today",
		TemporalInfo: models.TemporalInfo{
			HasTimeConstraint: true,
			RelativeTime:      &models.RelativeTime{Days: &days},
		},
		Limit:     200,
		SortOrder: "DESC",
	}, fixedNow())

	assert.Equal(t,
		"SELECT * FROM orders WHERE DATE(order_date) = CURRENT_DATE ORDER BY order_date DESC LIMIT 200",
		stmt.SQL)
	assert.Empty(t, stmt.Args)
}

func TestBuildStatement_CountProjection(t *testing.T) {
	stmt := buildStatement(&models.SQLQueryParams{
		Intent:        models.IntentCountRecords,
		OriginalQuery: "how many users are there",
		Aggregations:  []models.Aggregation{{Type: models.AggCount, Field: "*"}},
		Limit:         0,
		SortOrder:     "DESC",
	}, fixedNow())

	assert.Equal(t,
		"SELECT COUNT(*) AS count_all FROM users WHERE users.is_active = true ORDER BY created_at DESC LIMIT 0",
		stmt.SQL)
}

func TestBuildStatement_AggregateWithGrouping(t *testing.T) {
	stmt := buildStatement(&models.SQLQueryParams{
		Intent:        models.IntentAggregateData,
		OriginalQuery: "average salary by department of employees",
		Aggregations: []models.Aggregation{
			{Type: models.AggAvg, Field: "salary"},
			{Type: models.AggGroupBy, Field: "department"},
		},
		Limit:     100,
		SortOrder: "DESC",
	}, fixedNow())

	assert.Equal(t,
		"SELECT AVG(salary) AS avg_salary, department FROM users WHERE users.is_active = true GROUP BY department ORDER BY created_at DESC LIMIT 100",
		stmt.SQL)
}

func TestBuildStatement_JoinsFromOrders(t *testing.T) {
	stmt := buildStatement(&models.SQLQueryParams{
		Intent:        models.IntentSearchData,
		OriginalQuery: "orders with user details",
		Entities: []models.Entity{
			{Text: "orders", Label: "ORG"},
			{Text: "user", Label: "PERSON"},
		},
		Limit:     50,
		SortOrder: "DESC",
	}, fixedNow())

	assert.Equal(t,
		"SELECT * FROM orders JOIN users ON orders.user_id = users.id ORDER BY order_date DESC LIMIT 50",
		stmt.SQL)
}

func TestBuildStatement_RelativeDaysBindsBoundary(t *testing.T) {
	days := -30
	stmt := buildStatement(&models.SQLQueryParams{
		Intent:        models.IntentTimeAnalysis,
		OriginalQuery: "orders from the last 30 days",
		TemporalInfo: models.TemporalInfo{
			HasTimeConstraint: true,
			RelativeTime:      &models.RelativeTime{Days: &days},
		},
		Limit:     200,
		SortOrder: "DESC",
	}, fixedNow())

	assert.Equal(t,
		"SELECT * FROM orders WHERE order_date >= $1 ORDER BY order_date DESC LIMIT 200",
		stmt.SQL)
	assert.Equal(t, []interface{}{fixedNow().AddDate(0, 0, -30)}, stmt.Args)
}

func TestBuildStatement_CurrentMonth(t *testing.T) {
	months := 0
	stmt := buildStatement(&models.SQLQueryParams{
		Intent:        models.IntentTimeAnalysis,
		OriginalQuery: "employees hired this month",
		TemporalInfo: models.TemporalInfo{
			HasTimeConstraint: true,
			RelativeTime:      &models.RelativeTime{Months: &months},
		},
		Limit:     200,
		SortOrder: "DESC",
	}, fixedNow())

	assert.Contains(t, stmt.SQL, "EXTRACT(MONTH FROM hire_date) = EXTRACT(MONTH FROM CURRENT_DATE)")
	assert.Contains(t, stmt.SQL, "EXTRACT(YEAR FROM hire_date) = EXTRACT(YEAR FROM CURRENT_DATE)")
	assert.Contains(t, stmt.SQL, "users.is_active = true")
}

func TestConvertFilter_Operators(t *testing.T) {
	tests := []struct {
		name      string
		filter    models.Filter
		condition string
		args      []interface{}
	}{
		{
			name:      "equality",
			filter:    models.Filter{Field: "department", Operator: models.OpEqual, Value: "Engineering"},
			condition: "department = $1",
			args:      []interface{}{"Engineering"},
		},
		{
			name:      "contains becomes ILIKE",
			filter:    models.Filter{Field: "name", Operator: models.OpContains, Value: "desk"},
			condition: "name ILIKE $1",
			args:      []interface{}{"%desk%"},
		},
		{
			name:      "is_not negates",
			filter:    models.Filter{Field: "status", Operator: models.OpIsNot, Value: "pending"},
			condition: "status != $1",
			args:      []interface{}{"pending"},
		},
		{
			name:      "unknown operator dropped",
			filter:    models.Filter{Field: "name", Operator: "regex", Value: ".*"},
			condition: "",
		},
		{
			name:      "between with wrong arity dropped",
			filter:    models.Filter{Field: "price", Operator: models.OpBetween, Value: []interface{}{10, 20, 30}},
			condition: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args []interface{}
			assert.Equal(t, tt.condition, convertFilter(tt.filter, &args))
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestBuildStatement_ClauseOrdering(t *testing.T) {
	days := -7
	stmt := buildStatement(&models.SQLQueryParams{
		Intent:        models.IntentFilterData,
		OriginalQuery: "recent expensive products",
		Filters: []models.Filter{
			{Field: "price", Operator: models.OpGreater, Value: 100},
		},
		Aggregations: []models.Aggregation{{Type: models.AggGroupBy, Field: "category"}},
		TemporalInfo: models.TemporalInfo{
			HasTimeConstraint: true,
			RelativeTime:      &models.RelativeTime{Days: &days},
		},
		Limit:     100,
		SortOrder: "DESC",
	}, fixedNow())

	fromIdx := strings.Index(stmt.SQL, "FROM")
	whereIdx := strings.Index(stmt.SQL, "WHERE")
	groupIdx := strings.Index(stmt.SQL, "GROUP BY")
	orderIdx := strings.Index(stmt.SQL, "ORDER BY")
	limitIdx := strings.Index(stmt.SQL, "LIMIT")

	assert.True(t, strings.HasPrefix(stmt.SQL, "SELECT"))
	assert.Greater(t, whereIdx, fromIdx)
	assert.Greater(t, groupIdx, whereIdx)
	assert.Greater(t, orderIdx, groupIdx)
	assert.Greater(t, limitIdx, orderIdx)
	assert.True(t, strings.HasSuffix(stmt.SQL, "LIMIT 100"))
}
