package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/martijn/hookcmd/internal/api/util"
)

// datetimeFields defines fields that contain datetime values and need normalization
var datetimeFields = map[string]bool{
	"start_time": true,
	"end_time":   true,
	"created_at": true,
}

// normalizeDateTime parses user-supplied datetime strings into a single format
// so string comparison in SQLite behaves across the input shapes dashboards
// send ("2025-11-24T00:00", date only, RFC3339 with zone).
func normalizeDateTime(value string) string {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t.UTC().Format("2006-01-02 15:04:05")
		}
	}

	// If parsing fails, return original value
	return value
}

// BuildFilterClause builds a SQL WHERE clause from a QueryFilter. The column
// argument carries the (possibly table-qualified) column name; callers map the
// public field name to it before building.
func BuildFilterClause(f util.QueryFilter, column string) (string, []interface{}) {
	value := f.Value
	if datetimeFields[f.Field] {
		value = normalizeDateTime(value)
	}

	switch f.Operator {
	case util.OpEq:
		return fmt.Sprintf("%s = ?", column), []interface{}{value}
	case util.OpNe:
		return fmt.Sprintf("%s != ?", column), []interface{}{value}
	case util.OpGt:
		return fmt.Sprintf("%s > ?", column), []interface{}{value}
	case util.OpGte:
		return fmt.Sprintf("%s >= ?", column), []interface{}{value}
	case util.OpLt:
		return fmt.Sprintf("%s < ?", column), []interface{}{value}
	case util.OpLte:
		return fmt.Sprintf("%s <= ?", column), []interface{}{value}
	case util.OpIsNull:
		return fmt.Sprintf("%s IS NULL", column), nil
	case util.OpIsNotNull:
		return fmt.Sprintf("%s IS NOT NULL", column), nil
	default:
		return "", nil
	}
}

// ApplyFilters appends QueryFilters to a query and returns the modified query
// and args. columns maps public field names to table-qualified column names;
// filters on unmapped fields are skipped (validation happens at the handler).
func ApplyFilters(query string, args []interface{}, filters []util.QueryFilter, columns map[string]string) (string, []interface{}) {
	for _, f := range filters {
		column, ok := columns[f.Field]
		if !ok {
			continue
		}
		clause, filterArgs := BuildFilterClause(f, column)
		if clause != "" {
			query += " AND " + clause
			args = append(args, filterArgs...)
		}
	}
	return query, args
}

// ApplyOrdering appends OrderClauses to a query
func ApplyOrdering(query string, orders []util.OrderClause, columns map[string]string, defaultOrder string) string {
	if len(orders) == 0 {
		return query + " ORDER BY " + defaultOrder
	}

	orderClauses := make([]string, 0, len(orders))
	for _, o := range orders {
		column, ok := columns[o.Field]
		if !ok {
			continue
		}
		direction := "ASC"
		if o.Direction == util.OrderDesc {
			direction = "DESC"
		}
		orderClauses = append(orderClauses, fmt.Sprintf("%s %s", column, direction))
	}
	if len(orderClauses) == 0 {
		return query + " ORDER BY " + defaultOrder
	}
	return query + " ORDER BY " + strings.Join(orderClauses, ", ")
}

// ApplyPagination appends page/perPage to a query
func ApplyPagination(query string, args []interface{}, page, perPage int) (string, []interface{}) {
	if perPage > 0 {
		query += " LIMIT ?"
		args = append(args, perPage)

		if page > 1 {
			offset := (page - 1) * perPage
			query += " OFFSET ?"
			args = append(args, offset)
		}
	}
	return query, args
}
