package dto

import (
	"fmt"
	"maps"
	"reflect"
	"strings"
)

const (
	FilterOperatorEq        = "eq"
	FilterOperatorNotEq     = "not_eq"
	FilterOperatorLessEq    = "less_eq"
	FilterOperatorGreaterEq = "greater_eq"
	FilterOperatorIn        = "in"
	FilterOperatorNotIn     = "not_in"
)

const (
	FilterGroupOperatorAnd = "AND"
	FilterGroupOperatorOr  = "OR"
)

var comparisons = map[string]string{
	FilterOperatorEq:        "=",
	FilterOperatorNotEq:     "!=",
	FilterOperatorLessEq:    "<=",
	FilterOperatorGreaterEq: ">=",
}

// Clause renders a named-parameter SQL condition for sqlx.
type Clause interface {
	GetWhereClause() (string, map[string]any)
}

// Filter is one condition on a column. ArgName defaults to Field and must be unique within a
// query when the same column appears twice.
type Filter struct {
	ArgName  string
	Field    string
	Value    any
	Operator string `validate:"required,oneof=eq not_eq less_eq greater_eq in not_in"`
	Table    string
}

func (f Filter) column() string {
	if f.Table == "" {
		return f.Field
	}

	return f.Table + "." + f.Field
}

func (f Filter) argName() string {
	if f.ArgName == "" {
		return f.Field
	}

	return f.ArgName
}

// GetWhereClause returns an empty condition for unknown operators.
func (f Filter) GetWhereClause() (string, map[string]any) {
	if op, ok := comparisons[f.Operator]; ok {
		return fmt.Sprintf("%s %s :%s", f.column(), op, f.argName()), map[string]any{f.argName(): f.Value}
	}

	switch f.Operator {
	case FilterOperatorIn:
		return f.membership("IN", "FALSE")
	case FilterOperatorNotIn:
		return f.membership("NOT IN", "TRUE")
	default:
		return "", map[string]any{}
	}
}

// membership expands a slice into one bind parameter per element. An empty set renders as
// the constant condition given by whenEmpty.
func (f Filter) membership(keyword, whenEmpty string) (string, map[string]any) {
	args := map[string]any{}

	values := reflect.ValueOf(f.Value)
	if values.Kind() != reflect.Slice && values.Kind() != reflect.Array {
		values = reflect.ValueOf([]any{f.Value})
	}

	if values.Len() == 0 {
		return whenEmpty, args
	}

	names := make([]string, values.Len())

	for idx := range values.Len() {
		name := fmt.Sprintf("%s_%d", f.argName(), idx)
		args[name] = values.Index(idx).Interface()
		names[idx] = ":" + name
	}

	return fmt.Sprintf("%s %s (%s)", f.column(), keyword, strings.Join(names, ", ")), args
}

// FilterGroup joins Filters and nested FilterGroups with Operator.
type FilterGroup struct {
	Filters  []any
	Operator string
}

func (f FilterGroup) GetWhereClause() (string, map[string]any) {
	args := map[string]any{}
	conditions := make([]string, 0, len(f.Filters))

	for _, item := range f.Filters {
		clause, ok := item.(Clause)
		if !ok {
			continue
		}

		where, arg := clause.GetWhereClause()
		if where == "" {
			continue
		}

		conditions = append(conditions, where)
		maps.Copy(args, arg)
	}

	if len(conditions) == 0 {
		return "", args
	}

	return "(" + strings.Join(conditions, " "+f.Operator+" ") + ")", args
}

// And groups filters with AND, dropping nil entries so optional criteria can be passed inline.
func And(filters ...any) FilterGroup {
	return FilterGroup{Filters: compact(filters), Operator: FilterGroupOperatorAnd}
}

func Or(filters ...any) FilterGroup {
	return FilterGroup{Filters: compact(filters), Operator: FilterGroupOperatorOr}
}

// Overlaps matches rows whose inclusive [startField, endField] interval intersects [start, end]:
// startField <= end AND endField >= start.
func Overlaps(table, startField, endField string, start, end any) FilterGroup {
	return And(
		Filter{ArgName: "overlap_end", Field: startField, Table: table, Value: end, Operator: FilterOperatorLessEq},
		Filter{ArgName: "overlap_start", Field: endField, Table: table, Value: start, Operator: FilterOperatorGreaterEq},
	)
}

func compact(filters []any) []any {
	out := make([]any, 0, len(filters))

	for _, filter := range filters {
		switch fill := filter.(type) {
		case nil:
		case FilterGroup:
			if len(fill.Filters) > 0 {
				out = append(out, fill)
			}
		default:
			out = append(out, fill)
		}
	}

	return out
}
