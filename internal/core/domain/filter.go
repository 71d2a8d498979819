package domain

import (
	"strconv"
	"strings"
)

// Index metadata field names. Ingestion writes these exact keys and the
// filter compiler references them; they must stay in lock step.
const (
	FieldTitle      = "title"
	FieldCompany    = "company"
	FieldLocation   = "location"
	FieldExperience = "experience"
	FieldWorkType   = "work_type"
)

// FilterOp is a hard filter operator. Only equality and set membership
// exist; hard filters never express OR or negation.
type FilterOp string

const (
	FilterEQ FilterOp = "eq"
	FilterIN FilterOp = "in"
)

// FilterClause is one hard constraint on an index metadata field. Value is
// set for EQ, Values for IN. A clause is never built with an empty value or
// an empty value set.
type FilterClause struct {
	Field  string
	Op     FilterOp
	Value  string
	Values []string
}

// EQClause builds an equality clause.
func EQClause(field, value string) FilterClause {
	return FilterClause{Field: field, Op: FilterEQ, Value: value}
}

// INClause builds a set membership clause. The given order is preserved.
func INClause(field string, values []string) FilterClause {
	return FilterClause{Field: field, Op: FilterIN, Values: values}
}

// FilterExpression is the conjunction of zero or more clauses. Zero clauses
// means match everything.
type FilterExpression struct {
	Clauses []FilterClause
}

// IsEmpty reports whether the expression constrains nothing.
func (f FilterExpression) IsEmpty() bool {
	return len(f.Clauses) == 0
}

// String renders a canonical form, stable for identical inputs.
func (f FilterExpression) String() string {
	if f.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, len(f.Clauses))
	for _, c := range f.Clauses {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " AND ")
}

func (c FilterClause) String() string {
	if c.Op == FilterIN {
		quoted := make([]string, 0, len(c.Values))
		for _, v := range c.Values {
			quoted = append(quoted, strconv.Quote(v))
		}
		return c.Field + " in [" + strings.Join(quoted, ", ") + "]"
	}
	return c.Field + " eq " + strconv.Quote(c.Value)
}
