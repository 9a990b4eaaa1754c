package filter

import (
	"fmt"
	"strings"
)

// sqlBuilder collects positional bind values while clauses render.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// SQL renders the query as a WHERE body, its bind values, and an ORDER BY clause.
// Placeholders start at $1. Null sort values go last in both directions and ties fall
// back to insertion order.
func (q Query) SQL() (where string, args []any, orderBy string) {
	b := &sqlBuilder{}

	whereParts := make([]string, 0, len(q.Clauses))
	for _, clause := range q.Clauses {
		whereParts = append(whereParts, clause.render(b))
	}

	const tieBreak = "created_at ASC, influencer_id ASC"
	orderBy = "ORDER BY " + tieBreak
	if q.Sort != nil {
		direction := "ASC"
		if q.Sort.Descending {
			direction = "DESC"
		}
		orderBy = fmt.Sprintf("ORDER BY %s %s NULLS LAST, %s", q.Sort.Field, direction, tieBreak)
	}

	return strings.Join(whereParts, " AND "), b.args, orderBy
}

func (c tenantClause) render(b *sqlBuilder) string {
	return "tenant_id = " + b.bind(c.tenantID)
}

func (c containsClause) render(b *sqlBuilder) string {
	placeholder := b.bind("%" + escapeLike(c.needle) + "%")
	parts := make([]string, 0, len(c.fields))
	for _, f := range c.fields {
		parts = append(parts, fmt.Sprintf(`LOWER(%s) LIKE %s ESCAPE '\'`, f.column, placeholder))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func (c equalsClause) render(b *sqlBuilder) string {
	return fmt.Sprintf("LOWER(TRIM(%s)) = %s", c.field.column, b.bind(strings.ToLower(c.value)))
}

func (c followersBound) render(b *sqlBuilder) string {
	return boundSQL("followers", c.lower, b.bind(c.bound))
}

func (c engagementBound) render(b *sqlBuilder) string {
	return boundSQL("engagement_rate", c.lower, b.bind(c.bound))
}

func boundSQL(column string, lower bool, placeholder string) string {
	op := "<="
	if lower {
		op = ">="
	}
	return fmt.Sprintf("(%s IS NULL OR %s %s %s)", column, column, op, placeholder)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
