package usecase

import "github.com/abelyaev/cv-match/internal/core/domain"

// compileFilter turns a sanitized Intent and a location expansion into the
// hard filter expression. Clause order is fixed: experience, work type,
// location. Title and company never become clauses; they only weight the
// query string. Compilation is pure, so identical inputs serialize byte for
// byte identically.
func compileFilter(intent domain.Intent, resolvedLocations []string) domain.FilterExpression {
	var expr domain.FilterExpression

	if intent.Experience != nil {
		expr.Clauses = append(expr.Clauses, domain.EQClause(domain.FieldExperience, *intent.Experience))
	}
	if intent.WorkType != nil {
		expr.Clauses = append(expr.Clauses, domain.EQClause(domain.FieldWorkType, *intent.WorkType))
	}
	switch {
	case len(resolvedLocations) > 0:
		expr.Clauses = append(expr.Clauses, domain.INClause(domain.FieldLocation, resolvedLocations))
	case intent.Location != nil:
		// Nothing in the vocabulary matched; fall back to the verbatim
		// stated value so the constraint still applies.
		expr.Clauses = append(expr.Clauses, domain.EQClause(domain.FieldLocation, *intent.Location))
	}

	return expr
}
