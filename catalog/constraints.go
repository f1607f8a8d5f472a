// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kinograph/kinograph/session"
)

// yearOps whitelists the comparison operators accepted in year
// constraints. Anything else is rejected before it reaches SQL.
var yearOps = map[string]struct{}{
	">": {}, "<": {}, ">=": {}, "<=": {}, "=": {},
}

// constraintClauses translates session constraints and negations into
// parameterized WHERE clauses over the movies table bound as alias.
// All clauses combine with AND. A movie with an unknown year fails any
// year constraint; an unrated movie fails a minimum-rating constraint.
func constraintClauses(alias string, cons session.Constraints, negs []session.PropertyRef) ([]string, []interface{}, error) {
	var clauses []string
	var args []interface{}

	if cons.Year != nil {
		if _, ok := yearOps[cons.Year.Op]; !ok {
			return nil, nil, fmt.Errorf("invalid year operator %q", cons.Year.Op)
		}
		clauses = append(clauses,
			fmt.Sprintf("(%s.year IS NOT NULL AND %s.year %s ?)", alias, alias, cons.Year.Op))
		args = append(args, cons.Year.Year)
	}

	if cons.YearRange != nil {
		clauses = append(clauses,
			fmt.Sprintf("(%s.year IS NOT NULL AND %s.year >= ? AND %s.year <= ?)", alias, alias, alias))
		args = append(args, cons.YearRange.From, cons.YearRange.To)
	}

	if cons.Language != "" {
		clauses = append(clauses, fmt.Sprintf("%s.language = ?", alias))
		args = append(args, cons.Language)
	}

	if cons.MinRating > 0 {
		clauses = append(clauses, fmt.Sprintf("%s.rating >= ?", alias))
		args = append(args, cons.MinRating)
	}

	for _, neg := range negs {
		clauses = append(clauses, fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM movie_properties np WHERE np.movie_id = %s.id AND np.property = ? AND np.value = ?)",
			alias))
		args = append(args, neg.Property, neg.Value)
	}

	return clauses, args, nil
}

// placeholders returns n comma-separated ? markers.
func placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = "?"
	}
	return strings.Join(marks, ", ")
}

// sortedIDs flattens a set into a sorted slice for deterministic
// parameter binding.
func sortedIDs(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// appendIDs appends string IDs to an args slice.
func appendIDs(args []interface{}, ids []string) []interface{} {
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}
