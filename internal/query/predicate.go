// Package query turns contact filter criteria into a backend-neutral
// predicate tree that each store renders into its own query language.
package query

import (
	"strings"

	"github.com/octobees/contacts-manager/api/internal/dto"
)

// Field names a searchable contact attribute, using the document key.
type Field string

const (
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
	FieldEmail     Field = "email"
	FieldCompany   Field = "company"
	FieldTags      Field = "tags"
	FieldStatus    Field = "status"
)

// SearchFields are matched by free-text search.
var SearchFields = []Field{FieldFirstName, FieldLastName, FieldEmail, FieldCompany}

// Op identifies a predicate node kind.
type Op int

const (
	OpAnd Op = iota
	OpOr
	// OpContains is a case-insensitive literal substring match.
	OpContains
	// OpAnyOf matches when an array field shares at least one value.
	OpAnyOf
	// OpEquals is an exact scalar match.
	OpEquals
)

// Predicate is a node of the filter expression tree.
type Predicate struct {
	Op       Op
	Field    Field
	Value    string
	Values   []string
	Children []Predicate
}

// All is the always-true predicate.
func All() Predicate { return Predicate{Op: OpAnd} }

// And combines predicates so that all must hold.
func And(children ...Predicate) Predicate { return Predicate{Op: OpAnd, Children: children} }

// Or combines predicates so that at least one must hold.
func Or(children ...Predicate) Predicate { return Predicate{Op: OpOr, Children: children} }

// Contains matches field values containing text, ignoring case.
func Contains(field Field, text string) Predicate {
	return Predicate{Op: OpContains, Field: field, Value: text}
}

// AnyOf matches array fields intersecting values.
func AnyOf(field Field, values ...string) Predicate {
	return Predicate{Op: OpAnyOf, Field: field, Values: values}
}

// Equals matches field values equal to value.
func Equals(field Field, value string) Predicate {
	return Predicate{Op: OpEquals, Field: field, Value: value}
}

// IsAll reports whether p places no constraint on the result.
func (p Predicate) IsAll() bool {
	return p.Op == OpAnd && len(p.Children) == 0
}

// Build converts filter criteria into a predicate. Each non-empty dimension
// contributes one conjunct; an empty filter yields All.
func Build(filter dto.ContactFilter) Predicate {
	var conjuncts []Predicate

	if search := strings.TrimSpace(filter.Search); search != "" {
		alternatives := make([]Predicate, 0, len(SearchFields))
		for _, field := range SearchFields {
			alternatives = append(alternatives, Contains(field, search))
		}
		conjuncts = append(conjuncts, Or(alternatives...))
	}

	if tags := cleanTags(filter.Tags); len(tags) > 0 {
		conjuncts = append(conjuncts, AnyOf(FieldTags, tags...))
	}

	if status := strings.TrimSpace(filter.Status); status != "" {
		conjuncts = append(conjuncts, Equals(FieldStatus, status))
	}

	return And(conjuncts...)
}

func cleanTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	cleaned := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		cleaned = append(cleaned, tag)
	}
	return cleaned
}

// EscapeLike escapes LIKE/ILIKE wildcards so text is matched literally when
// used with ESCAPE '\'.
func EscapeLike(text string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(text)
}
