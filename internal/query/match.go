package query

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/octobees/contacts-manager/api/internal/entity"
)

// Match evaluates p against a contact in memory.
func Match(p Predicate, contact *entity.Contact) bool {
	switch p.Op {
	case OpAnd:
		for _, child := range p.Children {
			if !Match(child, contact) {
				return false
			}
		}
		return true
	case OpOr:
		for _, child := range p.Children {
			if Match(child, contact) {
				return true
			}
		}
		return false
	case OpContains:
		folder := cases.Fold()
		return strings.Contains(folder.String(scalarValue(contact, p.Field)), folder.String(p.Value))
	case OpAnyOf:
		values := arrayValue(contact, p.Field)
		for _, want := range p.Values {
			if slices.Contains(values, want) {
				return true
			}
		}
		return false
	case OpEquals:
		return scalarValue(contact, p.Field) == p.Value
	default:
		return false
	}
}

func scalarValue(contact *entity.Contact, field Field) string {
	switch field {
	case FieldFirstName:
		return contact.FirstName
	case FieldLastName:
		return contact.LastName
	case FieldEmail:
		return contact.Email
	case FieldCompany:
		return contact.Company
	case FieldStatus:
		return string(contact.Status)
	default:
		return ""
	}
}

func arrayValue(contact *entity.Contact, field Field) []string {
	if field == FieldTags {
		return contact.Tags
	}
	return nil
}
