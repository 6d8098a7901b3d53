package schema

import (
	"regexp"
	"slices"
)

// Reserved fields carried by every entity. Filters on them must use a date.
const (
	CreatedMomentField = "created_moment"
	DeletedMomentField = "deleted_moment"
)

// DatePattern matches YYYY-M?M-D?D with year 1000-9999, month 1-12, day 1-31.
var DatePattern = regexp.MustCompile(`^([1-9][0-9]{3})-(0?[1-9]|1[0-2])-(0?[1-9]|[12][0-9]|3[01])$`)

// IsReservedDateField reports whether name is one of the moment fields.
func IsReservedDateField(name string) bool {
	return name == CreatedMomentField || name == DeletedMomentField
}

// IsDate reports whether s is shaped like a calendar date. Day-of-month is not
// checked against the month.
func IsDate(s string) bool {
	return DatePattern.MatchString(s)
}

// AllowList answers whether a field may be used in a filter or an ordering.
// Compilers consult it; it is never part of a condition.
type AllowList interface {
	Filterable(field string) bool
	Orderable(field string) bool
}

// FieldSet is an ordered set of field names. The same set governs filtering
// and ordering.
type FieldSet struct {
	names []string
	index map[string]struct{}
}

var _ AllowList = FieldSet{}

// NewFieldSet builds a set from names, keeping the first occurrence of
// duplicates.
func NewFieldSet(names ...string) FieldSet {
	s := FieldSet{
		names: make([]string, 0, len(names)),
		index: make(map[string]struct{}, len(names)),
	}
	for _, n := range names {
		if _, ok := s.index[n]; ok {
			continue
		}
		s.index[n] = struct{}{}
		s.names = append(s.names, n)
	}
	return s
}

// Contains reports membership.
func (s FieldSet) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Names returns the members in insertion order.
func (s FieldSet) Names() []string {
	return slices.Clone(s.names)
}

// Len returns the number of members.
func (s FieldSet) Len() int {
	return len(s.names)
}

func (s FieldSet) Filterable(field string) bool {
	return s.Contains(field)
}

func (s FieldSet) Orderable(field string) bool {
	return s.Contains(field)
}
