package domain

import (
	"strings"
)

// Attr is a single (name, value) attribute pair.
type Attr struct {
	Name  string
	Value string
}

// AttrList is an ordered attribute set describing one sound event.
// Names need not be unique; whether a later entry overrides an earlier one
// is decided by the backend. Lists are built fresh per operation and handed
// to exactly one backend call.
type AttrList struct {
	attrs []Attr
}

// NewAttrList creates an empty attribute list.
func NewAttrList() *AttrList {
	return &AttrList{}
}

// AttrListFromPairs builds an attribute list from an alternating sequence of
// name, value strings. An odd number of arguments means a trailing name has
// no value and fails with ErrInvalidArgument before any pair is committed
// to a backend. Pairs preceding a bad insertion are kept; processing stops
// at the first failure, matching the ordered, fail-fast contract of the
// pair form.
func AttrListFromPairs(pairs ...string) (*AttrList, error) {
	if len(pairs)%2 != 0 {
		return nil, NewInvalidArgumentError("attribute name without a value")
	}

	list := NewAttrList()

	for i := 0; i < len(pairs); i += 2 {
		if err := list.Set(pairs[i], pairs[i+1]); err != nil {
			return nil, err
		}
	}

	return list, nil
}

// AttrListFromMap builds an attribute list from a string map. Map iteration
// order is not defined, so the resulting order is arbitrary; entries are
// inserted independently and insertion failures are not distinguished
// per key. The caller only sees aggregate success or failure, deliberately
// looser than the pair form.
func AttrListFromMap(attrs map[string]string) (*AttrList, error) {
	list := NewAttrList()

	var failed Code

	for name, value := range attrs {
		if err := list.Set(name, value); err != nil {
			failed = CodeFromError(err)
		}
	}

	if !failed.IsSuccess() {
		return nil, NewMarshalError(failed)
	}

	return list, nil
}

// Set appends an attribute pair to the list. Insertion fails with a
// MarshalError when the name is empty or not a valid dotted key.
func (l *AttrList) Set(name, value string) error {
	if !validAttrName(name) {
		return NewMarshalError(CodeInvalid)
	}

	l.attrs = append(l.attrs, Attr{Name: name, Value: value})

	return nil
}

// Get returns the value of the last entry with the given name.
func (l *AttrList) Get(name string) (string, bool) {
	for i := len(l.attrs) - 1; i >= 0; i-- {
		if l.attrs[i].Name == name {
			return l.attrs[i].Value, true
		}
	}

	return "", false
}

// Len returns the number of entries in the list.
func (l *AttrList) Len() int {
	return len(l.attrs)
}

// Attrs returns the entries in insertion order. The returned slice is a
// copy; mutating it does not affect the list.
func (l *AttrList) Attrs() []Attr {
	out := make([]Attr, len(l.attrs))
	copy(out, l.attrs)

	return out
}

// Merge appends every entry of other to the list, preserving order.
// Entries with names already present are appended, not replaced; last
// write wins on lookup.
func (l *AttrList) Merge(other *AttrList) {
	if other == nil {
		return
	}

	l.attrs = append(l.attrs, other.attrs...)
}

// Clone returns an independent copy of the list.
func (l *AttrList) Clone() *AttrList {
	return &AttrList{attrs: l.Attrs()}
}

// validAttrName reports whether name is acceptable as an attribute key.
// Keys are non-empty, contain no whitespace, and never start or end with
// a dot.
func validAttrName(name string) bool {
	if name == "" {
		return false
	}

	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}

	return !strings.ContainsAny(name, " \t\n")
}
