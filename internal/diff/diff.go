// Package diff computes field-level change descriptions between two snapshots of a record.
//
// Every entity type is described by an ordered table of Field descriptors; the order of the
// table is the order in which changes are reported.
package diff

import (
	"fmt"
	"strconv"
	"time"
)

const emptyValue = "(empty)"

// DateLayout is used when formatting date fields in change descriptions.
const DateLayout = "2006-01-02"

// Field describes one comparable attribute of T.
type Field[T any] struct {
	Name  string
	Label string

	Equal  func(a, b *T) bool
	Format func(*T) string
	Copy   func(dst, src *T)

	// Attachment fields follow the upload rule: a submitted value replaces the stored one,
	// an absent submission keeps a stored value and otherwise clears the field.
	Attachment bool
	present    func(*T) bool
	clear      func(*T)
}

// Describe renders the standard change description.
func Describe(label, from, to string) string {
	return fmt.Sprintf("%s changed from %s to %s", label, from, to)
}

// Apply compares submitted against working field by field, copies every differing value into
// working and returns one description per change in table order.
func Apply[T any](working, submitted *T, fields []Field[T]) []string {
	var changes []string
	for _, f := range fields {
		if f.Attachment {
			switch {
			case f.present(submitted):
				if !f.Equal(working, submitted) {
					changes = append(changes, Describe(f.Label, f.Format(working), f.Format(submitted)))
					f.Copy(working, submitted)
				}
			case f.present(working):
				// nothing uploaded, keep the stored reference
			default:
				f.clear(working)
			}
			continue
		}

		if f.Equal(working, submitted) {
			continue
		}
		changes = append(changes, Describe(f.Label, f.Format(working), f.Format(submitted)))
		f.Copy(working, submitted)
	}
	return changes
}

// Diff returns the changes that Apply would report, leaving both snapshots untouched.
func Diff[T any](old, submitted *T, fields []Field[T]) []string {
	working := *old
	return Apply(&working, submitted, fields)
}

// String builds a descriptor for a plain text attribute. Comparison is exact.
func String[T any](name, label string, get func(*T) *string) Field[T] {
	return Field[T]{
		Name:   name,
		Label:  label,
		Equal:  func(a, b *T) bool { return *get(a) == *get(b) },
		Format: func(r *T) string { return formatString(*get(r)) },
		Copy:   func(dst, src *T) { *get(dst) = *get(src) },
	}
}

// Date builds a descriptor for a calendar date. Two values are equal when they fall on the
// same year, month and day regardless of time of day or location.
func Date[T any](name, label string, get func(*T) *time.Time) Field[T] {
	return Field[T]{
		Name:  name,
		Label: label,
		Equal: func(a, b *T) bool { return sameDay(*get(a), *get(b)) },
		Format: func(r *T) string {
			t := *get(r)
			if t.IsZero() {
				return emptyValue
			}
			return t.Format(DateLayout)
		},
		Copy: func(dst, src *T) { *get(dst) = *get(src) },
	}
}

// OptionalID builds a descriptor for a nullable numeric reference.
func OptionalID[T any](name, label string, get func(*T) **uint) Field[T] {
	return Field[T]{
		Name:  name,
		Label: label,
		Equal: func(a, b *T) bool {
			x, y := *get(a), *get(b)
			if x == nil || y == nil {
				return x == nil && y == nil
			}
			return *x == *y
		},
		Format: func(r *T) string {
			v := *get(r)
			if v == nil {
				return emptyValue
			}
			return strconv.FormatUint(uint64(*v), 10)
		},
		Copy: func(dst, src *T) {
			v := *get(src)
			if v == nil {
				*get(dst) = nil
				return
			}
			id := *v
			*get(dst) = &id
		},
	}
}

// Attachment builds a descriptor for a stored file reference.
func Attachment[T any](name, label string, get func(*T) *string) Field[T] {
	f := String(name, label, get)
	f.Attachment = true
	f.present = func(r *T) bool { return *get(r) != "" }
	f.clear = func(r *T) { *get(r) = "" }
	return f
}

func formatString(s string) string {
	if s == "" {
		return emptyValue
	}
	return s
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() == b.IsZero()
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
