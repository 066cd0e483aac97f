package validation

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Violations maps a field name to a message.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func Length(field, value string, minLen, maxLen int, v Violations) {
	n := utf8.RuneCountInString(value)
	if n < minLen || n > maxLen {
		v[field] = "length_out_of_range"
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "invalid_choice"
}

func Equal(field, a, b string, v Violations) {
	if a != b {
		v[field] = "mismatch"
	}
}

// Date parses value with the first matching layout. Empty input is reported as required.
func Date(field, value string, v Violations, layouts ...string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		v[field] = "required"
		return time.Time{}
	}
	if len(layouts) == 0 {
		layouts = []string{"2006-01-02"}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	v[field] = "invalid_date"
	return time.Time{}
}
