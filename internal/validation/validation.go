package validation

import (
	"regexp"
	"sort"
	"strings"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

func (v Violations) Add(field, code string) { v[field] = code }

// Join flattens violations into one human-readable message, fields sorted
// for deterministic output.
func (v Violations) Join() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return strings.Join(parts, "; ")
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MinLen(field, value string, n int, v Violations) {
	if len(strings.TrimSpace(value)) < n {
		v[field] = "too_short"
	}
}

func MaxLen(field, value string, n int, v Violations) {
	if len(value) > n {
		v[field] = "too_long"
	}
}

func MinInt(field string, val, minVal int, v Violations) {
	if val < minVal {
		v[field] = "too_small"
	}
}

func NonNegative(field string, val float64, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

// Password policy: 6-25 chars, at least one letter and one digit, limited
// symbol set, no spaces.
var passwordRegex = regexp.MustCompile(`^[A-Za-z\d!@#$%^&*()_+\-=]{6,25}$`)

func Password(field, value string, v Violations) {
	if !passwordRegex.MatchString(value) ||
		!strings.ContainsAny(value, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ") ||
		!strings.ContainsAny(value, "0123456789") {
		v[field] = "must_contain_a_letter_and_a_digit_without_spaces"
	}
}
