// Package delimited stores repeating values in a single text column.
//
// Each list type keeps its elements as the canonical representation and
// derives the persisted text by joining them with Separator. Only an empty
// list serializes to NULL. Empty placeholders are kept at every position, so
// parallel lists stay aligned in the column.
package delimited

import (
	"fmt"
	"strings"
)

// Separator joins list elements in the persisted column.
const Separator = ";"

func join[T any](items []T, format func(T) string) *string {
	if len(items) == 0 {
		return nil
	}
	parts := make([]string, len(items))
	for i, v := range items {
		parts[i] = format(v)
	}
	s := strings.Join(parts, Separator)
	return &s
}

func split[T any](s *string, parse func(string) (T, error)) ([]T, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parts := strings.Split(*s, Separator)
	out := make([]T, len(parts))
	for i, p := range parts {
		v, err := parse(p)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func clone[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}

func at[T any](items []T, i int) T {
	var zero T
	if i < 0 || i >= len(items) {
		return zero
	}
	return items[i]
}

// scanText normalises the source values a driver hands to sql.Scanner.
func scanText(src any) (*string, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return &v, nil
	case []byte:
		s := string(v)
		return &s, nil
	default:
		return nil, fmt.Errorf("delimited: cannot scan %T", src)
	}
}
