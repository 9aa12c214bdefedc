package delimited

import (
	"database/sql/driver"
	"encoding/json"
	"strconv"
	"strings"
)

// Decimals is an immutable list of decimal measurements.
type Decimals struct {
	items []float64
}

func NewDecimals(items ...float64) Decimals {
	return Decimals{items: clone(items)}
}

// ParseDecimals splits a persisted column. NULL and "" yield an empty list
// rather than a list holding one unparsable element.
func ParseDecimals(s *string) (Decimals, error) {
	items, err := split(s, func(p string) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(p), 64)
	})
	if err != nil {
		return Decimals{}, err
	}
	return Decimals{items: items}, nil
}

func (l Decimals) Items() []float64 { return clone(l.items) }

func (l Decimals) Len() int { return len(l.items) }

func (l Decimals) At(i int) float64 { return at(l.items, i) }

func (l Decimals) Append(v ...float64) Decimals {
	items := make([]float64, 0, len(l.items)+len(v))
	items = append(items, l.items...)
	items = append(items, v...)
	return Decimals{items: items}
}

func (l Decimals) Present() bool { return len(l.items) > 0 }

func (l Decimals) Serialize() *string {
	return join(l.items, formatDecimal)
}

func (l Decimals) Value() (driver.Value, error) {
	if s := l.Serialize(); s != nil {
		return *s, nil
	}
	return nil, nil
}

func (l *Decimals) Scan(src any) error {
	s, err := scanText(src)
	if err != nil {
		return err
	}
	v, err := ParseDecimals(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

func (l Decimals) MarshalJSON() ([]byte, error) {
	if l.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Ints is an immutable list of integers.
type Ints struct {
	items []int
}

func NewInts(items ...int) Ints {
	return Ints{items: clone(items)}
}

func ParseInts(s *string) (Ints, error) {
	items, err := split(s, func(p string) (int, error) {
		return strconv.Atoi(strings.TrimSpace(p))
	})
	if err != nil {
		return Ints{}, err
	}
	return Ints{items: items}, nil
}

func (l Ints) Items() []int { return clone(l.items) }

func (l Ints) Len() int { return len(l.items) }

func (l Ints) At(i int) int { return at(l.items, i) }

func (l Ints) Append(v ...int) Ints {
	items := make([]int, 0, len(l.items)+len(v))
	items = append(items, l.items...)
	items = append(items, v...)
	return Ints{items: items}
}

func (l Ints) Present() bool { return len(l.items) > 0 }

func (l Ints) Serialize() *string {
	return join(l.items, strconv.Itoa)
}

func (l Ints) Value() (driver.Value, error) {
	if s := l.Serialize(); s != nil {
		return *s, nil
	}
	return nil, nil
}

func (l *Ints) Scan(src any) error {
	s, err := scanText(src)
	if err != nil {
		return err
	}
	v, err := ParseInts(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

func (l Ints) MarshalJSON() ([]byte, error) {
	if l.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}
