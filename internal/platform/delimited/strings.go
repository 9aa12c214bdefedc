package delimited

import (
	"database/sql/driver"
	"encoding/json"
)

// Strings is an immutable list of text values.
type Strings struct {
	items []string
}

func NewStrings(items ...string) Strings {
	return Strings{items: clone(items)}
}

// ParseStrings splits a persisted column. NULL and "" yield an empty list.
func ParseStrings(s *string) Strings {
	items, _ := split(s, func(p string) (string, error) { return p, nil })
	return Strings{items: items}
}

func (l Strings) Items() []string { return clone(l.items) }

func (l Strings) Len() int { return len(l.items) }

// At returns element i, or the empty placeholder when i is out of range.
func (l Strings) At(i int) string { return at(l.items, i) }

func (l Strings) Append(v ...string) Strings {
	items := make([]string, 0, len(l.items)+len(v))
	items = append(items, l.items...)
	items = append(items, v...)
	return Strings{items: items}
}

// Present reports whether the list serializes to a non-NULL column.
func (l Strings) Present() bool { return len(l.items) > 0 }

func (l Strings) Serialize() *string {
	return join(l.items, func(s string) string { return s })
}

func (l Strings) Value() (driver.Value, error) {
	if s := l.Serialize(); s != nil {
		return *s, nil
	}
	return nil, nil
}

func (l *Strings) Scan(src any) error {
	s, err := scanText(src)
	if err != nil {
		return err
	}
	*l = ParseStrings(s)
	return nil
}

func (l Strings) MarshalJSON() ([]byte, error) {
	if l.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}
