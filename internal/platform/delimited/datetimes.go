package delimited

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// DateTimeLayout is the element format of a persisted DateTimes column.
const DateTimeLayout = time.RFC3339Nano

// DateTimes is an immutable list of UTC instants. The zero time is the
// empty placeholder and is persisted as an empty element.
type DateTimes struct {
	items []time.Time
}

func NewDateTimes(items ...time.Time) DateTimes {
	out := clone(items)
	for i := range out {
		if !out[i].IsZero() {
			out[i] = out[i].UTC()
		}
	}
	return DateTimes{items: out}
}

func ParseDateTimes(s *string) (DateTimes, error) {
	items, err := split(s, func(p string) (time.Time, error) {
		if p == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse(DateTimeLayout, p)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	})
	if err != nil {
		return DateTimes{}, err
	}
	return DateTimes{items: items}, nil
}

func (l DateTimes) Items() []time.Time { return clone(l.items) }

func (l DateTimes) Len() int { return len(l.items) }

func (l DateTimes) At(i int) time.Time { return at(l.items, i) }

func (l DateTimes) Append(v ...time.Time) DateTimes {
	return NewDateTimes(append(l.Items(), v...)...)
}

func (l DateTimes) Present() bool { return len(l.items) > 0 }

func (l DateTimes) Serialize() *string {
	return join(l.items, formatDateTime)
}

func (l DateTimes) Value() (driver.Value, error) {
	if s := l.Serialize(); s != nil {
		return *s, nil
	}
	return nil, nil
}

func (l *DateTimes) Scan(src any) error {
	s, err := scanText(src)
	if err != nil {
		return err
	}
	v, err := ParseDateTimes(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

func (l DateTimes) MarshalJSON() ([]byte, error) {
	out := make([]string, len(l.items))
	for i, t := range l.items {
		out[i] = formatDateTime(t)
	}
	return json.Marshal(out)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateTimeLayout)
}
