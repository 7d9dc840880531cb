package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Field is one component of a time pattern: either a wildcard that
// matches every value, or a finite set of permitted values.
//
// The zero value is a wildcard. Fields are immutable once constructed.
type Field struct {
	values []int // sorted, unique; nil means wildcard
}

// Any returns a wildcard field that matches every value.
func Any() Field {
	return Field{}
}

// On returns a field matching exactly the given values.
// Duplicates are removed and values are sorted; On() with no
// values yields a wildcard.
func On(values ...int) Field {
	if len(values) == 0 {
		return Field{}
	}
	seen := make(map[int]struct{}, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return Field{values: out}
}

// IsWildcard reports whether the field matches every value.
func (f Field) IsWildcard() bool {
	return len(f.values) == 0
}

// Matches reports whether v is permitted by the field.
func (f Field) Matches(v int) bool {
	if f.IsWildcard() {
		return true
	}
	i := sort.SearchInts(f.values, v)
	return i < len(f.values) && f.values[i] == v
}

// Equal reports whether two fields permit exactly the same values.
// A wildcard is only equal to another wildcard, even if a finite set
// happens to cover the full range.
func (f Field) Equal(other Field) bool {
	if f.IsWildcard() || other.IsWildcard() {
		return f.IsWildcard() && other.IsWildcard()
	}
	if len(f.values) != len(other.values) {
		return false
	}
	for i, v := range f.values {
		if other.values[i] != v {
			return false
		}
	}
	return true
}

// Values returns a copy of the permitted values, or nil for a wildcard.
func (f Field) Values() []int {
	if f.IsWildcard() {
		return nil
	}
	out := make([]int, len(f.values))
	copy(out, f.values)
	return out
}

// String renders the field as "{*}" for a wildcard or the sorted
// set of values, e.g. "{0 15 30 45}".
func (f Field) String() string {
	if f.IsWildcard() {
		return "{*}"
	}
	parts := make([]string, len(f.values))
	for i, v := range f.values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Pattern is a five-field cron-style time pattern. A pattern matches a
// given minute when every field matches the corresponding component of
// the local time.
//
// Weekday numbering runs Monday=0 through Sunday=6.
type Pattern struct {
	Minute  Field
	Hour    Field
	Day     Field
	Month   Field
	Weekday Field
}

// Daily returns a pattern that fires once a day at the given hour and
// minute, on any day.
func Daily(hour, minute int) Pattern {
	return Pattern{
		Minute: On(minute),
		Hour:   On(hour),
	}
}

// Matches reports whether the pattern matches the given time, evaluated
// in t's location. Seconds and finer are ignored.
func (p Pattern) Matches(t time.Time) bool {
	return p.Minute.Matches(t.Minute()) &&
		p.Hour.Matches(t.Hour()) &&
		p.Day.Matches(t.Day()) &&
		p.Month.Matches(int(t.Month())) &&
		p.Weekday.Matches(mondayWeekday(t))
}

// Equal reports whether two patterns permit exactly the same minutes.
func (p Pattern) Equal(other Pattern) bool {
	return p.Minute.Equal(other.Minute) &&
		p.Hour.Equal(other.Hour) &&
		p.Day.Equal(other.Day) &&
		p.Month.Equal(other.Month) &&
		p.Weekday.Equal(other.Weekday)
}

// String renders the pattern in field order: minute, hour, day, month, weekday.
func (p Pattern) String() string {
	return fmt.Sprintf("%s %s %s %s %s", p.Minute, p.Hour, p.Day, p.Month, p.Weekday)
}

// mondayWeekday converts Go's Sunday=0 weekday to Monday=0 numbering.
func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
