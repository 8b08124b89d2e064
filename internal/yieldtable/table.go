package yieldtable

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrNoEntry is returned when a table has nothing usable for the requested rate.
var ErrNoEntry = errors.New("no yield table entry")

// Entry holds the milling outcome for one extraction rate, as percentages of milled wheat.
type Entry struct {
	FlourPct     float64 `json:"un_miktari"`
	BranPct      float64 `json:"kepek"`
	SecondaryPct float64 `json:"bonkalit"`
}

// Mode selects how a rate missing from the table is matched.
type Mode string

const (
	ModeExact   Mode = "exact"
	ModeNearest Mode = "nearest"
	ModeLinear  Mode = "linear"
)

// ParseMode accepts "exact", "nearest" or "linear", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeExact, ModeNearest, ModeLinear:
		return m, nil
	}
	return "", fmt.Errorf("unknown lookup mode %q", s)
}

// Table is an immutable yield reference table keyed by integer extraction rate.
type Table struct {
	keys    []int
	entries map[int]Entry
}

// NewTable validates entries and builds a table.
func NewTable(entries map[int]Entry) (*Table, error) {
	t := &Table{entries: make(map[int]Entry, len(entries))}
	for rate, e := range entries {
		if rate <= 0 || rate > 100 {
			return nil, fmt.Errorf("rate %d: must be between 1 and 100", rate)
		}
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("rate %d: %w", rate, err)
		}
		t.keys = append(t.keys, rate)
		t.entries[rate] = e
	}
	sort.Ints(t.keys)
	return t, nil
}

func (e Entry) validate() error {
	for _, v := range []float64{e.FlourPct, e.BranPct, e.SecondaryPct} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
			return fmt.Errorf("percentages must be between 0 and 100, got %+v", e)
		}
	}
	if e.FlourPct+e.BranPct+e.SecondaryPct > 100+1e-9 {
		return fmt.Errorf("percentages add up to more than 100: %+v", e)
	}
	return nil
}

// Decode reads a JSON object keyed by rate ("70", "71", ...).
func Decode(r io.Reader) (*Table, error) {
	var raw map[string]Entry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode yield table: %w", err)
	}
	return fromStringKeys(raw)
}

func fromStringKeys(raw map[string]Entry) (*Table, error) {
	entries := make(map[int]Entry, len(raw))
	for k, e := range raw {
		rate, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("yield table key %q is not an integer rate", k)
		}
		entries[rate] = e
	}
	return NewTable(entries)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.keys)
}

// Rates returns the table keys in ascending order.
func (t *Table) Rates() []int {
	out := make([]int, len(t.keys))
	copy(out, t.keys)
	return out
}

// Entry returns the entry stored for rate.
func (t *Table) Entry(rate int) (Entry, bool) {
	e, ok := t.entries[rate]
	return e, ok
}

func (t *Table) MarshalJSON() ([]byte, error) {
	out := make(map[string]Entry, len(t.entries))
	for rate, e := range t.entries {
		out[strconv.Itoa(rate)] = e
	}
	return json.Marshal(out)
}

// Lookup finds the entry for rate under mode. Nearest ties go to the lower key; linear
// interpolates between adjacent keys and clamps to the first or last key outside the range.
func (t *Table) Lookup(rate float64, mode Mode) (Entry, error) {
	if len(t.keys) == 0 {
		return Entry{}, ErrNoEntry
	}

	if rate == math.Trunc(rate) {
		if e, ok := t.entries[int(rate)]; ok {
			return e, nil
		}
	}

	switch mode {
	case ModeNearest:
		return t.nearest(rate), nil
	case ModeLinear:
		return t.interpolate(rate), nil
	default:
		return Entry{}, fmt.Errorf("rate %v: %w", rate, ErrNoEntry)
	}
}

func (t *Table) nearest(rate float64) Entry {
	best := t.keys[0]
	for _, k := range t.keys[1:] {
		if math.Abs(float64(k)-rate) < math.Abs(float64(best)-rate) {
			best = k
		}
	}
	return t.entries[best]
}

func (t *Table) interpolate(rate float64) Entry {
	first, last := t.keys[0], t.keys[len(t.keys)-1]
	if rate <= float64(first) {
		return t.entries[first]
	}
	if rate >= float64(last) {
		return t.entries[last]
	}

	i := sort.Search(len(t.keys), func(i int) bool { return float64(t.keys[i]) >= rate })
	lo, hi := t.keys[i-1], t.keys[i]
	a, b := t.entries[lo], t.entries[hi]
	f := (rate - float64(lo)) / float64(hi-lo)

	return Entry{
		FlourPct:     a.FlourPct + (b.FlourPct-a.FlourPct)*f,
		BranPct:      a.BranPct + (b.BranPct-a.BranPct)*f,
		SecondaryPct: a.SecondaryPct + (b.SecondaryPct-a.SecondaryPct)*f,
	}
}
