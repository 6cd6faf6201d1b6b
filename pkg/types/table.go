package types

import (
	"slices"
	"strings"
)

// Table is the full record history in insertion order. Display ordering is
// computed on read and never changes the stored order.
type Table struct {
	Records []Record `json:"records"`
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{Records: []Record{}}
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Append adds r as the last row.
func (t *Table) Append(r Record) {
	t.Records = append(t.Records, r)
}

// Last returns the most recently appended record.
func (t *Table) Last() (Record, bool) {
	if len(t.Records) == 0 {
		return Record{}, false
	}
	return t.Records[len(t.Records)-1], true
}

// Clone returns a copy whose record slice can be appended to independently.
func (t *Table) Clone() *Table {
	return &Table{Records: slices.Clone(t.Records)}
}

// DescendingOrder returns record indexes newest first. Records sharing a
// timestamp keep reverse insertion order, so a later submission within the
// same minute is listed first.
func (t *Table) DescendingOrder() []int {
	idx := make([]int, len(t.Records))
	for i := range idx {
		idx[i] = len(idx) - 1 - i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return strings.Compare(t.Records[b].Timestamp, t.Records[a].Timestamp)
	})
	return idx
}

// SortedByTimestampDesc returns the records in DescendingOrder.
func (t *Table) SortedByTimestampDesc() []Record {
	out := make([]Record, 0, len(t.Records))
	for _, i := range t.DescendingOrder() {
		out = append(out, t.Records[i])
	}
	return out
}

// Filter selects records for display.
type Filter struct {
	Status    string // exact match, case-insensitive; empty matches all.
	Equipment string // substring match, case-insensitive; empty matches all.
}

// Match reports whether r satisfies every non-empty criterion.
func (f Filter) Match(r Record) bool {
	if f.Status != "" && !strings.EqualFold(f.Status, r.Status) {
		return false
	}
	if f.Equipment != "" && !strings.Contains(strings.ToUpper(r.Equipment), strings.ToUpper(f.Equipment)) {
		return false
	}
	return true
}

// Filter returns a table holding the matching records in insertion order.
func (t *Table) Filter(f Filter) *Table {
	out := NewTable()
	for _, r := range t.Records {
		if f.Match(r) {
			out.Append(r)
		}
	}
	return out
}
