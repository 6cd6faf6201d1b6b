package types

import (
	"strings"
	"time"
)

// Canonical column names, in storage order.
const (
	ColumnTimestamp  = "Timestamp"
	ColumnEquipment  = "Equipment"
	ColumnTechnician = "Technician"
	ColumnStage      = "Stage"
	ColumnReference  = "Reference"
	ColumnStatus     = "Status"
	ColumnRemarks    = "Remarks"
	ColumnPhoto      = "Photo"
)

// Columns is the canonical column set. Both the local store and the remote
// mirror serialize tables with exactly this header.
var Columns = []string{
	ColumnTimestamp,
	ColumnEquipment,
	ColumnTechnician,
	ColumnStage,
	ColumnReference,
	ColumnStatus,
	ColumnRemarks,
	ColumnPhoto,
}

// columnIndex maps the lower-cased column name to its canonical position.
var columnIndex = func() map[string]int {
	m := make(map[string]int, len(Columns))
	for i, c := range Columns {
		m[strings.ToLower(c)] = i
	}
	return m
}()

// canonicalPosition returns the canonical position of a header cell, or -1.
func canonicalPosition(name string) int {
	name = strings.TrimPrefix(name, "\ufeff")
	if i, ok := columnIndex[strings.ToLower(strings.TrimSpace(name))]; ok {
		return i
	}
	return -1
}

// Reconcile maps rows parsed under an arbitrary header onto the canonical
// column set. Unknown columns are dropped, a repeated known column keeps its
// first occurrence, and missing columns are filled with the empty string.
//
// A header that names no canonical column at all is taken to be the first
// data row of a headerless file, and every row is read positionally, but only
// when its first cell is a timestamp. Otherwise the header is dropped and
// nothing maps. Rows that map to no non-blank value are skipped.
func Reconcile(header []string, rows [][]string) *Table {
	t := NewTable()
	if len(header) == 0 && len(rows) == 0 {
		return t
	}

	// source[c] is the input column feeding canonical column c, or -1.
	source := make([]int, len(Columns))
	for i := range source {
		source[i] = -1
	}
	known := 0
	for i, h := range header {
		c := canonicalPosition(h)
		if c < 0 || source[c] >= 0 {
			continue
		}
		source[c] = i
		known++
	}

	if known == 0 && len(header) > 0 && isTimestamp(header[0]) {
		rows = append([][]string{header}, rows...)
		for i := range source {
			source[i] = i
		}
	}

	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		fields := make([]string, len(Columns))
		for c, i := range source {
			if i >= 0 && i < len(row) {
				fields[c] = row[i]
			}
		}
		if blankRow(fields) {
			continue
		}
		t.Append(RecordFromFields(fields))
	}
	return t
}

// isTimestamp reports whether cell holds a stored Timestamp or a bare date.
func isTimestamp(cell string) bool {
	cell = strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff"))
	for _, layout := range []string{TimestampLayout, time.DateOnly} {
		if _, err := time.Parse(layout, cell); err == nil {
			return true
		}
	}
	return false
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
