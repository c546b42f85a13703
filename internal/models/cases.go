package models

import (
	"fmt"
	"strings"
)

// CaseTable is a column-oriented, read-only view of the case dataset. Every value is kept in
// its textual form; typed access (cluster ids) is parsed by the engine on demand.
type CaseTable struct {
	names   []string
	columns map[string][]string
	rows    int
}

// Len returns the number of rows.
func (t *CaseTable) Len() int {
	if t == nil {
		return 0
	}
	return t.rows
}

// Columns returns the column names in load order.
func (t *CaseTable) Columns() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.names...)
}

// Column returns the values of a column. The slice is shared with the table and must not be
// modified by callers.
func (t *CaseTable) Column(name string) ([]string, bool) {
	if t == nil {
		return nil, false
	}
	values, ok := t.columns[name]
	return values, ok
}

// HasColumn reports whether the table carries the named column.
func (t *CaseTable) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// CaseTableBuilder accumulates rows for a CaseTable.
type CaseTableBuilder struct {
	names   []string
	columns [][]string
	rows    int
	mappers map[int]func(string) string
}

// NewCaseTableBuilder prepares a builder for the given column names. Duplicate or empty names
// are rejected.
func NewCaseTableBuilder(names []string) (*CaseTableBuilder, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("case table requires at least one column")
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("case table column name is empty")
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate case table column %q", name)
		}
		seen[name] = struct{}{}
	}
	return &CaseTableBuilder{
		names:   append([]string(nil), names...),
		columns: make([][]string, len(names)),
		mappers: make(map[int]func(string) string),
	}, nil
}

// MapColumn registers a transform applied to every value appended to the named column.
// Unknown columns are ignored.
func (b *CaseTableBuilder) MapColumn(name string, fn func(string) string) {
	for i, n := range b.names {
		if n == name {
			b.mappers[i] = fn
			return
		}
	}
}

// Append adds one row; the row must have one value per column.
func (b *CaseTableBuilder) Append(row []string) error {
	if len(row) != len(b.names) {
		return fmt.Errorf("row %d has %d values, expected %d", b.rows, len(row), len(b.names))
	}
	for i, v := range row {
		if fn, ok := b.mappers[i]; ok {
			v = fn(v)
		}
		b.columns[i] = append(b.columns[i], v)
	}
	b.rows++
	return nil
}

// Build freezes the accumulated rows into a CaseTable. The builder must not be reused.
func (b *CaseTableBuilder) Build() *CaseTable {
	cols := make(map[string][]string, len(b.names))
	for i, name := range b.names {
		cols[name] = b.columns[i]
	}
	return &CaseTable{names: b.names, columns: cols, rows: b.rows}
}

// NewCaseTable is a convenience constructor from row records keyed by column name. Column
// order follows names.
func NewCaseTable(names []string, records []map[string]string) (*CaseTable, error) {
	b, err := NewCaseTableBuilder(names)
	if err != nil {
		return nil, err
	}
	row := make([]string, len(names))
	for _, rec := range records {
		for i, name := range names {
			row[i] = rec[name]
		}
		if err := b.Append(row); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
