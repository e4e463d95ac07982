// Package filter hides table rows whose searched columns do not contain
// every term of a search query and reports how many rows are left.
package filter

import (
	"fmt"
	"strings"
)

// DefaultCountFormat renders the visible-row count label.
const DefaultCountFormat = "%d Movies found"

// DefaultSearchColumns searches the title and genre columns.
var DefaultSearchColumns = []int{0, 1}

// Input supplies the current search query.
type Input interface {
	Value() string
}

// Table is a header row (row 0) followed by data rows 1..Len()-1.
type Table interface {
	Len() int
	Cell(row, col int) (string, bool)
	SetVisible(row int, visible bool)
}

// Label receives the visible-row count message.
type Label interface {
	SetText(text string)
}

// Options configures a Filter.
type Options struct {
	// SearchColumns are the zero-based columns a term may match in.
	SearchColumns []int
	// CountFormat is a fmt verb string taking the visible-row count.
	CountFormat string
}

// Filter applies a query from Input to the rows of Table and writes the
// visible count to Label.
type Filter struct {
	columns []int
	format  string
	input   Input
	table   Table
	label   Label
}

// New returns a Filter bound to input, table and label. An empty
// SearchColumns defaults to DefaultSearchColumns and an empty CountFormat to
// DefaultCountFormat. A nil element fails immediately with an error matching
// ErrMissingElement. A negative search column is rejected as well.
func New(opts Options, input Input, table Table, label Label) (*Filter, error) {
	switch {
	case input == nil:
		return nil, &MissingElementError{Element: "search input", Row: -1, Col: -1}
	case table == nil:
		return nil, &MissingElementError{Element: "table", Row: -1, Col: -1}
	case label == nil:
		return nil, &MissingElementError{Element: "count label", Row: -1, Col: -1}
	}

	columns := opts.SearchColumns
	if len(columns) == 0 {
		columns = DefaultSearchColumns
	}
	for _, c := range columns {
		if c < 0 {
			return nil, fmt.Errorf("invalid search column %d", c)
		}
	}
	format := opts.CountFormat
	if format == "" {
		format = DefaultCountFormat
	}

	return &Filter{
		columns: append([]int(nil), columns...),
		format:  format,
		input:   input,
		table:   table,
		label:   label,
	}, nil
}

// Apply shows the data rows matching the current query, hides the rest and
// updates the label. It returns the number of visible data rows. The header
// row is never touched. On error the table and label are left unchanged.
func (f *Filter) Apply() (int, error) {
	n := f.table.Len()
	if n < 1 {
		return 0, &MissingElementError{Element: "header row", Row: 0, Col: -1}
	}

	terms := Terms(f.input.Value())
	if len(terms) == 0 {
		for row := 1; row < n; row++ {
			f.table.SetVisible(row, true)
		}
		f.label.SetText(CountText(f.format, n-1))
		return n - 1, nil
	}

	matches := make([]bool, n)
	cells := make([]string, len(f.columns))
	for row := 1; row < n; row++ {
		for i, col := range f.columns {
			text, ok := f.table.Cell(row, col)
			if !ok {
				return 0, &MissingElementError{Element: "cell", Row: row, Col: col}
			}
			cells[i] = strings.ToUpper(text)
		}
		matches[row] = Match(cells, terms)
	}

	visible := 0
	for row := 1; row < n; row++ {
		f.table.SetVisible(row, matches[row])
		if matches[row] {
			visible++
		}
	}
	f.label.SetText(CountText(f.format, visible))
	return visible, nil
}

// Terms splits a query on whitespace and upper-cases each term.
func Terms(query string) []string {
	fields := strings.Fields(query)
	for i, f := range fields {
		fields[i] = strings.ToUpper(f)
	}
	return fields
}

// Match reports whether every term is a substring of at least one cell.
// Both cells and terms are expected to be upper-cased already.
func Match(cells, terms []string) bool {
	for _, term := range terms {
		found := false
		for _, cell := range cells {
			if strings.Contains(cell, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// CountText renders the count label for n visible rows.
func CountText(format string, n int) string {
	return fmt.Sprintf(format, n)
}
