package filter

// Query is a fixed search query.
type Query string

func (q Query) Value() string { return string(q) }

// TextLabel stores the last text written to it.
type TextLabel struct {
	Text string
}

func (l *TextLabel) SetText(text string) { l.Text = text }

// Rows is a Table backed by slices. Data rows start at index 1 so that row
// numbers match Table; row 0 is Header.
type Rows struct {
	Header  []string
	Data    [][]string
	visible []bool
}

// NewRows returns Rows with every data row visible.
func NewRows(header []string, data [][]string) *Rows {
	visible := make([]bool, len(data))
	for i := range visible {
		visible[i] = true
	}
	return &Rows{Header: header, Data: data, visible: visible}
}

func (r *Rows) Len() int {
	if r.Header == nil {
		return 0
	}
	return len(r.Data) + 1
}

func (r *Rows) Cell(row, col int) (string, bool) {
	var cells []string
	switch {
	case row == 0:
		cells = r.Header
	case row > 0 && row <= len(r.Data):
		cells = r.Data[row-1]
	default:
		return "", false
	}
	if col < 0 || col >= len(cells) {
		return "", false
	}
	return cells[col], true
}

func (r *Rows) SetVisible(row int, visible bool) {
	if row < 1 || row > len(r.visible) {
		return
	}
	r.visible[row-1] = visible
}

// Visible reports whether data row i (zero-based, header excluded) is shown.
func (r *Rows) Visible(i int) bool {
	return i >= 0 && i < len(r.visible) && r.visible[i]
}

// VisibleIndexes returns the zero-based indexes of the shown data rows.
func (r *Rows) VisibleIndexes() []int {
	var idx []int
	for i, v := range r.visible {
		if v {
			idx = append(idx, i)
		}
	}
	return idx
}
