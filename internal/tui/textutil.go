package tui

// truncateEnd shortens s to at most limit runes, ending in an ellipsis when
// anything was cut.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// row is a fixed-width line of cells that labels are written into.
type row []rune

func newRow(width int, fill rune) row {
	if width < 0 {
		width = 0
	}
	r := make(row, width)
	for i := range r {
		r[i] = fill
	}
	return r
}

// put writes s starting at col, clipping at both edges. It reports whether
// the whole of s was visible.
func (r row) put(col int, s string) bool {
	whole := true
	for i, c := range []rune(s) {
		x := col + i
		if x < 0 || x >= len(r) {
			whole = false
			continue
		}
		r[x] = c
	}
	return whole
}

// free reports whether cols [from, to) hold only fill.
func (r row) free(from, to int, fill rune) bool {
	if from < 0 || to > len(r) {
		return false
	}
	for x := from; x < to; x++ {
		if r[x] != fill {
			return false
		}
	}
	return true
}

func (r row) String() string { return string(r) }
