package workbook

import (
	"fmt"
	"strings"
)

// Grid is an in-memory sheet. The legacy backend keeps its cells in one, and
// it is handy for exercising sheet logic without a file.
type Grid struct {
	name string
	rows [][]string
	// numeric holds the cells the source file stored as numbers.
	numeric map[[2]int]bool
}

func NewGrid(name string, rows [][]string) *Grid {
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	return &Grid{name: name, rows: cp}
}

func (g *Grid) Name() string { return g.name }

// MaxRow is the last row holding a non-blank cell.
func (g *Grid) MaxRow() int {
	for r := len(g.rows); r > 0; r-- {
		for _, v := range g.rows[r-1] {
			if strings.TrimSpace(v) != "" {
				return r
			}
		}
	}
	return 0
}

func (g *Grid) MaxCol() int {
	max := 0
	for _, r := range g.rows {
		if len(r) > max {
			max = len(r)
		}
	}
	return max
}

func (g *Grid) Cell(row, col int) string {
	if row < 1 || row > len(g.rows) {
		return ""
	}
	r := g.rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}

func (g *Grid) SetCell(row, col int, value string) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("invalid cell position %d,%d", row, col)
	}
	for len(g.rows) < row {
		g.rows = append(g.rows, nil)
	}
	r := g.rows[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = value
	g.rows[row-1] = r
	delete(g.numeric, [2]int{row, col})
	return nil
}

// IsNumeric reports whether the cell came from a numeric record and has not
// been written since.
func (g *Grid) IsNumeric(row, col int) bool { return g.numeric[[2]int{row, col}] }

func (g *Grid) markNumeric(row, col int) {
	if g.numeric == nil {
		g.numeric = make(map[[2]int]bool)
	}
	g.numeric[[2]int{row, col}] = true
}

// Rows returns the backing cells; callers must not keep it across SetCell.
func (g *Grid) Rows() [][]string { return g.rows }
