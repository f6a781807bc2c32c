package workbook

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

type xlsxWorkbook struct {
	path   string
	file   *excelize.File
	sheets []Sheet
}

// xlsxSheet mirrors the excelize cells in a Grid so header scans don't
// re-resolve cell references on every read.
type xlsxSheet struct {
	file *excelize.File
	grid *Grid
}

func openModern(path string) (Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, classify(path, err)
	}
	wb := &xlsxWorkbook{path: path, file: f}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrCorrupt, name, err)
		}
		wb.sheets = append(wb.sheets, &xlsxSheet{file: f, grid: NewGrid(name, rows)})
	}
	return wb, nil
}

func (w *xlsxWorkbook) Path() string    { return w.path }
func (w *xlsxWorkbook) Format() Format  { return FormatModern }
func (w *xlsxWorkbook) Sheets() []Sheet { return w.sheets }
func (w *xlsxWorkbook) Close() error    { return w.file.Close() }

func (w *xlsxWorkbook) Save() error {
	if err := w.file.Save(); err != nil {
		return saveError(w.path, err)
	}
	return nil
}

func (s *xlsxSheet) Name() string             { return s.grid.Name() }
func (s *xlsxSheet) MaxRow() int              { return s.grid.MaxRow() }
func (s *xlsxSheet) MaxCol() int              { return s.grid.MaxCol() }
func (s *xlsxSheet) Cell(row, col int) string { return s.grid.Cell(row, col) }

func (s *xlsxSheet) SetCell(row, col int, value string) error {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := s.file.SetCellValue(s.grid.Name(), ref, value); err != nil {
		return fmt.Errorf("failed to set %s!%s: %w", s.grid.Name(), ref, err)
	}
	return s.grid.SetCell(row, col, value)
}

// writeGrids stores grids as a new .xlsx file at path.
func writeGrids(path string, grids []*Grid) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, g := range grids {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), g.Name()); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(g.Name()); err != nil {
			return err
		}
		for r, row := range g.Rows() {
			for c, v := range row {
				if v == "" {
					continue
				}
				ref, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(g.Name(), ref, cellValue(v, g.IsNumeric(r+1, c+1))); err != nil {
					return err
				}
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return saveError(path, err)
	}
	return nil
}

// cellValue keeps cells the legacy file stored as numbers numeric. Text
// stays text however much it looks like a number.
func cellValue(v string, numeric bool) interface{} {
	if !numeric {
		return v
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
