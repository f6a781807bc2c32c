package workbook

import (
	"fmt"

	"github.com/extrame/xls"
	log "github.com/sirupsen/logrus"
)

// legacyWorkbook reads BIFF .xls files. There is no BIFF writer, so Save
// writes the modern sibling, which ResolvePath prefers from then on.
type legacyWorkbook struct {
	path  string
	grids []*Grid
}

func openLegacy(path string) (wb Workbook, err error) {
	// the BIFF reader panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			wb = nil
			err = fmt.Errorf("%w: %s: %v", ErrCorrupt, path, r)
		}
	}()

	book, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, classify(path, err)
	}
	if book == nil {
		return nil, fmt.Errorf("%w: %s: no workbook stream", ErrCorrupt, path)
	}

	lw := &legacyWorkbook{path: path}
	for i := 0; i < book.NumSheets(); i++ {
		ws := book.GetSheet(i)
		if ws == nil {
			continue
		}
		g := NewGrid(ws.Name, nil)
		for _, r := range sheetRows(ws) {
			row := ws.Row(r)
			width, numbers := rowCells(row)
			for c := 0; c < width; c++ {
				v := row.Col(c)
				if v == "" {
					continue
				}
				if err := g.SetCell(r+1, c+1, v); err != nil {
					return nil, err
				}
				// a date-formatted RK renders differently from its number
				if n, ok := numbers[c]; ok && n == v {
					g.markNumeric(r+1, c+1)
				}
			}
		}
		lw.grids = append(lw.grids, g)
	}
	return lw, nil
}

func (w *legacyWorkbook) Path() string   { return w.path }
func (w *legacyWorkbook) Format() Format { return FormatLegacy }
func (w *legacyWorkbook) Close() error   { return nil }

func (w *legacyWorkbook) Sheets() []Sheet {
	sheets := make([]Sheet, len(w.grids))
	for i, g := range w.grids {
		sheets[i] = g
	}
	return sheets
}

func (w *legacyWorkbook) Save() error {
	target := ModernPath(w.path)
	if err := writeGrids(target, w.grids); err != nil {
		return err
	}
	if target != w.path {
		log.WithFields(log.Fields{"legacy": w.path, "saved": target}).
			Info("legacy workbook saved in modern format")
		w.path = target
	}
	return nil
}
