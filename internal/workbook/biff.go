package workbook

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/extrame/xls"
)

// The BIFF reader only hands out rendered strings. Row presence and the
// record type behind each cell live in unexported fields, read here without
// modifying them.

var (
	numberColType = reflect.TypeOf((*xls.NumberCol)(nil))
	rkColType     = reflect.TypeOf((*xls.RkCol)(nil))
	mulrkColType  = reflect.TypeOf((*xls.MulrkCol)(nil))
)

// sheetRows lists the row indexes the sheet actually stores. Row() panics on
// any other index.
func sheetRows(ws *xls.WorkSheet) []int {
	v := reflect.ValueOf(ws).Elem().FieldByName("rows")
	if !v.IsValid() || v.Kind() != reflect.Map {
		return nil
	}
	rows := make([]int, 0, v.Len())
	for _, k := range v.MapKeys() {
		rows = append(rows, int(k.Uint()))
	}
	sort.Ints(rows)
	return rows
}

// rowCells reports how many columns the row spans and, for cells stored as
// NUMBER, RK or MULRK records, the text of their value. A row without a ROW
// record reports no width of its own, so the cells decide it.
func rowCells(row *xls.Row) (width int, numbers map[int]string) {
	width = row.LastCol()
	numbers = make(map[int]string)

	cols := reflect.ValueOf(row).Elem().FieldByName("cols")
	if !cols.IsValid() || cols.Kind() != reflect.Map {
		return width, numbers
	}
	iter := cols.MapRange()
	for iter.Next() {
		first := int(iter.Key().Uint())
		last := first
		cell := iter.Value()
		if cell.Kind() == reflect.Interface {
			cell = cell.Elem()
		}
		if cell.Kind() != reflect.Ptr || cell.IsNil() {
			continue
		}
		s := cell.Elem()
		if s.Kind() != reflect.Struct {
			continue
		}
		if lc := s.FieldByName("LastColB"); lc.IsValid() && lc.Kind() == reflect.Uint16 && int(lc.Uint()) > last {
			last = int(lc.Uint())
		}

		switch cell.Type() {
		case numberColType:
			numbers[first] = strconv.FormatFloat(s.FieldByName("Float").Float(), 'f', -1, 64)
		case rkColType:
			numbers[first] = xls.RK(s.FieldByName("Xfrk").FieldByName("Rk").Uint()).String()
		case mulrkColType:
			xfrks := s.FieldByName("Xfrks")
			for i := 0; i < xfrks.Len(); i++ {
				numbers[first+i] = xls.RK(xfrks.Index(i).FieldByName("Rk").Uint()).String()
			}
		}
		if last+1 > width {
			width = last + 1
		}
	}
	return width, numbers
}
