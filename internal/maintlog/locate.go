package maintlog

import (
	"fmt"
	"strings"

	"github.com/rahul/maintbot/internal/workbook"
)

// Equipment identifiers are expected near the top-left of their own sheet.
const (
	sheetScanRows = 20
	sheetScanCols = 10
)

// LocateSheet returns the first sheet, in workbook order, whose top-left
// region mentions the serial number or, failing that, the equipment name.
func LocateSheet(ref EquipmentRef, sheets []workbook.Sheet) (workbook.Sheet, error) {
	serial := strings.ToLower(strings.TrimSpace(ref.SerialNumber))
	name := strings.ToLower(strings.TrimSpace(ref.Name))

	for _, sheet := range sheets {
		if sheetMentions(sheet, serial, name) {
			return sheet, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, ref)
}

func sheetMentions(sheet workbook.Sheet, serial, name string) bool {
	rows := min(sheetScanRows, sheet.MaxRow())
	cols := min(sheetScanCols, sheet.MaxCol())
	for row := 1; row <= rows; row++ {
		for col := 1; col <= cols; col++ {
			text := strings.ToLower(strings.TrimSpace(sheet.Cell(row, col)))
			if text == "" {
				continue
			}
			if serial != "" && strings.Contains(text, serial) {
				return true
			}
			if name != "" && strings.Contains(text, name) {
				return true
			}
		}
	}
	return false
}
