package maintlog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rahul/maintbot/internal/schedule"
	"github.com/rahul/maintbot/internal/workbook"
)

const (
	CheckMark = "✓"

	sheetDateLayout = "01/02/2006"
)

// InsertionRow is the row after the last dated entry below the header, or
// one past the last populated row when nothing below the header is dated.
func InsertionRow(sheet workbook.Sheet, schema SheetSchema) int {
	maxRow := sheet.MaxRow()
	last := 0
	if schema.DateColumn > 0 {
		for row := schema.HeaderRow + 1; row <= maxRow; row++ {
			if strings.TrimSpace(sheet.Cell(row, schema.DateColumn)) != "" {
				last = row
			}
		}
	}
	if last == 0 {
		last = maxRow
	}
	return last + 1
}

// FormatDate renders a YYYY-MM-DD date the way the log sheets show dates.
// Anything else comes back unchanged with ok false.
func FormatDate(date string) (formatted string, ok bool) {
	t, err := time.Parse(schedule.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return date, false
	}
	return t.Format(sheetDateLayout), true
}

// WriteEntry writes the date, a checkmark per resolved step and the
// attribution note into a fresh row. Existing note text is kept.
func WriteEntry(sheet workbook.Sheet, schema SheetSchema, steps []int, date, user string) (Entry, error) {
	var cols []int
	var checked []int
	for _, n := range uniqueSteps(steps) {
		if col, ok := schema.StepColumns[n]; ok {
			cols = append(cols, col)
			checked = append(checked, n)
		}
	}
	if len(cols) == 0 {
		return Entry{}, fmt.Errorf("%w %v in sheet: %s", ErrHeaderNotFound, steps, sheet.Name())
	}

	row := InsertionRow(sheet, schema)
	formatted, ok := FormatDate(date)
	entry := Entry{Row: row, Date: formatted, CheckedSteps: checked, DateFallback: !ok}

	if schema.DateColumn > 0 {
		if err := sheet.SetCell(row, schema.DateColumn, formatted); err != nil {
			return Entry{}, fmt.Errorf("failed to write date: %w", err)
		}
	}

	for _, col := range cols {
		if err := sheet.SetCell(row, col, CheckMark); err != nil {
			return Entry{}, fmt.Errorf("failed to write checkmark: %w", err)
		}
	}

	if schema.NotesColumn > 0 {
		note := fmt.Sprintf("%s - %s", user, formatted)
		if existing := strings.TrimSpace(sheet.Cell(row, schema.NotesColumn)); existing != "" {
			note = existing + "; " + note
		}
		if err := sheet.SetCell(row, schema.NotesColumn, note); err != nil {
			return Entry{}, fmt.Errorf("failed to write notes: %w", err)
		}
		entry.NotesAppended = note
	}

	sort.Ints(entry.CheckedSteps)
	return entry, nil
}
