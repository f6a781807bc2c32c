package maintlog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rahul/maintbot/internal/workbook"
)

const headerScanRows = 30

// LocateHeader finds the first row, top-down, whose cells name a column for
// every requested step.
//
// Rules, applied to trimmed lower-cased cell text:
//   - a step column for N is the number N written in digits, optionally
//     followed by "." and zeros, or contains "step N" / "task N" not
//     followed by another digit;
//   - the date column contains "date", the notes column contains "note".
//
// First occurrence wins everywhere: within a row a step keeps the leftmost
// matching column and a column serves at most one step; date and notes keep
// the first match seen in any scanned row up to and including the header.
func LocateHeader(sheet workbook.Sheet, steps []int) (SheetSchema, error) {
	wanted := uniqueSteps(steps)
	if len(wanted) == 0 {
		return SheetSchema{}, fmt.Errorf("%w: no steps requested", ErrHeaderNotFound)
	}

	var dateCol, notesCol int
	rows := min(headerScanRows, sheet.MaxRow())
	width := sheet.MaxCol()

	for row := 1; row <= rows; row++ {
		stepCols := make(map[int]int, len(wanted))
		used := make(map[int]bool, len(wanted))

		for col := 1; col <= width; col++ {
			text := strings.ToLower(strings.TrimSpace(sheet.Cell(row, col)))
			if text == "" {
				continue
			}
			for _, n := range wanted {
				if _, taken := stepCols[n]; taken || used[col] {
					continue
				}
				if matchesStep(text, n) {
					stepCols[n] = col
					used[col] = true
					break
				}
			}
			if dateCol == 0 && strings.Contains(text, "date") {
				dateCol = col
			}
			if notesCol == 0 && strings.Contains(text, "note") {
				notesCol = col
			}
		}

		if len(stepCols) == len(wanted) {
			return SheetSchema{
				HeaderRow:   row,
				StepColumns: stepCols,
				DateColumn:  dateCol,
				NotesColumn: notesCol,
			}, nil
		}
	}

	return SheetSchema{}, fmt.Errorf("%w %v in sheet: %s. Header might be at a different row",
		ErrHeaderNotFound, wanted, sheet.Name())
}

func matchesStep(text string, n int) bool {
	num := strconv.Itoa(n)
	if text == num {
		return true
	}
	if containsNumbered(text, "step "+num) || containsNumbered(text, "task "+num) {
		return true
	}
	v, ok := stepNumber(text)
	return ok && v == n
}

// stepNumber reads cells like "2" or "2.0", the way a numeric header cell
// comes back from a sheet. Signs, exponents and hex are not step numbers.
func stepNumber(text string) (int, bool) {
	if i := strings.IndexByte(text, '.'); i >= 0 {
		frac := text[i+1:]
		if frac == "" || strings.Trim(frac, "0") != "" {
			return 0, false
		}
		text = text[:i]
	}
	if text == "" {
		return 0, false
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(text)
	return v, err == nil
}

// containsNumbered reports whether text holds label not directly followed by
// a digit, so "step 1" does not match "step 12".
func containsNumbered(text, label string) bool {
	for i := 0; ; {
		idx := strings.Index(text[i:], label)
		if idx < 0 {
			return false
		}
		end := i + idx + len(label)
		if end == len(text) || text[end] < '0' || text[end] > '9' {
			return true
		}
		i = i + idx + 1
	}
}

func uniqueSteps(steps []int) []int {
	seen := make(map[int]bool, len(steps))
	out := make([]int, 0, len(steps))
	for _, s := range steps {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
