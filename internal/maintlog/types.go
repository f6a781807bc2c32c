// Package maintlog appends maintenance entries to a human-edited workbook
// whose layout has to be inferred on every call.
package maintlog

import (
	"fmt"
	"strings"

	"github.com/rahul/maintbot/internal/schedule"
)

// EquipmentRef identifies a piece of equipment on the workbook. At least one
// field is set.
type EquipmentRef struct {
	Name         string
	SerialNumber string
}

func (r EquipmentRef) Empty() bool {
	return strings.TrimSpace(r.Name) == "" && strings.TrimSpace(r.SerialNumber) == ""
}

func (r EquipmentRef) String() string {
	switch {
	case r.Name != "" && r.SerialNumber != "":
		return fmt.Sprintf("%s (S/N: %s)", r.Name, r.SerialNumber)
	case r.SerialNumber != "":
		return "S/N: " + r.SerialNumber
	}
	return r.Name
}

type UpdateRequest struct {
	EquipmentName string
	SerialNumber  string
	Frequency     schedule.Frequency
	Date          string // YYYY-MM-DD
	UserLabel     string
}

func (r UpdateRequest) Ref() EquipmentRef {
	return EquipmentRef{
		Name:         strings.TrimSpace(r.EquipmentName),
		SerialNumber: strings.TrimSpace(r.SerialNumber),
	}
}

// UpdateResult is what one Update call reports back. Row is set on success,
// Message always.
type UpdateResult struct {
	Success       bool
	Row           int
	Sheet         string
	Path          string
	Steps         []int
	Kind          Kind
	Message       string
	Stage         Stage
	Retried       bool
	LowConfidence bool
	DateFallback  bool
}

// SheetSchema is the column layout inferred for one sheet. Columns are
// 1-based; zero DateColumn or NotesColumn means the sheet has none.
type SheetSchema struct {
	HeaderRow   int
	StepColumns map[int]int
	DateColumn  int
	NotesColumn int
}

// Entry is the row written by one successful update.
type Entry struct {
	Row           int
	Date          string
	CheckedSteps  []int
	NotesAppended string
	DateFallback  bool
}

// Stage tracks how far an update got; a failed result carries the stage it
// failed after.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageFileLocated     Stage = "file_located"
	StageFormatDetected  Stage = "format_detected"
	StageWorkbookLoaded  Stage = "workbook_loaded"
	StageSheetLocated    Stage = "sheet_located"
	StageHeaderLocated   Stage = "header_located"
	StageRetried         Stage = "retried"
	StageColumnsResolved Stage = "columns_resolved"
	StageRowComputed     Stage = "row_computed"
	StageWritten         Stage = "written"
	StageSaved           Stage = "saved"
	StageReported        Stage = "reported"
)
