package maintlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/rahul/maintbot/internal/schedule"
	"github.com/rahul/maintbot/internal/workbook"
)

// PathResolver supplies the configured workbook location.
type PathResolver interface {
	WorkbookPath() string
}

// TaskCounter reports how many tasks the registry lists per frequency for an
// equipment. ok is false when the registry has no entry for it.
type TaskCounter interface {
	TaskCounts(name, serialNumber string) (counts map[schedule.Frequency]int, ok bool)
}

// Updater appends one maintenance entry per call. Calls are serialized: two
// requests racing on the insertion row would otherwise lose one entry.
type Updater struct {
	paths  PathResolver
	counts TaskCounter
	open   func(path string) (workbook.Workbook, error)

	mu sync.Mutex
}

func NewUpdater(paths PathResolver, counts TaskCounter) *Updater {
	return &Updater{
		paths:  paths,
		counts: counts,
		open:   workbook.Open,
	}
}

// Update records req in the workbook. It never returns an error; every
// failure, including a panic in a backend, is reported in the result.
func (u *Updater) Update(ctx context.Context, req UpdateRequest) (res UpdateResult) {
	u.mu.Lock()
	defer u.mu.Unlock()

	stage := StageIdle
	logger := log.WithFields(log.Fields{
		"equipment": req.Ref().String(),
		"frequency": req.Frequency,
	})

	defer func() {
		if r := recover(); r != nil {
			res = failed(stage, fmt.Errorf("%w: %v", ErrUpdateFailed, r))
		}
		if !res.Success {
			logger.WithFields(log.Fields{"stage": res.Stage, "kind": res.Kind}).Warn(res.Message)
		}
	}()

	ref := req.Ref()
	if ref.Empty() {
		return failed(stage, fmt.Errorf("%w: equipment name or serial number required", ErrInvalidRequest))
	}
	user := strings.TrimSpace(req.UserLabel)
	if user == "" {
		user = "Unknown"
	}

	path, err := workbook.ResolvePath(u.paths.WorkbookPath())
	if err != nil {
		return failed(stage, fmt.Errorf("%w. Please check network connection and file path", err))
	}
	stage = StageFileLocated

	if _, err := workbook.DetectFormat(path); err != nil {
		return failed(stage, err)
	}
	stage = StageFormatDetected

	if err := ctx.Err(); err != nil {
		return failed(stage, fmt.Errorf("%w: %v", ErrUpdateFailed, err))
	}
	wb, err := u.open(path)
	if err != nil {
		return failed(stage, err)
	}
	defer wb.Close()
	stage = StageWorkbookLoaded
	logger.WithField("path", path).Debug("workbook loaded")

	sheet, err := LocateSheet(ref, wb.Sheets())
	if err != nil {
		return failed(stage, err)
	}
	stage = StageSheetLocated
	logger = logger.WithField("sheet", sheet.Name())

	var counts map[schedule.Frequency]int
	known := false
	if u.counts != nil {
		counts, known = u.counts.TaskCounts(ref.Name, ref.SerialNumber)
	}
	plan, err := ResolveSteps(req.Frequency, counts, known)
	if err != nil {
		return failed(stage, err)
	}

	steps := plan.Primary
	retried := false
	schema, err := LocateHeader(sheet, steps)
	if errors.Is(err, ErrHeaderNotFound) && len(plan.Fallback) > 0 {
		logger.WithField("steps", steps).Debug("primary steps not found, retrying with fallback")
		stage = StageRetried
		steps, retried = plan.Fallback, true
		schema, err = LocateHeader(sheet, steps)
	}
	if err != nil {
		return failed(stage, err)
	}
	stage = StageColumnsResolved

	entry, err := WriteEntry(sheet, schema, steps, req.Date, user)
	if err != nil {
		return failed(stage, err)
	}
	stage = StageWritten

	if err := ctx.Err(); err != nil {
		return failed(stage, fmt.Errorf("%w: %v", ErrUpdateFailed, err))
	}
	if err := wb.Save(); err != nil {
		return failed(stage, err)
	}
	stage = StageSaved

	logger.WithFields(log.Fields{"row": entry.Row, "steps": entry.CheckedSteps}).Info("maintenance entry written")
	return UpdateResult{
		Success:       true,
		Row:           entry.Row,
		Sheet:         sheet.Name(),
		Path:          wb.Path(),
		Steps:         entry.CheckedSteps,
		Message:       fmt.Sprintf("Updated workbook: %s, Row %d", sheet.Name(), entry.Row),
		Stage:         StageReported,
		Retried:       retried,
		LowConfidence: plan.LowConfidence,
		DateFallback:  entry.DateFallback,
	}
}

func failed(stage Stage, err error) UpdateResult {
	return UpdateResult{
		Kind:    kindOf(err),
		Message: err.Error(),
		Stage:   stage,
	}
}
