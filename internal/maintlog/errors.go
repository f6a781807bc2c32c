package maintlog

import (
	"errors"

	"github.com/rahul/maintbot/internal/workbook"
)

var (
	ErrFileNotFound     = workbook.ErrFileNotFound
	ErrPermissionDenied = workbook.ErrPermissionDenied
	ErrCorrupt          = workbook.ErrCorrupt

	ErrInvalidRequest      = errors.New("invalid update request")
	ErrSheetNotFound       = errors.New("could not find sheet for equipment")
	ErrHeaderNotFound      = errors.New("could not find step columns")
	ErrFrequencyUnresolved = errors.New("could not determine which step columns to tick")
	ErrUpdateFailed        = errors.New("error updating workbook")
)

// Kind is the failure classification carried by UpdateResult.
type Kind string

const (
	KindNone                Kind = ""
	KindInvalidRequest      Kind = "InvalidRequest"
	KindFileNotFound        Kind = "FileNotFound"
	KindPermissionDenied    Kind = "PermissionDenied"
	KindCorrupt             Kind = "Corrupt"
	KindSheetNotFound       Kind = "SheetNotFound"
	KindHeaderNotFound      Kind = "HeaderNotFound"
	KindFrequencyUnresolved Kind = "FrequencyUnresolved"
	KindUpdateFailed        Kind = "UpdateFailed"
)

func kindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrFileNotFound):
		return KindFileNotFound
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrCorrupt):
		return KindCorrupt
	case errors.Is(err, ErrSheetNotFound):
		return KindSheetNotFound
	case errors.Is(err, ErrHeaderNotFound):
		return KindHeaderNotFound
	case errors.Is(err, ErrFrequencyUnresolved):
		return KindFrequencyUnresolved
	}
	return KindUpdateFailed
}
