// Package commands parses chat text into maintenance commands and runs them.
package commands

import (
	"errors"
	"strings"

	"github.com/rahul/maintbot/internal/schedule"
)

type Kind string

const (
	KindUpdate  Kind = "update"
	KindList    Kind = "list"
	KindStatus  Kind = "status"
	KindHistory Kind = "history"
	KindHelp    Kind = "help"
)

var ErrInvalidFormat = errors.New("invalid format")

type Request struct {
	Kind          Kind
	EquipmentName string
	SerialNumber  string
	Frequency     schedule.Frequency
	Date          string
	// Filter narrows history to one equipment name or serial.
	Filter string
}

var serialPrefixes = []string{"S/N:", "SN:", "SERIAL:"}

// Parse reads a chat message. Updates look like
// `"Oil Free Air Compressor" monthly 2025-11-15` or
// `S/N: 20250623001 bi-annual 2025-11-15`; the frequency and date tokens may
// appear anywhere.
func Parse(text string) (Request, error) {
	text = strings.TrimSpace(text)
	if head, rest, _ := strings.Cut(text, " "); strings.EqualFold(head, "/maintenance") {
		text = strings.TrimSpace(rest)
	}

	lower := strings.ToLower(text)
	switch lower {
	case "", "help":
		return Request{Kind: KindHelp}, nil
	case "list":
		return Request{Kind: KindList}, nil
	case "status", "dates", "maintenance dates":
		return Request{Kind: KindStatus}, nil
	}
	if lower == "history" || strings.HasPrefix(lower, "history ") {
		return Request{Kind: KindHistory, Filter: unquote(strings.TrimSpace(text[len("history"):]))}, nil
	}
	return parseUpdate(text)
}

func parseUpdate(text string) (Request, error) {
	req := Request{Kind: KindUpdate}
	var equipment []string
	for _, part := range strings.Fields(text) {
		switch lower := strings.ToLower(part); {
		case lower == "monthly" || lower == "annual" || lower == "bi_annual" || lower == "bi-annual":
			req.Frequency, _ = schedule.ParseFrequency(lower)
		case len(part) == 10 && strings.Count(part, "-") == 2:
			req.Date = part
		default:
			equipment = append(equipment, part)
		}
	}
	if req.Frequency == "" || req.Date == "" || len(equipment) == 0 {
		return Request{}, ErrInvalidFormat
	}

	first := strings.ToUpper(equipment[0])
	for _, prefix := range serialPrefixes {
		switch {
		case first == prefix:
			req.SerialNumber = unquote(strings.Join(equipment[1:], " "))
		case strings.HasPrefix(first, prefix):
			req.SerialNumber = unquote(equipment[0][len(prefix):])
			req.EquipmentName = unquote(strings.Join(equipment[1:], " "))
		default:
			continue
		}
		if req.SerialNumber == "" && req.EquipmentName == "" {
			return Request{}, ErrInvalidFormat
		}
		return req, nil
	}

	req.EquipmentName = unquote(strings.Join(equipment, " "))
	if req.EquipmentName == "" {
		return Request{}, ErrInvalidFormat
	}
	return req, nil
}

func unquote(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "\"'“”‘’`"))
}
