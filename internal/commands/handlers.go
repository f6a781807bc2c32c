package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/rahul/maintbot/internal/maintenance"
	"github.com/rahul/maintbot/internal/registry"
	"github.com/rahul/maintbot/internal/schedule"
	"github.com/rahul/maintbot/internal/store"
)

const (
	listLimit    = 20
	statusLimit  = 15
	historyLimit = 10
)

type Recorder interface {
	Record(ctx context.Context, r maintenance.Report) maintenance.Outcome
}

type EquipmentSource interface {
	Load() ([]registry.Equipment, error)
}

type HistorySource interface {
	RecentUpdates(ctx context.Context, equipment string, limit int) ([]store.UpdateRecord, error)
}

// NewDefaultRegistry registers every command. A nil history source leaves
// out the history command.
func NewDefaultRegistry(rec Recorder, equipment EquipmentSource, history HistorySource) *Registry {
	r := NewRegistry()
	r.Register(&UpdateCommand{Recorder: rec})
	r.Register(&ListCommand{Equipment: equipment})
	r.Register(&StatusCommand{Equipment: equipment})
	if history != nil {
		r.Register(&HistoryCommand{History: history})
	}
	r.Register(&HelpCommand{})
	return r
}

type UpdateCommand struct {
	Recorder Recorder
}

func (c *UpdateCommand) Name() Kind { return KindUpdate }

func (c *UpdateCommand) Description() string {
	return "Record a completed maintenance for one equipment, identified by name or serial number."
}

func (c *UpdateCommand) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"equipment_name": map[string]any{"type": "string", "description": "Equipment name as written in the registry"},
			"serial_number":  map[string]any{"type": "string", "description": "Equipment serial number"},
			"frequency": map[string]any{
				"type": "string",
				"enum": []string{string(schedule.Monthly), string(schedule.BiAnnual), string(schedule.Annual)},
			},
			"date": map[string]any{"type": "string", "description": "Completion date, YYYY-MM-DD"},
		},
		"required": []string{"frequency", "date"},
	}
}

func (c *UpdateCommand) Execute(ctx context.Context, req Request, caller Caller) (Response, error) {
	if req.EquipmentName == "" && req.SerialNumber == "" {
		return Response{Text: invalidFormatText}, nil
	}
	out := c.Recorder.Record(ctx, maintenance.Report{
		EquipmentName: req.EquipmentName,
		SerialNumber:  req.SerialNumber,
		Frequency:     req.Frequency,
		Date:          req.Date,
		User:          caller.User,
		ChatID:        caller.ChatID,
	})
	return Response{Text: formatOutcome(out), Public: out.Success()}, nil
}

func formatOutcome(out maintenance.Outcome) string {
	var sb strings.Builder
	serial := out.SerialNumber
	if serial == "" {
		serial = "N/A"
	}

	if out.Success() {
		fmt.Fprintf(&sb, "*Maintenance Updated* by @%s\n", out.User)
	} else {
		sb.WriteString("*Maintenance Not Logged*\n")
	}
	fmt.Fprintf(&sb, "*Equipment:* %s\n*Serial Number:* %s\n*Frequency:* %s\n*Date:* %s\n",
		out.EquipmentName, serial, out.Frequency.Label(), out.Date)

	if out.Success() {
		fmt.Fprintf(&sb, "*Workbook:* %s\n", out.Result.Message)
	} else {
		fmt.Fprintf(&sb, "*Workbook error:* %s\n", out.Result.Message)
		if out.RegistryUpdated {
			sb.WriteString("_The registry date was updated; only the workbook log is missing._\n")
		}
	}
	for _, w := range out.Warnings {
		fmt.Fprintf(&sb, "⚠️ %s\n", w)
	}
	return strings.TrimRight(sb.String(), "\n")
}

type ListCommand struct {
	Equipment EquipmentSource
}

func (c *ListCommand) Name() Kind { return KindList }

func (c *ListCommand) Description() string { return "List all equipment in the registry." }

func (c *ListCommand) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (c *ListCommand) Execute(ctx context.Context, req Request, caller Caller) (Response, error) {
	list, err := c.Equipment.Load()
	if err != nil {
		return Response{}, err
	}
	if len(list) == 0 {
		return Response{Text: "No equipment found."}, nil
	}

	var sb strings.Builder
	sb.WriteString("*Available Equipment:*\n\n")
	for i, e := range list[:min(listLimit, len(list))] {
		fmt.Fprintf(&sb, "%d. *%s*\n   S/N: %s | Location: %s\n\n", i+1, e.Name, orNA(e.SerialNumber), orNA(e.Location))
	}
	if len(list) > listLimit {
		fmt.Fprintf(&sb, "_Showing %d of %d equipment. Use more specific search._", listLimit, len(list))
	}
	return Response{Text: strings.TrimRight(sb.String(), "\n")}, nil
}

type StatusCommand struct {
	Equipment EquipmentSource
}

func (c *StatusCommand) Name() Kind { return KindStatus }

func (c *StatusCommand) Description() string {
	return "Show the last maintenance date of every equipment per frequency."
}

func (c *StatusCommand) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (c *StatusCommand) Execute(ctx context.Context, req Request, caller Caller) (Response, error) {
	list, err := c.Equipment.Load()
	if err != nil {
		return Response{}, err
	}
	if len(list) == 0 {
		return Response{Text: "No equipment found."}, nil
	}

	var sb strings.Builder
	sb.WriteString("*Equipment Maintenance Status*\n\n")
	for _, e := range list[:min(statusLimit, len(list))] {
		fmt.Fprintf(&sb, "*%s*\nS/N: %s | Location: %s\n", e.Name, orNA(e.SerialNumber), orNA(e.Location))
		freqs := e.Frequencies()
		if len(freqs) == 0 {
			sb.WriteString("No maintenance schedule\n")
		}
		for _, f := range freqs {
			fmt.Fprintf(&sb, "*%s:* %s\n", f.Label(), displayDate(e.LastDate(f)))
		}
		sb.WriteString("\n")
	}
	if len(list) > statusLimit {
		fmt.Fprintf(&sb, "_Showing %d of %d equipment._", statusLimit, len(list))
	}
	return Response{Text: strings.TrimRight(sb.String(), "\n")}, nil
}

type HistoryCommand struct {
	History HistorySource
}

func (c *HistoryCommand) Name() Kind { return KindHistory }

func (c *HistoryCommand) Description() string {
	return "Show recent maintenance updates, optionally for one equipment name or serial number."
}

func (c *HistoryCommand) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"filter": map[string]any{"type": "string", "description": "Equipment name or serial number"},
		},
	}
}

func (c *HistoryCommand) Execute(ctx context.Context, req Request, caller Caller) (Response, error) {
	records, err := c.History.RecentUpdates(ctx, req.Filter, historyLimit)
	if err != nil {
		return Response{}, err
	}
	if len(records) == 0 {
		return Response{Text: "No maintenance updates recorded yet."}, nil
	}

	var sb strings.Builder
	sb.WriteString("*Recent Maintenance Updates:*\n")
	for _, r := range records {
		status := "✓"
		detail := fmt.Sprintf("%s row %d", r.Sheet, r.Row)
		if !r.Success {
			status, detail = "✗", r.Message
		}
		fmt.Fprintf(&sb, "%s %s %s *%s* by %s (%s)\n",
			status, r.Date, schedule.Frequency(r.Frequency).Label(), r.Equipment, orNA(r.User), detail)
	}
	return Response{Text: strings.TrimRight(sb.String(), "\n")}, nil
}

type HelpCommand struct{}

func (c *HelpCommand) Name() Kind { return KindHelp }

func (c *HelpCommand) Description() string { return "Show usage." }

func (c *HelpCommand) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (c *HelpCommand) Execute(ctx context.Context, req Request, caller Caller) (Response, error) {
	return Response{Text: usageText}, nil
}

const usageText = "Usage:\n" +
	"• `/maintenance list` - List all equipment\n" +
	"• `/maintenance status` - List equipment with maintenance dates\n" +
	"• `/maintenance history [equipment]` - Recent updates\n" +
	"• `/maintenance \"Equipment Name\" frequency YYYY-MM-DD` - Update date\n" +
	"• `/maintenance S/N: serial_number frequency YYYY-MM-DD` - Update by S/N\n\n" +
	"Examples:\n" +
	"`/maintenance \"Oil Free Air Compressor\" monthly 2025-11-15`\n" +
	"`/maintenance S/N: 20250623001 bi_annual 2025-11-15`\n\n" +
	"Frequencies: monthly, bi_annual, annual"

const invalidFormatText = "Invalid format. Use: `<equipment_name> <frequency> <YYYY-MM-DD>`\n" +
	"Example: `Oil Free Air Compressor monthly 2025-11-15`"

// InvalidFormat is the reply for text that parses as no command.
func InvalidFormat() Response {
	return Response{Text: invalidFormatText}
}

func displayDate(s string) string {
	if s == "" {
		return "N/A"
	}
	t, err := schedule.ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format("Jan 02, 2006")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
