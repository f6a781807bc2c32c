// Package registry reads and updates the equipment registry, a JSON file
// listing each machine with its maintenance schedule per frequency.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/rahul/maintbot/internal/schedule"
)

var (
	ErrInvalid           = errors.New("invalid equipment registry")
	ErrEquipmentNotFound = errors.New("equipment not found")
	ErrNoSchedule        = errors.New("equipment has no such maintenance schedule")
	ErrInvalidDate       = errors.New("invalid date, use YYYY-MM-DD")
)

// Schedule is one frequency's task list and its own last completion date.
type Schedule struct {
	Tasks               []string `json:"tasks"`
	LastMaintenanceDate string   `json:"last_maintenance_date,omitempty"`
	// Extra holds members the file carries beyond the ones above.
	Extra map[string]json.RawMessage `json:"-"`
}

type Equipment struct {
	Name                string                          `json:"equipment_name"`
	SerialNumber        string                          `json:"serial_number,omitempty"`
	Location            string                          `json:"location,omitempty"`
	LastMaintenanceDate string                          `json:"last_maintenance_date,omitempty"`
	Schedule            map[schedule.Frequency]Schedule `json:"maintenance_schedule"`
	Extra               map[string]json.RawMessage      `json:"-"`

	// schedules under keys that are not a known frequency; kept for Save
	otherSchedules map[string]json.RawMessage
}

func (e Equipment) String() string {
	if e.SerialNumber == "" {
		return e.Name
	}
	return fmt.Sprintf("%s (S/N: %s)", e.Name, e.SerialNumber)
}

// Frequencies returns the scheduled frequencies in sheet order.
func (e Equipment) Frequencies() []schedule.Frequency {
	var out []schedule.Frequency
	for _, f := range schedule.Frequencies {
		if _, ok := e.Schedule[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// LastDate is the frequency's own last date, else the equipment-wide one.
func (e Equipment) LastDate(f schedule.Frequency) string {
	if s, ok := e.Schedule[f]; ok && s.LastMaintenanceDate != "" {
		return s.LastMaintenanceDate
	}
	return e.LastMaintenanceDate
}

// TaskCounts returns the number of tasks per scheduled frequency.
func (e Equipment) TaskCounts() map[schedule.Frequency]int {
	counts := make(map[schedule.Frequency]int, len(e.Schedule))
	for f, s := range e.Schedule {
		counts[f] = len(s.Tasks)
	}
	return counts
}

func (e Equipment) validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return errors.New("equipment_name is required")
	}
	if e.LastMaintenanceDate != "" {
		if _, err := schedule.ParseDate(e.LastMaintenanceDate); err != nil {
			return fmt.Errorf("%s: last_maintenance_date %q: %w", e.Name, e.LastMaintenanceDate, ErrInvalidDate)
		}
	}
	for key := range e.otherSchedules {
		log.WithFields(log.Fields{"equipment": e.String(), "frequency": key}).
			Warn("unknown maintenance frequency in registry, schedule ignored")
	}
	for f, s := range e.Schedule {
		if s.LastMaintenanceDate == "" {
			continue
		}
		if _, err := schedule.ParseDate(s.LastMaintenanceDate); err != nil {
			return fmt.Errorf("%s: %s last_maintenance_date %q: %w", e.Name, f, s.LastMaintenanceDate, ErrInvalidDate)
		}
	}
	return nil
}

// Lookup returns the index of the matching equipment or -1. An exact serial
// match wins over an exact name match, which wins over a name substring.
func Lookup(list []Equipment, name, serial string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	serial = strings.ToLower(strings.TrimSpace(serial))

	if serial != "" {
		for i, e := range list {
			if strings.ToLower(strings.TrimSpace(e.SerialNumber)) == serial {
				return i
			}
		}
	}
	if name == "" {
		return -1
	}
	for i, e := range list {
		if strings.ToLower(strings.TrimSpace(e.Name)) == name {
			return i
		}
	}
	for i, e := range list {
		if strings.Contains(strings.ToLower(e.Name), name) {
			return i
		}
	}
	return -1
}
