package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rahul/maintbot/internal/schedule"
)

// Store is the registry file. It is re-read on every call so hand edits are
// picked up without a restart.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load() ([]Equipment, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read equipment registry: %w", err)
	}
	var list []Equipment
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, s.path, err)
	}
	for i, e := range list {
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalid, i+1, err)
		}
	}
	return list, nil
}

// Save replaces the registry file atomically.
func (s *Store) Save(list []Equipment) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".equipment-*.json")
	if err != nil {
		return fmt.Errorf("failed to save equipment registry: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save equipment registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save equipment registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to save equipment registry: %w", err)
	}
	return nil
}

func (s *Store) Find(name, serial string) (Equipment, error) {
	list, err := s.Load()
	if err != nil {
		return Equipment{}, err
	}
	i := Lookup(list, name, serial)
	if i < 0 {
		return Equipment{}, fmt.Errorf("%w: %s", ErrEquipmentNotFound, describe(name, serial))
	}
	return list[i], nil
}

// TaskCounts reports the task-list length per scheduled frequency. ok is
// false when the equipment is unknown or the registry cannot be read.
func (s *Store) TaskCounts(name, serial string) (map[schedule.Frequency]int, bool) {
	e, err := s.Find(name, serial)
	if err != nil {
		log.WithError(err).WithField("equipment", describe(name, serial)).Debug("no registry entry")
		return nil, false
	}
	return e.TaskCounts(), true
}

// RecordMaintenance stores date as the frequency's last maintenance date. The
// equipment-wide date is also set when that frequency is the only one.
func (s *Store) RecordMaintenance(name, serial string, freq schedule.Frequency, date string) (Equipment, error) {
	if _, err := schedule.ParseDate(date); err != nil {
		return Equipment{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.Load()
	if err != nil {
		return Equipment{}, err
	}
	i := Lookup(list, name, serial)
	if i < 0 {
		return Equipment{}, fmt.Errorf("%w: %s", ErrEquipmentNotFound, describe(name, serial))
	}
	e := list[i]
	sched, ok := e.Schedule[freq]
	if !ok {
		return Equipment{}, fmt.Errorf("%w: %s has no %s schedule", ErrNoSchedule, e, freq.Label())
	}

	sched.LastMaintenanceDate = date
	e.Schedule[freq] = sched
	if len(e.Schedule) == 1 {
		e.LastMaintenanceDate = date
	}
	list[i] = e

	if err := s.Save(list); err != nil {
		return Equipment{}, err
	}
	log.WithFields(log.Fields{
		"equipment": e.String(),
		"frequency": freq,
		"date":      date,
	}).Info("registry maintenance date updated")
	return e, nil
}

// DueItem is one frequency of one equipment that needs maintenance.
type DueItem struct {
	Equipment Equipment
	Frequency schedule.Frequency
	Tasks     []string
	LastDate  string
	DueDate   time.Time
}

// Due lists maintenance falling due on or before now plus alertDaysBefore
// days. Entries without a last date are never due.
func (s *Store) Due(now time.Time, alertDaysBefore int) ([]DueItem, error) {
	list, err := s.Load()
	if err != nil {
		return nil, err
	}
	return DueAt(list, now, alertDaysBefore), nil
}

func DueAt(list []Equipment, now time.Time, alertDaysBefore int) []DueItem {
	horizon := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, alertDaysBefore)

	var due []DueItem
	for _, e := range list {
		for _, f := range e.Frequencies() {
			last := e.LastDate(f)
			if last == "" {
				continue
			}
			t, err := schedule.ParseDate(last)
			if err != nil {
				continue
			}
			next := f.NextDue(t)
			if next.After(horizon) {
				continue
			}
			due = append(due, DueItem{
				Equipment: e,
				Frequency: f,
				Tasks:     e.Schedule[f].Tasks,
				LastDate:  last,
				DueDate:   next,
			})
		}
	}
	return due
}

func describe(name, serial string) string {
	switch {
	case name != "" && serial != "":
		return fmt.Sprintf("%s (S/N: %s)", name, serial)
	case serial != "":
		return "S/N: " + serial
	}
	return name
}
