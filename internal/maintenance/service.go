// Package maintenance records a reported maintenance in the equipment
// registry, the workbook log and the audit store.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/rahul/maintbot/internal/maintlog"
	"github.com/rahul/maintbot/internal/registry"
	"github.com/rahul/maintbot/internal/schedule"
	"github.com/rahul/maintbot/internal/store"
)

type Registry interface {
	Find(name, serial string) (registry.Equipment, error)
	RecordMaintenance(name, serial string, freq schedule.Frequency, date string) (registry.Equipment, error)
}

type LogUpdater interface {
	Update(ctx context.Context, req maintlog.UpdateRequest) maintlog.UpdateResult
}

type AuditRecorder interface {
	RecordUpdate(ctx context.Context, r store.UpdateRecord) (int64, error)
}

// EventSink receives one event per processed report.
type EventSink interface {
	LogUpdate(chatID, requestID, equipment, frequency string, success bool, message string)
}

// Report is a maintenance someone says they performed.
type Report struct {
	EquipmentName string
	SerialNumber  string
	Frequency     schedule.Frequency
	Date          string // YYYY-MM-DD, today when empty
	User          string
	ChatID        string
}

type Outcome struct {
	RequestID       string
	EquipmentName   string
	SerialNumber    string
	Location        string
	Frequency       schedule.Frequency
	Date            string
	User            string
	RegistryUpdated bool
	Warnings        []string
	Result          maintlog.UpdateResult
}

func (o Outcome) Success() bool { return o.Result.Success }

type Service struct {
	registry Registry
	updater  LogUpdater
	audit    AuditRecorder
	events   EventSink
	now      func() time.Time
}

// NewService wires the collaborators. registry and audit may be nil.
func NewService(reg Registry, updater LogUpdater, audit AuditRecorder) *Service {
	return &Service{
		registry: reg,
		updater:  updater,
		audit:    audit,
		now:      time.Now,
	}
}

// WithEvents sets the sink notified after every report.
func (s *Service) WithEvents(events EventSink) *Service {
	s.events = events
	return s
}

func (s *Service) Record(ctx context.Context, r Report) Outcome {
	out := Outcome{
		RequestID:     uuid.NewString(),
		EquipmentName: Sanitize(r.EquipmentName),
		SerialNumber:  Sanitize(r.SerialNumber),
		Frequency:     r.Frequency,
		Date:          Sanitize(r.Date),
		User:          Sanitize(r.User),
	}
	if out.Date == "" {
		out.Date = s.now().Format(schedule.DateLayout)
	}
	if out.User == "" {
		out.User = "Unknown"
	}
	logger := log.WithFields(log.Fields{
		"request_id": out.RequestID,
		"user":       out.User,
		"chat_id":    r.ChatID,
	})

	if s.registry != nil {
		s.updateRegistry(&out, logger)
	}

	out.Result = s.updater.Update(ctx, maintlog.UpdateRequest{
		EquipmentName: out.EquipmentName,
		SerialNumber:  out.SerialNumber,
		Frequency:     out.Frequency,
		Date:          out.Date,
		UserLabel:     out.User,
	})
	if out.Result.LowConfidence {
		out.Warnings = append(out.Warnings, "step columns were guessed without a registry schedule, please verify the ticked columns")
	}
	if out.Result.DateFallback {
		out.Warnings = append(out.Warnings, fmt.Sprintf("date %q was written as given", out.Date))
	}

	if s.audit != nil {
		_, err := s.audit.RecordUpdate(ctx, store.UpdateRecord{
			RequestID: out.RequestID,
			ChatID:    r.ChatID,
			User:      out.User,
			Equipment: out.EquipmentName,
			Serial:    out.SerialNumber,
			Frequency: string(out.Frequency),
			Date:      out.Date,
			Success:   out.Result.Success,
			Sheet:     out.Result.Sheet,
			Row:       out.Result.Row,
			Message:   out.Result.Message,
			CreatedAt: s.now(),
		})
		if err != nil {
			logger.WithError(err).Error("failed to write audit record")
		}
	}

	if s.events != nil {
		s.events.LogUpdate(r.ChatID, out.RequestID, out.EquipmentName, string(out.Frequency), out.Result.Success, out.Result.Message)
	}
	logger.WithFields(log.Fields{
		"equipment": out.EquipmentName,
		"success":   out.Result.Success,
		"registry":  out.RegistryUpdated,
	}).Debug("maintenance report processed")
	return out
}

// updateRegistry resolves the canonical identifiers and stores the date.
// Registry problems never block the workbook update.
func (s *Service) updateRegistry(out *Outcome, logger *log.Entry) {
	eq, err := s.registry.Find(out.EquipmentName, out.SerialNumber)
	if err != nil {
		logger.WithError(err).Warn("equipment not in registry")
		out.Warnings = append(out.Warnings, "equipment is not in the registry, due dates were not updated")
		return
	}
	out.EquipmentName, out.SerialNumber, out.Location = eq.Name, eq.SerialNumber, eq.Location

	if _, err := s.registry.RecordMaintenance(eq.Name, eq.SerialNumber, out.Frequency, out.Date); err != nil {
		logger.WithError(err).Warn("registry not updated")
		switch {
		case errors.Is(err, registry.ErrInvalidDate):
			out.Warnings = append(out.Warnings, "date is not YYYY-MM-DD, due dates were not updated")
		case errors.Is(err, registry.ErrNoSchedule):
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s has no %s schedule in the registry", eq.Name, out.Frequency.Label()))
		default:
			out.Warnings = append(out.Warnings, "registry could not be updated: "+err.Error())
		}
		return
	}
	out.RegistryUpdated = true
}
