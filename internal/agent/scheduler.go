package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rahul/maintbot/internal/observability"
	"github.com/rahul/maintbot/internal/registry"
	"github.com/rahul/maintbot/internal/schedule"
	"github.com/rahul/maintbot/internal/store"
)

type Messenger interface {
	Send(chatID string, text string) error
}

type DueSource interface {
	Due(now time.Time, alertDaysBefore int) ([]registry.DueItem, error)
}

type NotificationStore interface {
	WasNotified(ctx context.Context, n store.NotificationRecord) (bool, error)
	MarkNotified(ctx context.Context, n store.NotificationRecord) error
}

// Target is one chat that receives due reminders.
type Target struct {
	Messenger Messenger
	ChatID    string
}

// Scheduler periodically announces due maintenance. Each due date of each
// equipment frequency is announced once.
type Scheduler struct {
	Due             DueSource
	Store           NotificationStore
	Targets         []Target
	AlertDaysBefore int
	Interval        time.Duration
	Logger          *observability.Logger
	now             func() time.Time
}

func NewScheduler(due DueSource, notified NotificationStore, targets []Target, alertDaysBefore int, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		Due:             due,
		Store:           notified,
		Targets:         targets,
		AlertDaysBefore: alertDaysBefore,
		Interval:        interval,
		now:             time.Now,
	}
}

// Start checks once right away and then every Interval until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.WithField("interval", s.Interval).Info("Maintenance scheduler started...")
	s.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Scheduler) poll(ctx context.Context) {
	if _, err := s.Check(ctx); err != nil {
		log.WithError(err).Error("Error checking due maintenance")
	}
}

// Check sends reminders for due items not yet announced and returns the
// number of items announced.
func (s *Scheduler) Check(ctx context.Context) (int, error) {
	items, err := s.Pending(ctx)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		log.Debug("No maintenance due at this time.")
		return 0, nil
	}

	observability.SetStatus(observability.RoleNotifying, fmt.Sprintf("%d due item(s)", len(items)))
	defer observability.SetStatus(observability.RoleIdle, "")

	text := FormatDue(items)
	delivered := false
	for _, t := range s.Targets {
		if err := t.Messenger.Send(t.ChatID, text); err != nil {
			log.WithError(err).WithField("chat_id", t.ChatID).Error("Error sending due notification")
			continue
		}
		delivered = true
		if s.Logger != nil {
			for _, it := range items {
				s.Logger.LogNotification(t.ChatID, it.Equipment.Name, string(it.Frequency), it.DueDate.Format(schedule.DateLayout))
			}
		}
	}
	if !delivered {
		return 0, fmt.Errorf("due notification not delivered to any of %d target(s)", len(s.Targets))
	}

	for _, it := range items {
		if err := s.Store.MarkNotified(ctx, record(it, s.now())); err != nil {
			log.WithError(err).WithField("equipment", it.Equipment.Name).Error("Error marking notification")
		}
	}
	return len(items), nil
}

// Pending lists the due items that were not announced yet.
func (s *Scheduler) Pending(ctx context.Context) ([]registry.DueItem, error) {
	items, err := s.Due.Due(s.now(), s.AlertDaysBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to load due maintenance: %w", err)
	}
	var pending []registry.DueItem
	for _, it := range items {
		sent, err := s.Store.WasNotified(ctx, record(it, time.Time{}))
		if err != nil {
			return nil, err
		}
		if !sent {
			pending = append(pending, it)
		}
	}
	return pending, nil
}

func record(it registry.DueItem, sentAt time.Time) store.NotificationRecord {
	return store.NotificationRecord{
		Equipment: it.Equipment.Name,
		Serial:    it.Equipment.SerialNumber,
		Frequency: string(it.Frequency),
		DueDate:   it.DueDate.Format(schedule.DateLayout),
		SentAt:    sentAt,
	}
}

// FormatDue renders the reminder in chat markdown.
func FormatDue(items []registry.DueItem) string {
	var b strings.Builder
	b.WriteString("⚠️ *Equipment Maintenance Due*\n")
	for _, it := range items {
		b.WriteString("\n*" + it.Equipment.Name + "*")
		if it.Equipment.SerialNumber != "" {
			b.WriteString(" (S/N: " + it.Equipment.SerialNumber + ")")
		}
		if it.Equipment.Location != "" {
			b.WriteString(" - " + it.Equipment.Location)
		}
		fmt.Fprintf(&b, "\n*Frequency:* %s, due %s (last done %s)\n", it.Frequency.Label(), it.DueDate.Format(schedule.DateLayout), it.LastDate)
		if len(it.Tasks) > 0 {
			b.WriteString("*Maintenance Steps:*\n")
			for i, task := range it.Tasks {
				fmt.Fprintf(&b, "%d. %s\n", i+1, task)
			}
		}
	}
	return b.String()
}
