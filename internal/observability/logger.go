package observability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeUpdate       EventType = "update"
	EventTypeCommand      EventType = "command"
	EventTypePolicyCheck  EventType = "policy_check"
	EventTypeNotification EventType = "notification"
	EventTypeHeartbeat    EventType = "heartbeat"
	EventTypeLLM          EventType = "llm"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	ChatID    string    `json:"chat_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging.
type Logger struct {
	llmLogPath string
	maxSize    int64
}

// NewLogger keeps LLM transcripts under dir, "logs" when empty.
func NewLogger(dir string) *Logger {
	if dir == "" {
		dir = "logs"
	}
	return &Logger{
		llmLogPath: filepath.Join(dir, "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// Log emits the event through logrus. LLM events are also appended to the
// transcript file.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	entry := log.WithField("event", evt.Type)
	if evt.ChatID != "" {
		entry = entry.WithField("chat_id", evt.ChatID)
	}
	if evt.RequestID != "" {
		entry = entry.WithField("request_id", evt.RequestID)
	}
	switch data := evt.Data.(type) {
	case map[string]any:
		entry = entry.WithFields(log.Fields(data))
	case map[string]string:
		for k, v := range data {
			entry = entry.WithField(k, v)
		}
	default:
		entry = entry.WithField("data", data)
	}

	if evt.Type == EventTypeHeartbeat || evt.Type == EventTypeLLM {
		entry.Debug(string(evt.Type))
	} else {
		entry.Info(string(evt.Type))
	}

	if evt.Type == EventTypeLLM {
		data, err := json.Marshal(evt)
		if err != nil {
			log.WithError(err).Warn("failed to marshal llm event")
			return
		}
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.WithError(err).Warn("failed to create log directory")
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.WithError(err).Warn("failed to open log file")
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.WithError(err).Warn("failed to write to log file")
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogCommand(chatID, user, command, text string) {
	l.Log(Event{
		Type:   EventTypeCommand,
		ChatID: chatID,
		Data: map[string]string{
			"user":    user,
			"command": command,
			"text":    text,
		},
	})
}

func (l *Logger) LogUpdate(chatID, requestID, equipment, frequency string, success bool, message string) {
	RecordUpdate(success)
	l.Log(Event{
		Type:      EventTypeUpdate,
		ChatID:    chatID,
		RequestID: requestID,
		Data: map[string]any{
			"equipment": equipment,
			"frequency": frequency,
			"success":   success,
			"message":   message,
		},
	})
}

func (l *Logger) LogPolicyCheck(chatID, command, effect, reason string) {
	l.Log(Event{
		Type:   EventTypePolicyCheck,
		ChatID: chatID,
		Data: map[string]string{
			"command": command,
			"effect":  effect,
			"reason":  reason,
		},
	})
}

func (l *Logger) LogNotification(chatID, equipment, frequency, dueDate string) {
	l.Log(Event{
		Type:   EventTypeNotification,
		ChatID: chatID,
		Data: map[string]string{
			"equipment": equipment,
			"frequency": frequency,
			"due_date":  dueDate,
		},
	})
}

func (l *Logger) LogHeartbeat() {
	Heartbeat()
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}

func (l *Logger) LogLLM(chatID string, prompt any, response string, toolCalls any) {
	l.Log(Event{
		Type:   EventTypeLLM,
		ChatID: chatID,
		Data: map[string]any{
			"prompt":     prompt,
			"response":   response,
			"tool_calls": toolCalls,
		},
	})
}
