package observability

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetFormatter(&log.JSONFormatter{})
	level := log.GetLevel()
	log.SetLevel(log.DebugLevel)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(level)
	})
	return &buf
}

func TestLogEmitsStructuredFields(t *testing.T) {
	buf := captureLogs(t)
	l := NewLogger(t.TempDir())

	l.LogPolicyCheck("C1", "update", "deny", "not allowed")

	var fields map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fields))
	assert.Equal(t, "policy_check", fields["event"])
	assert.Equal(t, "C1", fields["chat_id"])
	assert.Equal(t, "deny", fields["effect"])
	assert.Equal(t, "info", fields["level"])
}

func TestLogLLMWritesTranscript(t *testing.T) {
	captureLogs(t)
	dir := t.TempDir()
	l := NewLogger(dir)

	l.LogLLM("C1", "log the compressor", "", []string{"run_command"})
	l.LogCommand("C1", "AG", "list", "list")

	f, err := os.Open(filepath.Join(dir, "llm.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var lines []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var evt Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &evt))
		lines = append(lines, evt)
	}
	require.Len(t, lines, 1, "only llm events reach the transcript")
	assert.Equal(t, EventTypeLLM, lines[0].Type)
	assert.False(t, lines[0].Timestamp.IsZero())
}

func TestLLMTranscriptRotates(t *testing.T) {
	captureLogs(t)
	dir := t.TempDir()
	l := NewLogger(dir)
	l.maxSize = 10

	l.LogLLM("C1", "first", "", nil)
	l.LogLLM("C1", "second", "", nil)

	old, err := os.ReadFile(filepath.Join(dir, "llm.jsonl.old"))
	require.NoError(t, err)
	assert.Contains(t, string(old), "first")
	cur, err := os.ReadFile(filepath.Join(dir, "llm.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(cur), "second")
	assert.NotContains(t, string(cur), "first")
}

func TestStatusCounters(t *testing.T) {
	captureLogs(t)
	before := GetSnapshot()

	l := NewLogger(t.TempDir())
	l.LogUpdate("C1", "req-1", "Compressor", "monthly", true, "ok")
	l.LogUpdate("C1", "req-2", "Compressor", "monthly", false, "no sheet")
	SetStatus(RoleUpdating, "Compressor")

	s := GetSnapshot()
	assert.Equal(t, before.Succeeded+1, s.Succeeded)
	assert.Equal(t, before.Failed+1, s.Failed)
	assert.Equal(t, RoleUpdating, s.Role)
	assert.Equal(t, "Compressor", s.ActiveTask)

	SetStatus(RoleIdle, "")
	role, task, _ := GetStatus()
	assert.Equal(t, RoleIdle, role)
	assert.Empty(t, task)
}
