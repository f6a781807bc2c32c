package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/maintbot/internal/agent"
)

type echoBrain struct {
	got    []agent.Message
	public bool
	err    error
}

func (b *echoBrain) Think(ctx context.Context, msg agent.Message) (agent.Reply, error) {
	b.got = append(b.got, msg)
	if b.err != nil {
		return agent.Reply{}, b.err
	}
	return agent.Reply{Text: "echo: " + msg.Text, Public: b.public}, nil
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) (*httptest.ResponseRecorder, slashResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body slashResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestSlashCommand(t *testing.T) {
	brain := &echoBrain{public: true}
	g := NewHTTPGateway(":0", "secret", brain)

	rec, body := postForm(t, g.Router(), "/slack/command", url.Values{
		"token":        {"secret"},
		"text":         {`"Oil Free Air Compressor" monthly 2025-11-15`},
		"user_name":    {"ag"},
		"channel_id":   {"C024BE91L"},
		"channel_name": {"maintenance"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "in_channel", body.ResponseType)
	assert.Equal(t, `echo: "Oil Free Air Compressor" monthly 2025-11-15`, body.Text)

	require.Len(t, brain.got, 1)
	assert.Equal(t, "ag", brain.got[0].User)
	assert.Equal(t, "C024BE91L", brain.got[0].ChatID)
}

func TestSlashCommandEphemeral(t *testing.T) {
	brain := &echoBrain{}
	g := NewHTTPGateway(":0", "", brain)

	_, body := postForm(t, g.Router(), "/slack/command", url.Values{"text": {"status"}, "channel_name": {"maintenance"}})
	assert.Equal(t, "ephemeral", body.ResponseType)
	assert.Equal(t, "maintenance", brain.got[0].ChatID, "channel name is used when there is no id")
}

func TestSlashCommandRejectsBadToken(t *testing.T) {
	brain := &echoBrain{}
	g := NewHTTPGateway(":0", "secret", brain)

	rec, body := postForm(t, g.Router(), "/slack/command", url.Values{"token": {"wrong"}, "text": {"list"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid token", body.Text)
	assert.Empty(t, brain.got)
}

func TestSlashListAlias(t *testing.T) {
	brain := &echoBrain{}
	g := NewHTTPGateway(":0", "", brain)

	_, body := postForm(t, g.Router(), "/slack/list", url.Values{"text": {"ignored"}})
	assert.Equal(t, "echo: list", body.Text)
}

func TestSlashCommandBrainError(t *testing.T) {
	brain := &echoBrain{err: errors.New("boom")}
	g := NewHTTPGateway(":0", "", brain)

	rec, body := postForm(t, g.Router(), "/slack/command", url.Values{"text": {"list"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, troubleReply, body.Text)
}

func TestInteractive(t *testing.T) {
	g := NewHTTPGateway(":0", "", &echoBrain{})
	_, body := postForm(t, g.Router(), "/slack/interactive", url.Values{"payload": {"{}"}})
	assert.Equal(t, "OK", body.Text)
}

func TestHealth(t *testing.T) {
	g := NewHTTPGateway(":0", "", &echoBrain{})
	rec := httptest.NewRecorder()
	g.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "equipment-maintenance-bot", body.Service)
	assert.NotEmpty(t, body.Runtime.Role)
}

func TestHTTPGatewayCannotPush(t *testing.T) {
	g := NewHTTPGateway(":0", "", &echoBrain{})
	assert.Error(t, g.Send("C1", "hello"))
}
