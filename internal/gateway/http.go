package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/rahul/maintbot/internal/agent"
	"github.com/rahul/maintbot/internal/observability"
)

// HTTPGateway serves slash-command webhooks (Slack style form posts) and a
// health check.
type HTTPGateway struct {
	Brain agent.Brain
	// Token, when set, must match the form's token field.
	Token   string
	Service string
	server  *http.Server
}

type slashResponse struct {
	ResponseType string `json:"response_type,omitempty"`
	Text         string `json:"text"`
}

type healthResponse struct {
	Status  string                 `json:"status"`
	Service string                 `json:"service"`
	Runtime observability.Snapshot `json:"runtime"`
}

func NewHTTPGateway(listen, token string, brain agent.Brain) *HTTPGateway {
	g := &HTTPGateway{
		Brain:   brain,
		Token:   token,
		Service: "equipment-maintenance-bot",
	}
	g.server = &http.Server{
		Addr:              listen,
		Handler:           g.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return g
}

// Router initialises a new http router and applies all routes
func (g *HTTPGateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	return g.applyRoutes(r)
}

func (g *HTTPGateway) applyRoutes(r chi.Router) chi.Router {
	r.Route("/slack", func(r chi.Router) {
		r.Post("/command", g.command(""))
		r.Post("/list", g.command("list"))
		r.Post("/interactive", g.interactive)
	})
	r.Get("/health", g.health)

	return r
}

// command handles a slash command. A non-empty fixed text replaces whatever
// the form carries.
func (g *HTTPGateway) command(fixed string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			sendJSON(w, http.StatusBadRequest, slashResponse{Text: "Malformed request"})
			return
		}
		if !g.authorized(r.PostForm.Get("token")) {
			sendJSON(w, http.StatusForbidden, slashResponse{Text: "Invalid token"})
			return
		}

		text := r.PostForm.Get("text")
		if fixed != "" {
			text = fixed
		}
		chatID := r.PostForm.Get("channel_id")
		if chatID == "" {
			chatID = r.PostForm.Get("channel_name")
		}

		reply := relay(r.Context(), g.Brain, agent.Message{
			ChatID: chatID,
			User:   r.PostForm.Get("user_name"),
			Text:   text,
		})

		resp := slashResponse{ResponseType: "ephemeral", Text: reply.Text}
		if reply.Public {
			resp.ResponseType = "in_channel"
		}
		sendJSON(w, http.StatusOK, resp)
	}
}

func (g *HTTPGateway) interactive(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, slashResponse{Text: "OK"})
}

func (g *HTTPGateway) health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: g.Service,
		Runtime: observability.GetSnapshot(),
	})
}

func (g *HTTPGateway) authorized(token string) bool {
	if g.Token == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(g.Token)) == 1
}

func (g *HTTPGateway) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP gateway listening on %s", g.server.Addr)
		errCh <- g.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return g.Stop()
	}
}

// Send is not supported: slash commands only answer the request that carried them.
func (g *HTTPGateway) Send(chatID string, text string) error {
	return errors.New("http gateway cannot push messages")
}

func (g *HTTPGateway) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.server.Shutdown(ctx)
}

func sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}
