package commands

import (
	"context"
	"fmt"
	"sort"
)

// Caller is who sent a command and from where.
type Caller struct {
	User   string
	ChatID string
}

// Response is a command's reply. Public replies are shown to the whole
// channel, the rest only to the caller where the transport supports it.
type Response struct {
	Text   string
	Public bool
}

// Command defines the interface for all chat commands.
type Command interface {
	Name() Kind
	Description() string
	Parameters() map[string]any // JSON Schema for the command's arguments
	Execute(ctx context.Context, req Request, caller Caller) (Response, error)
}

// Registry manages the set of available commands.
type Registry struct {
	Commands map[Kind]Command
}

func NewRegistry() *Registry {
	return &Registry{
		Commands: make(map[Kind]Command),
	}
}

func (r *Registry) Register(c Command) {
	r.Commands[c.Name()] = c
}

func (r *Registry) Get(name Kind) Command {
	return r.Commands[name]
}

// List returns the registered commands sorted by name.
func (r *Registry) List() []Command {
	out := make([]Command, 0, len(r.Commands))
	for _, c := range r.Commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (r *Registry) Dispatch(ctx context.Context, req Request, caller Caller) (Response, error) {
	c := r.Get(req.Kind)
	if c == nil {
		return Response{}, fmt.Errorf("unknown command: %s", req.Kind)
	}
	return c.Execute(ctx, req, caller)
}
