package governance

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request contains the context of a chat command to be evaluated.
type Request struct {
	Command   string
	Arguments string
	User      string
	ChatID    string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

// PolicyEngine evaluates chat commands against a set of rules.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine denies listed commands and argument patterns. When
// allow lists are set, only the listed users or chats pass.
type DefaultPolicyEngine struct {
	DeniedCommands map[string]bool
	DeniedRegex    []*regexp.Regexp
	AllowedUsers   map[string]bool
	AllowedChats   map[string]bool
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		DeniedCommands: make(map[string]bool),
		DeniedRegex:    make([]*regexp.Regexp, 0),
		AllowedUsers:   make(map[string]bool),
		AllowedChats:   make(map[string]bool),
	}
}

func (e *DefaultPolicyEngine) DenyCommand(name string) {
	e.DeniedCommands[name] = true
}

func (e *DefaultPolicyEngine) DenyArguments(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.DeniedRegex = append(e.DeniedRegex, re)
	return nil
}

func (e *DefaultPolicyEngine) AllowUser(user string) {
	e.AllowedUsers[strings.ToLower(user)] = true
}

func (e *DefaultPolicyEngine) AllowChat(chatID string) {
	e.AllowedChats[chatID] = true
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if len(e.AllowedUsers) > 0 && !e.AllowedUsers[strings.ToLower(req.User)] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("User '%s' is not allowed to run maintenance commands", req.User),
		}, nil
	}
	if len(e.AllowedChats) > 0 && !e.AllowedChats[req.ChatID] {
		return Result{
			Effect: EffectDeny,
			Reason: "This chat is not allowed to run maintenance commands",
		}, nil
	}

	if e.DeniedCommands[req.Command] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("Command '%s' is restricted by system policy", req.Command),
		}, nil
	}

	for _, re := range e.DeniedRegex {
		if re.MatchString(req.Arguments) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("Arguments match restricted pattern: %s", re.String()),
			}, nil
		}
	}

	return Result{
		Effect: EffectAllow,
		Reason: "Approved by default policy",
	}, nil
}
