package agent

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/rahul/maintbot/internal/commands"
	"github.com/rahul/maintbot/internal/governance"
	"github.com/rahul/maintbot/internal/observability"
)

// Message is one inbound chat message.
type Message struct {
	ChatID string
	User   string
	Text   string
}

type Reply struct {
	Text string
	// Public replies go to the whole channel.
	Public bool
}

// Brain turns a chat message into a reply.
type Brain interface {
	Think(ctx context.Context, msg Message) (Reply, error)
}

// CommandBrain parses messages strictly and, when that fails and a model is
// configured, asks the Interpreter to map free text onto a command.
type CommandBrain struct {
	Commands    *commands.Registry
	Policy      governance.PolicyEngine
	Interpreter *Interpreter
	Logger      *observability.Logger
}

func NewCommandBrain(registry *commands.Registry, policy governance.PolicyEngine, interpreter *Interpreter, logger *observability.Logger) *CommandBrain {
	return &CommandBrain{
		Commands:    registry,
		Policy:      policy,
		Interpreter: interpreter,
		Logger:      logger,
	}
}

func (b *CommandBrain) Think(ctx context.Context, msg Message) (Reply, error) {
	req, err := commands.Parse(msg.Text)
	if errors.Is(err, commands.ErrInvalidFormat) && b.Interpreter != nil {
		req, err = b.Interpreter.Interpret(ctx, msg)
		if err != nil {
			log.WithError(err).WithField("chat_id", msg.ChatID).Debug("interpreter could not map message")
		}
	}
	if err != nil {
		return Reply{Text: commands.InvalidFormat().Text}, nil
	}

	if b.Logger != nil {
		b.Logger.LogCommand(msg.ChatID, msg.User, string(req.Kind), msg.Text)
	}

	if b.Policy != nil {
		res, err := b.Policy.Evaluate(ctx, governance.Request{
			Command:   string(req.Kind),
			Arguments: msg.Text,
			User:      msg.User,
			ChatID:    msg.ChatID,
		})
		if err != nil {
			return Reply{}, fmt.Errorf("policy evaluation failed: %w", err)
		}
		if b.Logger != nil {
			b.Logger.LogPolicyCheck(msg.ChatID, string(req.Kind), string(res.Effect), res.Reason)
		}
		if res.Effect == governance.EffectDeny {
			return Reply{Text: "⛔ " + res.Reason}, nil
		}
	}

	if req.Kind == commands.KindUpdate {
		observability.SetStatus(observability.RoleUpdating, firstNonEmpty(req.EquipmentName, req.SerialNumber))
		defer observability.SetStatus(observability.RoleIdle, "")
	}

	resp, err := b.Commands.Dispatch(ctx, req, commands.Caller{User: msg.User, ChatID: msg.ChatID})
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: resp.Text, Public: resp.Public}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
