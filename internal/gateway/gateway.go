package gateway

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/rahul/maintbot/internal/agent"
)

// Messenger defines the interface for chat gateways (Telegram, Discord, etc.)
type Messenger interface {
	// Start listens for messages until ctx is done or Stop is called
	Start(ctx context.Context) error
	// Send sends a message to a specific chat
	Send(chatID string, text string) error
	// Stop gracefully shuts down the gateway
	Stop() error
}

const troubleReply = "❌ Something went wrong while handling that request. Please try again."

// relay hands one message to the brain and always returns something to say.
func relay(ctx context.Context, brain agent.Brain, msg agent.Message) agent.Reply {
	reply, err := brain.Think(ctx, msg)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"chat_id": msg.ChatID,
			"user":    msg.User,
		}).Error("Error handling message")
		return agent.Reply{Text: troubleReply}
	}
	return reply
}
