package gateway

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/rahul/maintbot/internal/agent"
)

// discordMaxLen is the longest message Discord accepts.
const discordMaxLen = 2000

type DiscordGateway struct {
	Session *discordgo.Session
	Brain   agent.Brain
	// Prefix, when set, is required at the start of channel messages.
	Prefix string
}

func NewDiscordGateway(token string, brain agent.Brain) (*DiscordGateway, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	return &DiscordGateway{
		Session: s,
		Brain:   brain,
		Prefix:  "/maintenance",
	}, nil
}

func (dg *DiscordGateway) Start(ctx context.Context) error {
	dg.Session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		dg.onMessage(ctx, s, m)
	})
	if err := dg.Session.Open(); err != nil {
		return err
	}
	log.Info("Discord session open")

	<-ctx.Done()
	return nil
}

func (dg *DiscordGateway) onMessage(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	text, ok := dg.accept(m.Content, m.GuildID == "")
	if !ok {
		return
	}

	reply := relay(ctx, dg.Brain, agent.Message{
		ChatID: m.ChannelID,
		User:   m.Author.Username,
		Text:   text,
	})

	var err error
	if reply.Public {
		_, err = s.ChannelMessageSend(m.ChannelID, truncate(reply.Text, discordMaxLen))
	} else {
		_, err = s.ChannelMessageSendReply(m.ChannelID, truncate(reply.Text, discordMaxLen), m.Reference())
	}
	if err != nil {
		log.WithError(err).Error("Error sending discord reply")
	}
}

// accept reports whether a message is addressed to the bot. Direct messages
// always are; channel messages need the prefix.
func (dg *DiscordGateway) accept(content string, direct bool) (string, bool) {
	content = strings.TrimSpace(content)
	if direct || dg.Prefix == "" {
		return content, content != ""
	}
	if len(content) < len(dg.Prefix) || !strings.EqualFold(content[:len(dg.Prefix)], dg.Prefix) {
		return "", false
	}
	return content, true
}

func (dg *DiscordGateway) Send(chatID string, text string) error {
	_, err := dg.Session.ChannelMessageSend(chatID, truncate(text, discordMaxLen))
	return err
}

func (dg *DiscordGateway) Stop() error {
	return dg.Session.Close()
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
