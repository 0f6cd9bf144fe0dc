// Package discord provides the Discord transport for quotecard. It owns the
// discordgo.Session lifecycle, normalises messages, button taps, and the
// /quote slash command into session events, and delivers replies and the
// finished card back through [Sender].
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"quotecard/internal/session"
)

// Config holds Discord bot configuration.
type Config struct {
	// Token is the Discord bot token (e.g., "MTIz...").
	Token string `yaml:"token"`

	// GuildID is the target guild. When set, messages from other guilds
	// are ignored; DMs are always accepted.
	GuildID string `yaml:"guild_id"`

	// ChannelID is the channel finished quote cards are published to.
	ChannelID string `yaml:"channel_id"`
}

// Bot owns the Discord gateway connection and feeds normalised events into
// the session registry.
type Bot struct {
	session  *discordgo.Session
	guildID  string
	commands []*discordgo.ApplicationCommand

	mu       sync.Mutex
	registry *session.Registry

	closeOnce sync.Once
}

// New creates a Bot with an unopened gateway session. Handlers run
// synchronously so that dispatch order matches gateway order; the registry's
// per-key queues keep slow sessions from stalling the gateway.
func New(cfg Config) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}

	s.SyncEvents = true
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		session: s,
		guildID: cfg.GuildID,
	}
	s.AddHandler(b.onMessage)
	s.AddHandler(b.onInteraction)
	return b, nil
}

// Sender returns the outbound side of this bot for wiring into session deps.
func (b *Bot) Sender() *Sender {
	return NewSender(b.session)
}

// Attach sets the registry that receives events. Must be called before Run.
func (b *Bot) Attach(reg *session.Registry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registry = reg
}

// Run opens the gateway, registers the /quote slash command, and blocks
// until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}

	appID := b.session.State.User.ID
	registered, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, []*discordgo.ApplicationCommand{
		{
			Name:        "quote",
			Description: "Start creating a new quote card",
		},
	})
	if err != nil {
		return fmt.Errorf("discord: register commands: %w", err)
	}
	b.commands = registered
	slog.Info("discord bot running", "commands", len(registered))

	<-ctx.Done()
	return ctx.Err()
}

// Close unregisters commands and disconnects from Discord.
func (b *Bot) Close() error {
	var closeErr error
	b.closeOnce.Do(func() {
		appID := ""
		if b.session.State != nil && b.session.State.User != nil {
			appID = b.session.State.User.ID
		}
		for _, cmd := range b.commands {
			if err := b.session.ApplicationCommandDelete(appID, b.guildID, cmd.ID); err != nil {
				slog.Warn("discord: failed to delete command", "name", cmd.Name, "err", err)
			}
		}
		if err := b.session.Close(); err != nil {
			closeErr = fmt.Errorf("discord: close session: %w", err)
		}
		slog.Info("discord bot closed")
	})
	return closeErr
}

func (b *Bot) dispatch(key session.Key, ev session.Event) {
	b.mu.Lock()
	reg := b.registry
	b.mu.Unlock()
	if reg == nil {
		slog.Warn("discord: event before registry attached", "event", ev.Kind.String())
		return
	}
	reg.Dispatch(context.Background(), key, ev)
}

// onMessage feeds chat messages into the registry.
func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if b.guildID != "" && m.GuildID != "" && m.GuildID != b.guildID {
		return
	}
	ev, ok := EventFromMessage(m)
	if !ok {
		return
	}
	b.dispatch(session.Key{UserID: m.Author.ID, ChatID: m.ChannelID}, ev)
}

// onInteraction handles the /quote slash command and quick-reply buttons.
func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	if user == nil || user.Bot {
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if i.ApplicationCommandData().Name != "quote" {
			return
		}
		b.ackCommand(s, i)
		b.dispatch(session.Key{UserID: user.ID, ChatID: i.ChannelID}, session.Event{Kind: session.EventStart})

	case discordgo.InteractionMessageComponent:
		ev, ok := eventFromComponent(i.MessageComponentData().CustomID)
		if !ok {
			return
		}
		b.ackComponent(s, i)
		b.dispatch(session.Key{UserID: user.ID, ChatID: i.ChannelID}, ev)
	}
}

// ackCommand answers a slash command with a short ephemeral note; the
// session's own replies follow as regular messages.
func (b *Bot) ackCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Starting a new quote!",
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Warn("discord: failed to ack command", "err", err)
	}
}

// ackComponent acknowledges a button tap without changing the message.
func (b *Bot) ackComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		slog.Warn("discord: failed to ack button", "err", err)
	}
}

// interactionUser returns the invoking user for guild and DM interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}
