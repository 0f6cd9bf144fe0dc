package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"quotecard/internal/session"
)

// startCommand is the classic text command that begins a new quote. The
// /quote slash command and the "/quote" text form are accepted as aliases.
const startCommand = "!quote"

// customIDPrefix marks button interactions owned by this bot. The remainder
// of the custom ID is the button label, which feeds back through
// [EventFromText] exactly as if the user had typed it.
const customIDPrefix = "opt:"

// cancelWords are accepted from any state, with or without the button emoji.
var cancelWords = map[string]bool{
	"cancel":   true,
	"❌ cancel": true,
}

// commandWords maps normalised text to the session command it expresses.
var commandWords = map[string]session.Command{
	"yes":         session.CommandYes,
	"✔️ yes":      session.CommandYes,
	"no":          session.CommandNo,
	"❌ no":        session.CommandNo,
	"add":         session.CommandAdd,
	"➕ add":       session.CommandAdd,
	"finalize":    session.CommandFinalize,
	"✔️ finalize": session.CommandFinalize,
}

// EventFromText normalises a text message into a session event. Command
// keywords are matched case-insensitively; everything else passes through as
// plain text.
func EventFromText(text string) session.Event {
	normalised := strings.ToLower(strings.TrimSpace(text))

	switch normalised {
	case startCommand, "/quote":
		return session.Event{Kind: session.EventStart}
	}
	if cancelWords[normalised] {
		return session.Event{Kind: session.EventCancel}
	}
	if cmd, ok := commandWords[normalised]; ok {
		return session.Event{Kind: session.EventText, Text: text, Command: cmd}
	}
	return session.Event{Kind: session.EventText, Text: text}
}

// EventFromMessage normalises an inbound Discord message. Attachments and
// stickers become image events carrying their CDN URL; otherwise the message
// content is parsed as text. Returns false for messages with nothing usable.
func EventFromMessage(m *discordgo.MessageCreate) (session.Event, bool) {
	if len(m.Attachments) > 0 {
		return session.Event{Kind: session.EventImage, ImageRef: m.Attachments[0].URL}, true
	}
	if len(m.StickerItems) > 0 {
		return session.Event{Kind: session.EventImage, ImageRef: stickerURL(m.StickerItems[0].ID)}, true
	}
	if m.Content != "" {
		return EventFromText(m.Content), true
	}
	return session.Event{}, false
}

// stickerURL builds the CDN URL for a sticker ID.
func stickerURL(id string) string {
	return "https://cdn.discordapp.com/stickers/" + id + ".png"
}

// eventFromComponent maps a button tap back to the event its label would
// have produced as text. Returns false for custom IDs this bot does not own.
func eventFromComponent(customID string) (session.Event, bool) {
	label, ok := strings.CutPrefix(customID, customIDPrefix)
	if !ok {
		return session.Event{}, false
	}
	return EventFromText(label), true
}

// Discord caps messages at 5 action rows of 5 buttons each.
const (
	maxButtonsPerRow = 5
	maxButtonRows    = 5
)

// buttonRows renders quick-reply options as button rows. Options beyond the
// platform limit are dropped.
func buttonRows(options []string) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for start := 0; start < len(options) && len(rows) < maxButtonRows; start += maxButtonsPerRow {
		end := start + maxButtonsPerRow
		if end > len(options) {
			end = len(options)
		}
		row := discordgo.ActionsRow{}
		for _, opt := range options[start:end] {
			row.Components = append(row.Components, discordgo.Button{
				Label:    opt,
				Style:    discordgo.SecondaryButton,
				CustomID: customIDPrefix + opt,
			})
		}
		rows = append(rows, row)
	}
	return rows
}
