package discord

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"quotecard/internal/session"
)

// maxImageBytes bounds how much image data is fetched per speaker image.
const maxImageBytes = 8 << 20

// Sender delivers session replies over Discord and resolves attachment URLs
// to bytes. Safe for concurrent use.
type Sender struct {
	session *discordgo.Session
	client  *http.Client
}

var (
	_ session.Outbound     = (*Sender)(nil)
	_ session.ImageFetcher = (*Sender)(nil)
)

// NewSender wraps a discordgo session.
func NewSender(s *discordgo.Session) *Sender {
	return &Sender{
		session: s,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SendText sends a text message; options become quick-reply buttons.
func (s *Sender) SendText(_ context.Context, chatID, text string, options ...string) error {
	msg := &discordgo.MessageSend{
		Content:    text,
		Components: buttonRows(options),
	}
	if _, err := s.session.ChannelMessageSendComplex(chatID, msg); err != nil {
		return fmt.Errorf("discord: send text: %w", err)
	}
	return nil
}

// SendImage sends a PNG as a file attachment with a caption.
func (s *Sender) SendImage(_ context.Context, chatID string, png []byte, caption string) error {
	msg := &discordgo.MessageSend{
		Content: caption,
		Files: []*discordgo.File{{
			Name:        "quote.png",
			ContentType: "image/png",
			Reader:      bytes.NewReader(png),
		}},
	}
	if _, err := s.session.ChannelMessageSendComplex(chatID, msg); err != nil {
		return fmt.Errorf("discord: send image: %w", err)
	}
	return nil
}

// Fetch downloads an image from its CDN URL.
func (s *Sender) Fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("discord: build image request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discord: fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord: fetch image: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("discord: read image: %w", err)
	}
	return data, nil
}
