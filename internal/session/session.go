// Package session implements the per-user quote authoring conversation: a
// finite state machine that collects a date, one or more phrases with their
// speakers, optional speaker images, and finally renders and publishes the
// finished quote card.
//
// A [Session] is single-owner state: it is never accessed concurrently. The
// [Registry] guarantees that by draining each key's events from exactly one
// goroutine at a time.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quotecard/internal/observe"
	"quotecard/internal/quote"
	"quotecard/internal/render"
	"quotecard/internal/speaker"
)

// State identifies the current step of the authoring conversation.
type State int

const (
	// StateIdle means no quote is in progress for this key.
	StateIdle State = iota

	// StateAwaitingDate waits for the quote date (dd.mm.yyyy or "today").
	StateAwaitingDate

	// StateAwaitingPhraseText waits for the text of the next phrase.
	StateAwaitingPhraseText

	// StateAwaitingSpeakerName waits for the name of the phrase's speaker.
	StateAwaitingSpeakerName

	// StateAwaitingSpeakerImageChoice waits for a yes/no answer on whether
	// to add an image for a speaker that has none.
	StateAwaitingSpeakerImageChoice

	// StateAwaitingSpeakerImage waits for the speaker image itself.
	StateAwaitingSpeakerImage

	// StateAwaitingNextStep waits for the add/finalize decision after a
	// completed phrase.
	StateAwaitingNextStep
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingDate:
		return "awaiting_date"
	case StateAwaitingPhraseText:
		return "awaiting_phrase_text"
	case StateAwaitingSpeakerName:
		return "awaiting_speaker_name"
	case StateAwaitingSpeakerImageChoice:
		return "awaiting_speaker_image_choice"
	case StateAwaitingSpeakerImage:
		return "awaiting_speaker_image"
	case StateAwaitingNextStep:
		return "awaiting_next_step"
	default:
		return "unknown"
	}
}

// Outbound sends replies back to the user (or to the distribution channel).
// Implementations must be safe for concurrent use across sessions.
type Outbound interface {
	// SendText sends a text message. The options, when present, are
	// rendered as quick-reply buttons whose taps come back as events.
	SendText(ctx context.Context, chatID, text string, options ...string) error

	// SendImage sends a PNG image with a caption.
	SendImage(ctx context.Context, chatID string, png []byte, caption string) error
}

// ImageFetcher resolves an opaque image reference, as carried by speaker
// records and image events, to the raw image bytes.
type ImageFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Renderer produces the finished quote card PNG.
type Renderer interface {
	Render(q *quote.Quote, body string, speakerImage []byte) ([]byte, error)
}

var _ Renderer = (*render.Compositor)(nil)

// Deps bundles everything a session needs to act on events.
type Deps struct {
	// Store persists speakers across sessions.
	Store speaker.Store

	// Out delivers replies and the published card.
	Out Outbound

	// Images resolves speaker image references to bytes.
	Images ImageFetcher

	// Renderer draws the quote card.
	Renderer Renderer

	// ChannelID is the chat the finalized card is published to.
	ChannelID string

	// Metrics records session telemetry. May be nil to disable.
	Metrics *observe.Metrics
}

// Session is the authoring conversation state for one [Key]. Not safe for
// concurrent use; see [Registry].
type Session struct {
	key  Key
	deps Deps

	state State
	quote *quote.Quote

	// speakers caches speakers attached during this session so repeated
	// names share one instance and a later image attach is visible to
	// earlier phrases.
	speakers map[string]*speaker.Speaker

	// bypassImage suppresses the add-an-image question for the rest of
	// the session once the user has declined it.
	bypassImage bool

	// pendingNewName holds an unknown speaker name we asked the user to
	// confirm because a near-duplicate exists in the store.
	pendingNewName string
}

func newSession(key Key, deps Deps) *Session {
	return &Session{
		key:      key,
		deps:     deps,
		state:    StateIdle,
		speakers: make(map[string]*speaker.Speaker),
	}
}

// State returns the current conversation state.
func (s *Session) State() State {
	return s.state
}

// Handle applies one event to the session. Start and cancel act from any
// state; everything else is interpreted by the current state. The returned
// error reports transport failures only — user mistakes are answered with a
// reply and store failures are reported to the user without advancing.
func (s *Session) Handle(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventStart:
		return s.start(ctx)
	case EventCancel:
		return s.cancel(ctx)
	}

	switch s.state {
	case StateAwaitingDate:
		return s.handleDate(ctx, ev)
	case StateAwaitingPhraseText:
		return s.handlePhrase(ctx, ev)
	case StateAwaitingSpeakerName:
		return s.handleSpeakerName(ctx, ev)
	case StateAwaitingSpeakerImageChoice:
		return s.handleImageChoice(ctx, ev)
	case StateAwaitingSpeakerImage:
		return s.handleImage(ctx, ev)
	case StateAwaitingNextStep:
		return s.handleNextStep(ctx, ev)
	default:
		// Idle with nothing to do.
		return nil
	}
}

// reset discards all in-progress authoring state.
func (s *Session) reset() {
	s.quote = nil
	s.speakers = make(map[string]*speaker.Speaker)
	s.bypassImage = false
	s.pendingNewName = ""
}

func (s *Session) start(ctx context.Context) error {
	if m := s.deps.Metrics; m != nil {
		m.SessionsStarted.Add(ctx, 1)
		if s.state == StateIdle {
			m.ActiveSessions.Add(ctx, 1)
		}
	}
	s.reset()
	s.state = StateAwaitingDate
	if err := s.sendText(ctx, promptStarted); err != nil {
		return err
	}
	return s.sendText(ctx, promptAskDate, OptionToday)
}

func (s *Session) cancel(ctx context.Context) error {
	if m := s.deps.Metrics; m != nil && s.state != StateIdle {
		m.ActiveSessions.Add(ctx, -1)
	}
	s.reset()
	s.state = StateIdle
	return s.sendText(ctx, promptCancelled)
}

func (s *Session) handleDate(ctx context.Context, ev Event) error {
	date, err := quote.ParseDate(ev.Text)
	if err != nil {
		return s.sendText(ctx, promptBadDate, OptionToday)
	}
	s.quote = quote.New(date)
	s.state = StateAwaitingPhraseText
	return s.sendText(ctx, fmt.Sprintf(promptAskPhrase, quote.FormatDate(date)))
}

func (s *Session) handlePhrase(ctx context.Context, ev Event) error {
	text := ev.Text
	if ev.Kind != EventText || strings.TrimSpace(text) == "" {
		return s.sendText(ctx, promptNextPhrase)
	}
	s.quote.Append(text)
	s.state = StateAwaitingSpeakerName

	// Offer known speakers as quick replies. A listing failure only costs
	// the buttons, so it is logged and not surfaced.
	var options []string
	if known, err := s.deps.Store.List(ctx); err != nil {
		s.storeError(ctx, "list", err)
	} else {
		for _, sp := range known {
			options = append(options, sp.Name)
		}
	}
	return s.sendText(ctx, fmt.Sprintf(promptWiseWords, text), options...)
}

func (s *Session) handleSpeakerName(ctx context.Context, ev Event) error {
	name := strings.TrimSpace(ev.Text)
	if ev.Kind != EventText || name == "" {
		return s.sendText(ctx, promptAskSpeaker)
	}

	sp, found, err := s.deps.Store.Find(ctx, name)
	if err != nil {
		s.storeError(ctx, "find", err)
		return s.sendText(ctx, promptStoreTrouble)
	}
	if found {
		s.pendingNewName = ""
		s.attachSpeaker(sp)
		return s.continueAfterSpeaker(ctx)
	}

	// Unknown name: if a close match exists, ask once before creating a
	// new speaker. Sending the same name again confirms it.
	if s.pendingNewName != name {
		if known, lerr := s.deps.Store.List(ctx); lerr != nil {
			s.storeError(ctx, "list", lerr)
		} else if hint, ok := speaker.Suggest(known, name); ok {
			s.pendingNewName = name
			return s.sendText(ctx, fmt.Sprintf(promptDidYouMean, hint.Name, name), hint.Name, name)
		}
	}
	s.pendingNewName = ""

	sp = speaker.Speaker{Name: name}
	if err := s.deps.Store.Upsert(ctx, sp); err != nil {
		s.storeError(ctx, "upsert", err)
		return s.sendText(ctx, promptStoreTrouble)
	}
	s.attachSpeaker(sp)
	return s.continueAfterSpeaker(ctx)
}

// attachSpeaker binds sp to the phrase being authored, reusing the instance
// already attached under the same name earlier in this session.
func (s *Session) attachSpeaker(sp speaker.Speaker) {
	ref, ok := s.speakers[sp.Name]
	if !ok {
		held := sp
		ref = &held
		s.speakers[sp.Name] = ref
	}
	s.quote.LastPhrase().Speaker = ref
}

func (s *Session) continueAfterSpeaker(ctx context.Context) error {
	sp := s.quote.LastPhrase().Speaker
	if !sp.HasImage() && !s.bypassImage {
		s.state = StateAwaitingSpeakerImageChoice
		return s.sendText(ctx, fmt.Sprintf(promptAskImage, sp.Name), OptionYes, OptionNo)
	}
	return s.enterNextStep(ctx)
}

func (s *Session) handleImageChoice(ctx context.Context, ev Event) error {
	switch ev.Command {
	case CommandYes:
		s.state = StateAwaitingSpeakerImage
		return s.sendText(ctx, promptImageYes)
	case CommandNo:
		s.bypassImage = true
		if err := s.sendText(ctx, promptImageNo); err != nil {
			return err
		}
		return s.enterNextStep(ctx)
	default:
		return s.sendText(ctx, promptImageWhat, OptionYes, OptionNo)
	}
}

func (s *Session) handleImage(ctx context.Context, ev Event) error {
	if ev.Kind != EventImage || ev.ImageRef == "" {
		return s.sendText(ctx, promptSendImage)
	}

	sp := s.quote.LastPhrase().Speaker
	prev := sp.ImageRef
	sp.ImageRef = ev.ImageRef
	if err := s.deps.Store.Upsert(ctx, *sp); err != nil {
		sp.ImageRef = prev
		s.storeError(ctx, "upsert", err)
		return s.sendText(ctx, promptStoreTrouble)
	}
	return s.enterNextStep(ctx)
}

// enterNextStep shows the preview card and offers add/finalize/cancel.
func (s *Session) enterNextStep(ctx context.Context) error {
	s.state = StateAwaitingNextStep
	if err := s.sendPreview(ctx); err != nil {
		return err
	}
	return s.sendText(ctx, promptNextStep, OptionAdd, OptionFinalize, OptionCancel)
}

func (s *Session) sendPreview(ctx context.Context) error {
	name := s.quote.LastPhrase().Speaker.Name
	if err := s.sendText(ctx, fmt.Sprintf(promptPreview, name)); err != nil {
		return err
	}

	png, caption, err := s.renderCard(ctx)
	if err != nil {
		// Fall back to a text-only preview rather than stall the flow.
		observe.Logger(ctx).Error("preview render failed", "error", err)
		return s.sendText(ctx, caption)
	}
	if m := s.deps.Metrics; m != nil {
		m.PreviewsRendered.Add(ctx, 1)
	}
	if err := s.deps.Out.SendImage(ctx, s.key.ChatID, png, caption); err != nil {
		return fmt.Errorf("session: send preview: %w", err)
	}
	return nil
}

func (s *Session) handleNextStep(ctx context.Context, ev Event) error {
	switch ev.Command {
	case CommandAdd:
		s.state = StateAwaitingPhraseText
		return s.sendText(ctx, promptNextPhrase)
	case CommandFinalize:
		return s.finalize(ctx)
	default:
		if err := s.sendText(ctx, promptUnknownOption); err != nil {
			return err
		}
		return s.sendText(ctx, promptNextStep, OptionAdd, OptionFinalize, OptionCancel)
	}
}

// finalize renders the finished card, publishes it to the channel, and ends
// the session. On failure the session stays in [StateAwaitingNextStep] so the
// user can retry.
func (s *Session) finalize(ctx context.Context) error {
	png, caption, err := s.renderCard(ctx)
	if err != nil {
		observe.Logger(ctx).Error("final render failed", "error", err)
		return s.sendText(ctx, promptRenderTrouble)
	}
	if err := s.deps.Out.SendImage(ctx, s.deps.ChannelID, png, caption); err != nil {
		return fmt.Errorf("session: publish quote: %w", err)
	}

	if m := s.deps.Metrics; m != nil {
		m.QuotesPublished.Add(ctx, 1)
		m.ActiveSessions.Add(ctx, -1)
	}
	s.reset()
	s.state = StateIdle
	return s.sendText(ctx, promptDone)
}

// renderCard draws the card for the quote in progress. The caption is
// returned even when rendering fails, for a text-only fallback.
func (s *Session) renderCard(ctx context.Context) (png []byte, caption string, err error) {
	caption = render.BodyWithDateAndTags(s.quote)

	var img []byte
	if ref := s.quote.FirstImageRef(); ref != "" {
		b, ferr := s.deps.Images.Fetch(ctx, ref)
		if ferr != nil {
			observe.Logger(ctx).Warn("speaker image fetch failed", "ref", ref, "error", ferr)
		} else {
			img = b
		}
	}

	ctx, span := observe.StartSpan(ctx, "render.card")
	defer span.End()

	start := time.Now()
	png, err = s.deps.Renderer.Render(s.quote, render.BodyWithDate(s.quote), img)
	if m := s.deps.Metrics; m != nil {
		m.RenderDuration.Record(ctx, time.Since(start).Seconds())
	}
	if err != nil {
		return nil, caption, fmt.Errorf("session: render card: %w", err)
	}
	return png, caption, nil
}

func (s *Session) sendText(ctx context.Context, text string, options ...string) error {
	if err := s.deps.Out.SendText(ctx, s.key.ChatID, text, options...); err != nil {
		return fmt.Errorf("session: send text: %w", err)
	}
	return nil
}

func (s *Session) storeError(ctx context.Context, op string, err error) {
	observe.Logger(ctx).Error("speaker store failure", "op", op, "error", err)
	if m := s.deps.Metrics; m != nil {
		m.RecordStoreError(ctx, op)
	}
}
