package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"quotecard/internal/speaker"
)

func newTestRegistry(t *testing.T) (*Registry, *fakeOutbound) {
	t.Helper()
	out := &fakeOutbound{}
	deps := Deps{
		Store:     speaker.NewMemStore(),
		Out:       out,
		Images:    &fakeFetcher{},
		Renderer:  &fakeRenderer{},
		ChannelID: testChannelID,
	}
	return NewRegistry(deps), out
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDispatchStartCreatesSession(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	r.Dispatch(ctx, Key{UserID: "u1", ChatID: "c1"}, startEv())
	r.Wait()

	if got := r.Active(); got != 1 {
		t.Errorf("Active() = %d, want 1", got)
	}
}

func TestTextWithoutSessionIgnored(t *testing.T) {
	t.Parallel()
	r, out := newTestRegistry(t)
	ctx := context.Background()

	r.Dispatch(ctx, Key{UserID: "u1", ChatID: "c1"}, textEv("hello?"))
	r.Wait()

	if got := r.Active(); got != 0 {
		t.Errorf("Active() = %d, want 0", got)
	}
	if got := len(out.allTexts()); got != 0 {
		t.Errorf("got %d replies, want 0", got)
	}
}

func TestCancelWithoutSessionStillReplies(t *testing.T) {
	t.Parallel()
	r, out := newTestRegistry(t)
	ctx := context.Background()

	r.Dispatch(ctx, Key{UserID: "u1", ChatID: "c1"}, cancelEv())
	r.Wait()

	if got := r.Active(); got != 0 {
		t.Errorf("Active() = %d, want 0", got)
	}
	if got := out.lastText(t).text; got != promptCancelled {
		t.Errorf("reply = %q, want %q", got, promptCancelled)
	}
}

func TestDispatchAppliesEventsInArrivalOrder(t *testing.T) {
	t.Parallel()
	r, out := newTestRegistry(t)
	ctx := context.Background()
	key := Key{UserID: "u1", ChatID: "c1"}

	// The whole authoring flow dispatched back to back; only strict FIFO
	// handling reaches a published card.
	for _, ev := range []Event{
		startEv(),
		textEv("25.06.2005"),
		textEv("Winners never quit"),
		textEv("Coach"),
		cmdEv(CommandNo),
		cmdEv(CommandFinalize),
	} {
		r.Dispatch(ctx, key, ev)
	}
	r.Wait()

	published := out.imagesTo(testChannelID)
	if len(published) != 1 {
		t.Fatalf("got %d published images, want 1", len(published))
	}
	if !strings.Contains(published[0].caption, "Winners never quit") {
		t.Errorf("caption = %q", published[0].caption)
	}
	if got := r.Active(); got != 0 {
		t.Errorf("Active() = %d after finalize, want 0", got)
	}
}

// gatedOutbound blocks sends for one chat until released, to prove other
// keys keep making progress.
type gatedOutbound struct {
	fakeOutbound
	blockChat string
	gate      chan struct{}
	once      sync.Once
}

func (g *gatedOutbound) SendText(ctx context.Context, chatID, text string, options ...string) error {
	if chatID == g.blockChat {
		<-g.gate
	}
	return g.fakeOutbound.SendText(ctx, chatID, text, options...)
}

func (g *gatedOutbound) release() {
	g.once.Do(func() { close(g.gate) })
}

func TestKeysProgressIndependently(t *testing.T) {
	t.Parallel()
	out := &gatedOutbound{blockChat: "c-blocked", gate: make(chan struct{})}
	deps := Deps{
		Store:     speaker.NewMemStore(),
		Out:       out,
		Images:    &fakeFetcher{},
		Renderer:  &fakeRenderer{},
		ChannelID: testChannelID,
	}
	r := NewRegistry(deps)
	ctx := context.Background()

	blocked := Key{UserID: "u1", ChatID: "c-blocked"}
	free := Key{UserID: "u2", ChatID: "c-free"}

	r.Dispatch(ctx, blocked, startEv())
	for _, ev := range []Event{
		startEv(),
		textEv("today"),
		textEv("hello"),
		textEv("Coach"),
		cmdEv(CommandNo),
		cmdEv(CommandFinalize),
	} {
		r.Dispatch(ctx, free, ev)
	}

	// The free key finishes while the blocked key is still stuck.
	waitFor(t, func() bool { return len(out.imagesTo(testChannelID)) == 1 })

	out.release()
	r.Wait()
}

func TestSessionRemovedAfterCancel(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	key := Key{UserID: "u1", ChatID: "c1"}

	r.Dispatch(ctx, key, startEv())
	r.Dispatch(ctx, key, cancelEv())
	r.Wait()

	if got := r.Active(); got != 0 {
		t.Errorf("Active() = %d, want 0", got)
	}
}

func TestRestartAfterFinalize(t *testing.T) {
	t.Parallel()
	r, out := newTestRegistry(t)
	ctx := context.Background()
	key := Key{UserID: "u1", ChatID: "c1"}

	for _, ev := range []Event{
		startEv(),
		textEv("today"),
		textEv("hello"),
		textEv("Coach"),
		cmdEv(CommandNo),
		cmdEv(CommandFinalize),
		startEv(),
	} {
		r.Dispatch(ctx, key, ev)
	}
	r.Wait()

	if got := len(out.imagesTo(testChannelID)); got != 1 {
		t.Errorf("got %d published images, want 1", got)
	}
	if got := r.Active(); got != 1 {
		t.Errorf("Active() = %d, want 1 (new session after finalize)", got)
	}
}

func TestDistinctKeysDistinctSessions(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	// Same user in two chats, and two users in one chat, are all distinct.
	keys := []Key{
		{UserID: "u1", ChatID: "c1"},
		{UserID: "u1", ChatID: "c2"},
		{UserID: "u2", ChatID: "c1"},
	}
	for _, k := range keys {
		r.Dispatch(ctx, k, startEv())
	}
	r.Wait()

	if got := r.Active(); got != len(keys) {
		t.Errorf("Active() = %d, want %d", got, len(keys))
	}
}
