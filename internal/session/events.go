package session

// Key identifies one authoring conversation: a single user composing a quote
// in a single chat. Different keys never share state.
type Key struct {
	UserID string
	ChatID string
}

// EventKind classifies an inbound conversation event.
type EventKind int

const (
	// EventText is free-form user text. Commands recognised by the
	// transport adapter additionally carry a non-zero [Command].
	EventText EventKind = iota

	// EventStart begins a new authoring session, discarding any session in
	// progress for the same key.
	EventStart

	// EventCancel discards the session in progress, from any state.
	EventCancel

	// EventImage is an inbound image carrying an opaque reference the
	// transport can later resolve to bytes.
	EventImage
)

// String returns the event kind name for logging.
func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventStart:
		return "start"
	case EventCancel:
		return "cancel"
	case EventImage:
		return "image"
	default:
		return "unknown"
	}
}

// Command is a normalised user intent extracted from text or a reply button.
// The transport adapter maps its platform's buttons and keywords onto these;
// the state machine never inspects raw labels.
type Command int

const (
	// CommandNone marks plain text with no recognised intent.
	CommandNone Command = iota

	// CommandYes confirms a yes/no question.
	CommandYes

	// CommandNo declines a yes/no question.
	CommandNo

	// CommandAdd requests another phrase for the quote in progress.
	CommandAdd

	// CommandFinalize completes the quote and publishes the card.
	CommandFinalize
)

// Event is one inbound conversation event, already normalised by the
// transport adapter.
type Event struct {
	// Kind classifies the event.
	Kind EventKind

	// Text is the message text for [EventText] events.
	Text string

	// Command is the recognised intent, or [CommandNone].
	Command Command

	// ImageRef is an opaque image reference for [EventImage] events,
	// resolvable via [ImageFetcher].
	ImageRef string
}
