package sessions

import "context"

// GeneralCommand is a named, arbitrary-argument remote-control command.
type GeneralCommand struct {
	Name              string
	Arguments         map[string]string
	ControllingUserId string
}

// PlaystateCommand carries a playstate verb (play/pause/seek/...).
type PlaystateCommand struct {
	Command           string
	SeekPositionTicks int64
	ControllingUserId string
}

// PlayCommandVerb selects the expansion behavior of SendPlayCommand.
type PlayCommandVerb string

const (
	PlayNow        PlayCommandVerb = "PlayNow"
	PlayNext       PlayCommandVerb = "PlayNext"
	PlayLast       PlayCommandVerb = "PlayLast"
	PlayInstantMix PlayCommandVerb = "PlayInstantMix"
	PlayShuffle    PlayCommandVerb = "PlayShuffle"
)

// PlayRequest is the payload of SendPlayCommand.
type PlayRequest struct {
	ItemIds            []string
	StartPositionTicks int64
	PlayCommand        PlayCommandVerb
	ControllingUserId  string
}

// SessionController is the transport adapter bound to a Session that can
// push commands/notifications back to the client. HTTP long-poll and
// WebSocket are the two reference implementations (internal/sessions/transport).
type SessionController interface {
	// IsLive reports whether the underlying transport connection is still
	// usable; IsActive on the Session derives from this.
	IsLive() bool

	OnActivity()

	SendGeneralCommand(ctx context.Context, cmd GeneralCommand) error
	SendPlaystateCommand(ctx context.Context, cmd PlaystateCommand) error
	SendPlayCommand(ctx context.Context, req PlayRequest) error

	SendPlaybackStartNotification(ctx context.Context, session *Session) error
	SendPlaybackStoppedNotification(ctx context.Context, session *Session) error
	SendSessionEndedNotification(ctx context.Context, session *Session) error
	SendServerShutdownNotification(ctx context.Context) error
	SendServerRestartNotification(ctx context.Context) error
	SendRestartRequiredNotification(ctx context.Context) error
}

// TransportDescriptor identifies the transport endpoint behind a
// SessionController, so the core can detect "is this already an HTTP
// controller for the same callback URL?" via equality rather than a
// downcast (spec §9 design note).
type TransportDescriptor struct {
	Kind string // "websocket", "httppoll"
	Key  string // transport-specific identity, e.g. callback URL or conn id
}

// DescribedController is implemented by controllers that expose a
// TransportDescriptor for equality-based reuse checks.
type DescribedController interface {
	Descriptor() TransportDescriptor
}

// SessionControllerFactory produces a SessionController for a session, or
// nil if it does not apply to this session.
type SessionControllerFactory interface {
	GetSessionController(session *Session) SessionController
}

// controllerFactoryChain walks its factories in order and takes the first
// non-nil result, grounded on the teacher's provider_manager.go "first
// matching provider wins" selection pattern.
type controllerFactoryChain struct {
	factories []SessionControllerFactory
}

func newControllerFactoryChain(factories ...SessionControllerFactory) *controllerFactoryChain {
	return &controllerFactoryChain{factories: factories}
}

func (c *controllerFactoryChain) resolve(session *Session) SessionController {
	for _, f := range c.factories {
		if ctrl := f.GetSessionController(session); ctrl != nil {
			return ctrl
		}
	}
	return nil
}
