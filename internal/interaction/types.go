package interaction

// Kind classifies a decoded interaction.
type Kind int

const (
	KindOther Kind = iota
	KindPing
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindCommand:
		return "command"
	default:
		return "other"
	}
}

// Wire-level interaction type codes sent by the platform.
const (
	typePing               = 1
	typeApplicationCommand = 2
)

// Interaction is one decoded inbound event. The concrete type is one of
// Ping, Command or Unsupported.
type Interaction interface {
	Kind() Kind
	// ID is the platform-assigned interaction id, used for logging only.
	ID() string
}

// Ping is the platform's liveness check.
type Ping struct {
	InteractionID string
}

func (Ping) Kind() Kind { return KindPing }
func (p Ping) ID() string { return p.InteractionID }

// Unsupported is any interaction type this endpoint does not handle.
type Unsupported struct {
	InteractionID string
	Type          int
}

func (Unsupported) Kind() Kind { return KindOther }
func (u Unsupported) ID() string { return u.InteractionID }

// Command is an invoked slash command.
type Command struct {
	InteractionID string

	// GuildID is empty when the command was invoked in a direct message.
	GuildID string

	// CallerID is the invoking user's id, or empty if the payload carried none.
	CallerID string

	Name    string
	Options []Option
}

func (Command) Kind() Kind { return KindCommand }
func (c Command) ID() string { return c.InteractionID }

// InGuild reports whether the command was invoked outside a direct message.
func (c Command) InGuild() bool { return c.GuildID != "" }

// Option is a single named command argument. Value is always a string;
// non-scalar values decode to "".
type Option struct {
	Name  string
	Value string
}

// ResponseType is the reply type code understood by the platform.
type ResponseType int

const (
	ResponsePong           ResponseType = 1
	ResponseChannelMessage ResponseType = 4
)

// MessageFlags is a bit set applied to reply messages.
type MessageFlags int

// FlagEphemeral makes a reply visible only to the invoking user.
const FlagEphemeral MessageFlags = 1 << 6

// Reply is the single response produced for every authenticated request.
type Reply struct {
	Type ResponseType `json:"type"`
	Data *ReplyData   `json:"data,omitempty"`
}

// ReplyData carries the message content of a ChannelMessage reply.
type ReplyData struct {
	Content string       `json:"content"`
	Flags   MessageFlags `json:"flags,omitempty"`
}

// Pong returns the reply to a Ping.
func Pong() Reply {
	return Reply{Type: ResponsePong}
}

// Message returns a public channel message reply.
func Message(content string) Reply {
	return Reply{
		Type: ResponseChannelMessage,
		Data: &ReplyData{Content: content},
	}
}

// EphemeralMessage returns a channel message reply visible only to the caller.
func EphemeralMessage(content string) Reply {
	return Reply{
		Type: ResponseChannelMessage,
		Data: &ReplyData{Content: content, Flags: FlagEphemeral},
	}
}

// Ephemeral reports whether the reply carries the ephemeral flag.
func (r Reply) Ephemeral() bool {
	return r.Data != nil && r.Data.Flags&FlagEphemeral != 0
}

// Content returns the reply text, or "" for a Pong.
func (r Reply) Content() string {
	if r.Data == nil {
		return ""
	}
	return r.Data.Content
}
