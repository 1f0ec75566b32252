package dispatch

import (
	"context"
	"log/slog"
	"sort"

	"github.com/mattjoyce/cakeday/internal/interaction"
	"github.com/mattjoyce/cakeday/internal/store"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/mattjoyce/cakeday/internal/dispatch Store

// Store is the remote birthday collection used by the built-in commands.
type Store interface {
	Upsert(ctx context.Context, b store.Birthday) error
	ListFor(ctx context.Context, ownerID string) ([]store.Birthday, error)
	RemoveByName(ctx context.Context, ownerID, name string) (int, error)
}

// Invocation is a command call that passed the DM and identity checks.
type Invocation struct {
	InteractionID string
	CallerID      string
	Command       string
	Options       []interaction.Option
}

// Handler executes one command and always returns a reply.
type Handler interface {
	Handle(ctx context.Context, inv Invocation) interaction.Reply
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, inv Invocation) interaction.Reply

func (f HandlerFunc) Handle(ctx context.Context, inv Invocation) interaction.Reply {
	return f(ctx, inv)
}

// CommandTableVersion identifies the built-in command set. Bump it when a
// built-in command is added, removed or changes its arguments.
const CommandTableVersion = 2

// Dispatcher routes interactions to command handlers.
//
// The command table is built at construction; Register must not be called
// concurrently with Dispatch.
type Dispatcher struct {
	commands map[string]Handler
	logger   *slog.Logger
}

// New creates a dispatcher with the built-in add, list and remove commands
// bound to st.
func New(st Store, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		commands: make(map[string]Handler),
		logger:   logger,
	}
	for name, h := range builtinCommands(st, logger) {
		d.Register(name, h)
	}
	return d
}

// Register binds name to h, replacing any existing handler.
func (d *Dispatcher) Register(name string, h Handler) {
	d.commands[name] = h
}

// Commands returns the registered command names in sorted order.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch produces the reply for one authenticated interaction.
func (d *Dispatcher) Dispatch(ctx context.Context, in interaction.Interaction) interaction.Reply {
	switch in := in.(type) {
	case interaction.Ping:
		return interaction.Pong()
	case interaction.Command:
		return d.dispatchCommand(ctx, in)
	default:
		d.logger.Debug("unsupported interaction", "kind", in.Kind().String())
		return interaction.Message(MsgUnsupported)
	}
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd interaction.Command) interaction.Reply {
	logger := d.logger.With("interaction_id", cmd.InteractionID, "command", cmd.Name)

	if cmd.InGuild() {
		logger.Debug("command invoked outside a direct message", "guild_id", cmd.GuildID)
		return interaction.EphemeralMessage(MsgDirectMessage)
	}

	if cmd.CallerID == "" {
		logger.Warn("command without caller identity")
		return interaction.Message(MsgMissingUser)
	}

	h, ok := d.commands[cmd.Name]
	if !ok {
		logger.Info("unknown command", "user_id", cmd.CallerID)
		return interaction.Message(MsgUnknownCommand)
	}

	return h.Handle(ctx, Invocation{
		InteractionID: cmd.InteractionID,
		CallerID:      cmd.CallerID,
		Command:       cmd.Name,
		Options:       cmd.Options,
	})
}
