package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mattjoyce/cakeday/internal/birthday"
	"github.com/mattjoyce/cakeday/internal/interaction"
	"github.com/mattjoyce/cakeday/internal/store"
)

func builtinCommands(st Store, logger *slog.Logger) map[string]Handler {
	return map[string]Handler{
		"add":    &addCommand{store: st, logger: logger},
		"list":   &listCommand{store: st, logger: logger},
		"remove": &removeCommand{store: st, logger: logger},
	}
}

type addCommand struct {
	store  Store
	logger *slog.Logger
}

func (c *addCommand) Handle(ctx context.Context, inv Invocation) interaction.Reply {
	args, err := birthday.ParseAdd(inv.Options)
	if err != nil {
		return interaction.Message(err.Error())
	}

	date, err := birthday.ParseDate(args.Birthday)
	if err != nil {
		return interaction.Message(err.Error())
	}

	rec := store.Birthday{
		OwnerID: inv.CallerID,
		Name:    args.Name,
		Month:   date.Month,
		Day:     date.Day,
	}
	if err := c.store.Upsert(ctx, rec); err != nil {
		c.logger.Error("failed to save birthday",
			"interaction_id", inv.InteractionID,
			"user_id", inv.CallerID,
			"error", err,
		)
		return interaction.Message(MsgSaveFailed)
	}

	c.logger.Info("birthday saved", "interaction_id", inv.InteractionID, "user_id", inv.CallerID)
	// Echo the birthday as entered, not the normalised date.
	return interaction.Message(fmt.Sprintf(msgSavedFormat, args.Name, args.Birthday))
}

type listCommand struct {
	store  Store
	logger *slog.Logger
}

func (c *listCommand) Handle(ctx context.Context, inv Invocation) interaction.Reply {
	rows, err := c.store.ListFor(ctx, inv.CallerID)
	if err != nil {
		c.logger.Error("failed to list birthdays",
			"interaction_id", inv.InteractionID,
			"user_id", inv.CallerID,
			"error", err,
		)
		return interaction.Message(MsgFetchFailed)
	}

	if len(rows) == 0 {
		return interaction.Message(MsgNoBirthdays)
	}
	return interaction.Message(renderList(rows))
}

// renderList sorts rows by name (byte order, case-sensitive) and renders one
// "Name: MM/DD" line per row under a header.
func renderList(rows []store.Birthday) string {
	sorted := make([]store.Birthday, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var b strings.Builder
	b.WriteString(MsgListHeader)
	for _, row := range sorted {
		b.WriteByte('\n')
		b.WriteString(row.Name)
		b.WriteString(": ")
		b.WriteString(birthday.Date{Month: row.Month, Day: row.Day}.String())
	}
	return b.String()
}

type removeCommand struct {
	store  Store
	logger *slog.Logger
}

func (c *removeCommand) Handle(ctx context.Context, inv Invocation) interaction.Reply {
	name, err := birthday.ParseRemove(inv.Options)
	if err != nil {
		return interaction.Message(err.Error())
	}

	deleted, err := c.store.RemoveByName(ctx, inv.CallerID, name)
	if err != nil {
		c.logger.Error("failed to remove birthday",
			"interaction_id", inv.InteractionID,
			"user_id", inv.CallerID,
			"error", err,
		)
		return interaction.Message(MsgRemoveFailed)
	}

	if deleted == 0 {
		return interaction.Message(fmt.Sprintf(msgNotFoundFormat, name))
	}

	c.logger.Info("birthday removed", "interaction_id", inv.InteractionID, "user_id", inv.CallerID, "rows", deleted)
	return interaction.Message(fmt.Sprintf(msgRemovedFormat, name))
}
