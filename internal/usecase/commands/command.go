package commands

import (
	"context"

	"aimgBot/internal/domain"
)

type Command interface {
	Name() string
	Aliases() []string
	SupportsPlatform(p domain.Platform) bool
	Handle(ctx context.Context, c *Context) error
}

type Context struct {
	Message domain.Message
	Out     domain.OutgoingMessagePort

	Raw  string
	Args []string
}

// Reply sends r back to the channel the command came from.
func (c *Context) Reply(ctx context.Context, r domain.Reply) error {
	if r.IsEmpty() {
		return nil
	}
	return c.Out.SendReply(ctx, c.Message.Platform, c.Message.ChannelID, r)
}
