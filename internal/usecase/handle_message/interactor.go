// Package handle_message
package handle_message

import (
	"context"

	"aimgBot/internal/app/events"
	"aimgBot/internal/domain"
	"aimgBot/internal/usecase/commands"
)

// KeywordHandler is the free-text trigger. ok=false means the message is not for it.
type KeywordHandler interface {
	HandleMessage(ctx context.Context, msg domain.Message) (domain.Reply, bool)
}

type Options struct {
	// Commands enables the command router, Keywords the free-text scan.
	Commands bool
	Keywords bool
}

type Interactor struct {
	router  *commands.Router
	keyword KeywordHandler
	out     domain.OutgoingMessagePort
	bus     *events.Bus
	opts    Options
}

func NewInteractor(out domain.OutgoingMessagePort, router *commands.Router, keyword KeywordHandler, bus *events.Bus, opts Options) *Interactor {
	return &Interactor{
		router:  router,
		keyword: keyword,
		out:     out,
		bus:     bus,
		opts:    opts,
	}
}

func (uc *Interactor) Handle(ctx context.Context, msg domain.Message) error {
	if uc.bus != nil {
		uc.bus.Publish(events.TopicChatMessage, events.NewChatMessageDTO(msg))
	}

	// Replies quote the prompt, so an echoed reply would trigger again.
	if msg.IsSelf {
		return nil
	}

	if uc.opts.Commands && uc.router != nil {
		handled, err := uc.router.Handle(ctx, msg, uc.out)
		if handled || err != nil {
			return err
		}
	}

	if !uc.opts.Keywords || uc.keyword == nil {
		return nil
	}

	reply, ok := uc.keyword.HandleMessage(ctx, msg)
	if !ok || reply.IsEmpty() {
		return nil
	}
	return uc.out.SendReply(ctx, msg.Platform, msg.ChannelID, reply)
}
