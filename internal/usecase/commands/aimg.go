package commands

import (
	"context"

	"aimgBot/internal/domain"
	"aimgBot/internal/usecase/imagegen"
)

// AimgCommand is "<prefix>aimg <prompt> [size]".
type AimgCommand struct {
	service *imagegen.Service
}

func NewAimgCommand(service *imagegen.Service) *AimgCommand {
	return &AimgCommand{service: service}
}

func (c *AimgCommand) Name() string {
	return imagegen.CommandName
}

func (c *AimgCommand) Aliases() []string {
	return []string{}
}

func (c *AimgCommand) SupportsPlatform(domain.Platform) bool {
	return true
}

func (c *AimgCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	if c.service == nil {
		return nil
	}

	prompt, size := "", imagegen.DefaultSize
	if len(cmdCtx.Args) > 0 {
		prompt = cmdCtx.Args[0]
	}
	if len(cmdCtx.Args) > 1 {
		size = cmdCtx.Args[1]
	}

	return cmdCtx.Reply(ctx, c.service.HandleCommand(ctx, cmdCtx.Message, prompt, size))
}
