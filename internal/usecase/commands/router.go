package commands

import (
	"context"
	"strings"
	"unicode"

	"aimgBot/internal/domain"
)

type Router struct {
	prefix   string
	cmdIndex map[string]Command
}

func NewRouter(prefix string) *Router {
	return &Router{
		prefix:   prefix,
		cmdIndex: make(map[string]Command),
	}
}

func (r *Router) Register(cmd Command) {
	r.cmdIndex[strings.ToLower(cmd.Name())] = cmd
	for _, alias := range cmd.Aliases() {
		r.cmdIndex[strings.ToLower(alias)] = cmd
	}
}

// Match returns the command addressed by text, if any.
func (r *Router) Match(text string) (Command, string, bool) {
	text = strings.TrimSpace(text)
	if text == "" || r.prefix == "" || !strings.HasPrefix(text, r.prefix) {
		return nil, "", false
	}

	withoutPrefix := strings.TrimPrefix(text, r.prefix)
	parts := strings.Fields(withoutPrefix)
	if len(parts) == 0 {
		return nil, "", false
	}

	cmd, ok := r.cmdIndex[strings.ToLower(parts[0])]
	if !ok {
		return nil, "", false
	}
	return cmd, withoutPrefix, true
}

// Handle runs the matching command. Messages that are not a registered command
// report handled=false and produce no reply.
func (r *Router) Handle(ctx context.Context, msg domain.Message, out domain.OutgoingMessagePort) (bool, error) {
	cmd, withoutPrefix, ok := r.Match(msg.Text)
	if !ok {
		return false, nil
	}

	if !cmd.SupportsPlatform(msg.Platform) {
		return true, nil
	}

	var args []string
	if parts := SplitArgs(withoutPrefix); len(parts) > 1 {
		args = parts[1:]
	}

	ctxCmd := &Context{
		Message: msg,
		Out:     out,
		Raw:     withoutPrefix,
		Args:    args,
	}

	return true, cmd.Handle(ctx, ctxCmd)
}

// SplitArgs splits on whitespace; double quotes group words and may be empty ("").
func SplitArgs(s string) []string {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		started bool
	)

	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case unicode.IsSpace(r) && !inQuote:
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if started {
		args = append(args, cur.String())
	}
	return args
}
