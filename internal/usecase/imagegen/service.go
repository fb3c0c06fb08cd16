// Package imagegen turns drawing requests from chat into provider calls and replies.
package imagegen

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"aimgBot/internal/domain"
)

const (
	DefaultModel         = "cogView-4"
	DefaultCommandPrefix = "/"
	CommandName          = "aimg"
)

type Config struct {
	APIKey        string
	Model         string
	CommandPrefix string
}

type Service struct {
	cfg       Config
	images    domain.ImageGenerator
	recorders []domain.GenerationRecorder

	newID func() string
	now   func() time.Time
}

func NewService(cfg Config, images domain.ImageGenerator, recorders ...domain.GenerationRecorder) (*Service, error) {
	if images == nil {
		return nil, errors.New("imagegen: no image generator configured")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = DefaultCommandPrefix
	}

	rs := make([]domain.GenerationRecorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			rs = append(rs, r)
		}
	}

	return &Service{
		cfg:       cfg,
		images:    images,
		recorders: rs,
		newID:     uuid.NewString,
		now:       time.Now,
	}, nil
}

func (s *Service) Model() string {
	return s.cfg.Model
}

func (s *Service) Configured() bool {
	return s.cfg.APIKey != ""
}

// HandleMessage is the keyword trigger. It returns false when the message has no
// drawing keyword and nothing must be sent.
func (s *Service) HandleMessage(ctx context.Context, msg domain.Message) (domain.Reply, bool) {
	text := msg.Text
	if !MatchesKeyword(text) {
		return domain.Reply{}, false
	}
	if !s.Configured() {
		return ErrorReply(configMissing()), true
	}

	// the whole message is the prompt, keyword included
	prompt := text
	if prompt == "" {
		return ErrorReply(validation(msgEmptyPrompt)), true
	}

	req := domain.GenerationRequest{Prompt: prompt, Size: ResolveSize(text)}
	return s.reply(ctx, msg, domain.TriggerKeyword, req), true
}

// HandleCommand is the aimg command trigger with already parsed arguments.
func (s *Service) HandleCommand(ctx context.Context, msg domain.Message, prompt, size string) domain.Reply {
	req, err := s.BuildCommandRequest(prompt, size)
	if err != nil {
		return ErrorReply(err)
	}
	return s.reply(ctx, msg, domain.TriggerCommand, req)
}

// BuildCommandRequest validates command arguments. An empty size means DefaultSize.
func (s *Service) BuildCommandRequest(prompt, size string) (domain.GenerationRequest, error) {
	if !s.Configured() {
		return domain.GenerationRequest{}, configMissing()
	}
	if prompt == "" {
		return domain.GenerationRequest{}, validation(commandUsage(s.cfg.CommandPrefix, CommandName))
	}
	if size == "" {
		size = DefaultSize
	}
	if !IsValidSize(size) {
		return domain.GenerationRequest{}, validation(invalidSizeMessage(size))
	}
	return domain.GenerationRequest{Prompt: prompt, Size: size}, nil
}

// Generate issues exactly one provider call and returns the image URL.
func (s *Service) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if !s.Configured() {
		return "", configMissing()
	}
	if req.Prompt == "" {
		return "", validation(msgEmptyPrompt)
	}
	if !IsValidSize(req.Size) {
		return "", validation(invalidSizeMessage(req.Size))
	}

	url, err := s.images.GenerateImage(ctx, s.cfg.Model, req)
	if err != nil {
		return "", providerError(err)
	}
	if url == "" {
		return "", providerError(errors.New("empty image url"))
	}
	return url, nil
}

func (s *Service) reply(ctx context.Context, msg domain.Message, trigger domain.Trigger, req domain.GenerationRequest) domain.Reply {
	url, err := s.Generate(ctx, req)
	if err == nil || KindOf(err) == KindProvider {
		s.record(ctx, msg, trigger, req, url, err)
	}

	if err != nil {
		slog.Warn("image generation failed",
			"platform", msg.Platform,
			"channel", msg.ChannelID,
			"kind", KindOf(err).String(),
			"error", err,
		)
		return ErrorReply(err)
	}

	slog.Info("image generated",
		"platform", msg.Platform,
		"channel", msg.ChannelID,
		"size", req.Size,
		"trigger", trigger,
	)
	return successReply(req.Prompt, req.Size, url)
}

func (s *Service) record(ctx context.Context, msg domain.Message, trigger domain.Trigger, req domain.GenerationRequest, url string, err error) {
	if len(s.recorders) == 0 {
		return
	}

	rec := domain.GenerationRecord{
		ID:        s.newID(),
		Platform:  msg.Platform,
		ChannelID: msg.ChannelID,
		Username:  msg.Username,
		Trigger:   trigger,
		Model:     s.cfg.Model,
		Prompt:    req.Prompt,
		Size:      req.Size,
		ImageURL:  url,
		CreatedAt: s.now().UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
	}

	for _, r := range s.recorders {
		if rerr := r.RecordGeneration(ctx, rec); rerr != nil {
			slog.Warn("recording generation failed", "id", rec.ID, "error", rerr)
		}
	}
}
