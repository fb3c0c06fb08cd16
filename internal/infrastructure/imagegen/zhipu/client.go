// Package zhipu talks to the Zhipu AI (bigmodel.cn) image API through its
// OpenAI compatible endpoint.
package zhipu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/openai/openai-go/v3"

	"aimgBot/internal/domain"
)

var _ domain.ImageGenerator = (*Client)(nil)

type Client struct {
	*Config
	images openai.ImageService
}

func NewClient(options ...Option) (*Client, error) {
	cfg := &Config{}

	for _, option := range options {
		option(cfg)
	}

	opts := cfg.Options()

	u, err := url.Parse(cfg.url)
	if err != nil {
		return nil, fmt.Errorf("zhipu: invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("zhipu: unsupported base url scheme %q", u.Scheme)
	}

	return &Client{
		Config: cfg,
		images: openai.NewImageService(opts...),
	}, nil
}

func (c *Client) GenerateImage(ctx context.Context, model string, req domain.GenerationRequest) (string, error) {
	resp, err := c.images.Generate(ctx, openai.ImageGenerateParams{
		Model:  openai.ImageModel(model),
		Prompt: req.Prompt,
		Size:   openai.ImageGenerateParamsSize(req.Size),
	})

	if err != nil {
		return "", convertError(err)
	}

	if len(resp.Data) == 0 {
		return "", errors.New("zhipu: empty result list")
	}

	if resp.Data[0].URL == "" {
		return "", errors.New("zhipu: result has no url")
	}

	return resp.Data[0].URL, nil
}

func convertError(err error) error {
	var apierr *openai.Error

	if errors.As(err, &apierr) {
		slog.Debug("zhipu api error", "status", apierr.StatusCode, "error", apierr.Error())
		return fmt.Errorf("zhipu: status %d: %w", apierr.StatusCode, err)
	}

	return fmt.Errorf("zhipu: %w", err)
}
