package zhipu

import (
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3/option"
)

const DefaultBaseURL = "https://open.bigmodel.cn/api/paas/v4/"

type Config struct {
	url   string
	token string

	client *http.Client
}

type Option func(*Config)

func WithURL(url string) Option {
	return func(c *Config) {
		c.url = url
	}
}

func WithToken(token string) Option {
	return func(c *Config) {
		c.token = token
	}
}

func WithClient(client *http.Client) Option {
	return func(c *Config) {
		c.client = client
	}
}

// Options maps the config onto SDK request options. Retries are disabled, a failed
// call is reported to the chat as is.
func (c *Config) Options() []option.RequestOption {
	if c.url == "" {
		c.url = DefaultBaseURL
	}

	if c.client == nil {
		c.client = http.DefaultClient
	}

	c.url = strings.TrimRight(c.url, "/") + "/"

	options := []option.RequestOption{
		option.WithBaseURL(c.url),
		option.WithHTTPClient(c.client),
		option.WithMaxRetries(0),
	}

	if c.token != "" {
		options = append(options, option.WithAPIKey(c.token))
	}

	return options
}
