// Package twitchadapter connects the bot to Twitch chat over IRC.
package twitchadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/adeithe/go-twitch/irc"

	"aimgBot/internal/domain"
)

type Config struct {
	Username   string
	OAuthToken string
	Channels   []string
}

type MessageHandler func(ctx context.Context, msg domain.Message) error

type Adapter struct {
	cfg     Config
	handler MessageHandler

	mu   sync.RWMutex
	conn *irc.Conn
}

func NewAdapter(cfg Config) *Adapter {
	cfg.OAuthToken = FormatOAuthToken(cfg.OAuthToken)
	return &Adapter{cfg: cfg}
}

// FormatOAuthToken adds the "oauth:" prefix IRC login expects.
func FormatOAuthToken(token string) string {
	if token == "" || strings.HasPrefix(token, "oauth:") {
		return token
	}
	return "oauth:" + token
}

func (a *Adapter) SetHandler(h MessageHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = h
}

func (a *Adapter) Start(ctx context.Context) error {
	if len(a.cfg.Channels) == 0 {
		return errors.New("twitch: no channels configured")
	}
	if a.cfg.Username == "" || a.cfg.OAuthToken == "" {
		return errors.New("twitch: empty username or oauth token")
	}

	conn := &irc.Conn{}

	if err := conn.SetLogin(a.cfg.Username, a.cfg.OAuthToken); err != nil {
		return fmt.Errorf("twitch: SetLogin: %w", err)
	}

	conn.OnMessage(func(cm irc.ChatMessage) {
		a.mu.RLock()
		handler := a.handler
		a.mu.RUnlock()
		if handler == nil {
			return
		}

		msg := mapChatMessageToDomain(cm, a.cfg.Username)
		if err := handler(ctx, msg); err != nil {
			slog.Error("twitch: handler failed", "channel", msg.ChannelID, "error", err)
		}
	})

	if err := conn.Connect(); err != nil {
		return fmt.Errorf("twitch: Connect: %w", err)
	}

	if err := conn.Join(a.cfg.Channels...); err != nil {
		conn.Close()
		return fmt.Errorf("twitch: Join: %w", err)
	}

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()

	slog.Info("twitch: connected", "user", a.cfg.Username, "channels", a.cfg.Channels)

	<-ctx.Done()

	a.mu.Lock()
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	a.mu.Unlock()

	return ctx.Err()
}

// SendReply posts the reply as one chat line; image segments are sent as their URL.
func (a *Adapter) SendReply(ctx context.Context, platform domain.Platform, channelID string, reply domain.Reply) error {
	if platform != domain.PlatformTwitch {
		return fmt.Errorf("twitch adapter does not support platform %s", platform)
	}

	a.mu.RLock()
	conn := a.conn
	a.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return errors.New("twitch: connection not initialised or closed")
	}

	text := reply.PlainText()
	if text == "" {
		return nil
	}

	slog.Debug("twitch: say", "channel", channelID, "text", text)
	return conn.Say(channelID, text)
}

func mapChatMessageToDomain(cm irc.ChatMessage, botUsername string) domain.Message {
	sender := cm.Sender

	return domain.Message{
		Platform:  domain.PlatformTwitch,
		ChannelID: cm.Channel,
		UserID:    strconv.FormatInt(sender.ID, 10),
		Username:  sender.DisplayName,
		Text:      cm.Text,

		IsPlatformOwner: sender.IsBroadcaster,
		IsPlatformMod:   sender.IsModerator,
		IsSelf:          botUsername != "" && strings.EqualFold(sender.Username, botUsername),
	}
}
