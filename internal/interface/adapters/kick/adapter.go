// Package kickadapter connects the bot to a Kick chatroom.
package kickadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	kicksdk "github.com/glichtv/kick-sdk"
	kickchatwrapper "github.com/johanvandegriff/kick-chat-wrapper"

	"aimgBot/internal/domain"
)

// Kick rejects chat messages longer than this.
const maxMessageLength = 500

// Posts remembered to recognise their echo on the chatroom socket.
const maxRecentPosts = 16

type Config struct {
	AccessToken string

	BroadcasterUserID int

	// Chatroom id, not the user id: https://kick.com/api/v2/channels/{slug} -> "chatroom":{"id":...}
	ChatroomID int

	// Account behind AccessToken. Its messages are marked as the bot's own.
	BotUserID   int
	BotUsername string
}

type MessageHandler func(ctx context.Context, msg domain.Message) error

type Adapter struct {
	cfg     Config
	handler MessageHandler

	mu     sync.RWMutex
	sdk    *kicksdk.Client
	ws     *kickchatwrapper.Client
	recent []string
}

func NewAdapter(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

func (a *Adapter) SetHandler(h MessageHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = h
}

func (a *Adapter) Start(ctx context.Context) error {
	if a.cfg.AccessToken == "" {
		return errors.New("kick: empty access token")
	}
	if a.cfg.ChatroomID == 0 {
		return errors.New("kick: chatroom id not configured")
	}
	if a.cfg.BroadcasterUserID == 0 {
		return errors.New("kick: broadcaster user id not configured")
	}

	sdkClient := kicksdk.NewClient(
		kicksdk.WithAccessTokens(kicksdk.AccessTokens{
			UserAccessToken: a.cfg.AccessToken,
		}),
	)

	wsClient, err := kickchatwrapper.NewClient()
	if err != nil {
		return fmt.Errorf("kick: creating ws client: %w", err)
	}

	if err := wsClient.JoinChannelByID(a.cfg.ChatroomID); err != nil {
		return fmt.Errorf("kick: JoinChannelByID: %w", err)
	}

	msgChan := wsClient.ListenForMessages()

	a.mu.Lock()
	a.sdk = sdkClient
	a.ws = wsClient
	a.mu.Unlock()

	slog.Info("kick: connected", "chatroom", a.cfg.ChatroomID, "broadcaster", a.cfg.BroadcasterUserID)

	go func() {
		for {
			select {
			case m, ok := <-msgChan:
				if !ok {
					slog.Warn("kick: message channel closed")
					return
				}
				if !isChatMessage(m) {
					continue
				}

				a.mu.RLock()
				handler := a.handler
				a.mu.RUnlock()
				if handler == nil {
					continue
				}

				dmsg := mapChatMessageToDomain(m, a.cfg)
				if !dmsg.IsSelf {
					dmsg.IsSelf = a.takeRecent(m.Content)
				}
				if err := handler(ctx, dmsg); err != nil {
					slog.Error("kick: handler failed", "chatroom", dmsg.ChannelID, "error", err)
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()

	a.mu.Lock()
	if a.ws != nil {
		a.ws.Close()
	}
	a.mu.Unlock()

	return ctx.Err()
}

// SendReply posts the flattened reply to the broadcaster's chat.
func (a *Adapter) SendReply(ctx context.Context, platform domain.Platform, _ string, reply domain.Reply) error {
	if platform != domain.PlatformKick {
		return fmt.Errorf("kick adapter does not support platform %s", platform)
	}

	a.mu.RLock()
	client := a.sdk
	a.mu.RUnlock()

	if client == nil {
		return errors.New("kick: sdk client not initialised")
	}

	text := truncate(reply.PlainText(), maxMessageLength)
	if text == "" {
		return nil
	}

	resp, err := client.Chat().PostMessage(ctx, kicksdk.PostChatMessageInput{
		BroadcasterUserID: a.cfg.BroadcasterUserID,
		Content:           text,
		PosterType:        kicksdk.MessagePosterUser,
	})
	if err != nil {
		return fmt.Errorf("kick: posting chat message: %w", err)
	}

	if !resp.Payload.IsSent {
		meta := resp.ResponseMetadata
		slog.Warn("kick: message rejected",
			"status", meta.StatusCode,
			"kick_message", meta.KickMessage,
			"kick_error", meta.KickError,
		)
		return fmt.Errorf("kick: message not accepted (status %d)", meta.StatusCode)
	}

	a.remember(text)
	return nil
}

func (a *Adapter) remember(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recent = append(a.recent, strings.TrimSpace(text))
	if len(a.recent) > maxRecentPosts {
		a.recent = a.recent[len(a.recent)-maxRecentPosts:]
	}
}

// takeRecent reports whether content is one of our recent posts and forgets it.
func (a *Adapter) takeRecent(content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for i, t := range a.recent {
		if t == content {
			a.recent = append(a.recent[:i], a.recent[i+1:]...)
			return true
		}
	}
	return false
}

func isChatMessage(m kickchatwrapper.ChatMessage) bool {
	t := strings.TrimSpace(m.Type)
	return t == "" || strings.EqualFold(t, "chat") || strings.EqualFold(t, "message")
}

// truncate keeps the tail of s, where the image URL sits.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return "…" + string(r[len(r)-limit+1:])
}

func mapChatMessageToDomain(m kickchatwrapper.ChatMessage, cfg Config) domain.Message {
	sender := m.Sender

	isOwner := sender.ID == cfg.BroadcasterUserID
	isSelf := (cfg.BotUserID != 0 && sender.ID == cfg.BotUserID) ||
		(cfg.BotUsername != "" && strings.EqualFold(sender.Username, cfg.BotUsername))

	var isMod bool
	for _, b := range sender.Identity.Badges {
		switch strings.ToLower(b.Type) {
		case "moderator", "broadcaster":
			isMod = true
		}
	}

	return domain.Message{
		Platform:  domain.PlatformKick,
		ChannelID: strconv.Itoa(m.ChatroomID),
		UserID:    strconv.Itoa(sender.ID),
		Username:  sender.Username,
		Text:      m.Content,

		IsPlatformOwner: isOwner,
		IsPlatformMod:   isMod,
		IsSelf:          isSelf,
	}
}
