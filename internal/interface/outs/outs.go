package outs

import (
	"context"
	"fmt"
	"sync"

	"aimgBot/internal/domain"
)

// Sender is implemented by every outbound adapter (Twitch, Kick, web socket).
type Sender interface {
	SendReply(ctx context.Context, platform domain.Platform, channelID string, reply domain.Reply) error
}

// MultiSender routes a reply to the sender registered for its platform.
type MultiSender struct {
	mu      sync.RWMutex
	senders map[domain.Platform]Sender
}

var _ domain.OutgoingMessagePort = (*MultiSender)(nil)

func NewMultiSender() *MultiSender {
	return &MultiSender{
		senders: make(map[domain.Platform]Sender),
	}
}

func (m *MultiSender) Register(platform domain.Platform, sender Sender) {
	if m == nil || sender == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.senders[platform] = sender
}

func (m *MultiSender) Unregister(platform domain.Platform) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.senders, platform)
}

func (m *MultiSender) SendReply(ctx context.Context, platform domain.Platform, channelID string, reply domain.Reply) error {
	if m == nil {
		return fmt.Errorf("outs: no multi sender configured")
	}
	m.mu.RLock()
	sender, ok := m.senders[platform]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("outs: no sender registered for platform %s", platform)
	}

	return sender.SendReply(ctx, platform, channelID, reply)
}
