package events

import (
	"context"
	"time"

	"aimgBot/internal/domain"
)

// ChatMessageDTO is the serialisable form of an inbound chat message.
type ChatMessageDTO struct {
	Platform  string `json:"platform"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	IsPrivate bool   `json:"is_private"`
	Timestamp string `json:"timestamp"`
}

func NewChatMessageDTO(msg domain.Message) ChatMessageDTO {
	return ChatMessageDTO{
		Platform:  string(msg.Platform),
		ChannelID: msg.ChannelID,
		UserID:    msg.UserID,
		Username:  msg.Username,
		Text:      msg.Text,
		IsPrivate: msg.IsPrivate,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// GenerationPublisher forwards generation records to the bus.
type GenerationPublisher struct {
	bus *Bus
}

var _ domain.GenerationRecorder = (*GenerationPublisher)(nil)

func NewGenerationPublisher(bus *Bus) *GenerationPublisher {
	return &GenerationPublisher{bus: bus}
}

func (p *GenerationPublisher) RecordGeneration(_ context.Context, rec domain.GenerationRecord) error {
	if p == nil || p.bus == nil {
		return nil
	}
	p.bus.Publish(TopicGeneration, rec)
	return nil
}
