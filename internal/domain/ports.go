package domain

import "context"

// OutgoingMessagePort delivers a reply to the channel a message came from.
type OutgoingMessagePort interface {
	SendReply(ctx context.Context, platform Platform, channelID string, reply Reply) error
}

// ImageGenerator is the provider behind the image plugin.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, model string, req GenerationRequest) (string, error)
}

// GenerationRecorder receives one record per provider call.
type GenerationRecorder interface {
	RecordGeneration(ctx context.Context, rec GenerationRecord) error
}

type GenerationLister interface {
	ListGenerations(ctx context.Context, limit int) ([]GenerationRecord, error)
}
