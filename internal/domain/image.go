package domain

import "time"

type GenerationRequest struct {
	Prompt string
	Size   string
}

type Trigger string

const (
	TriggerKeyword Trigger = "keyword"
	TriggerCommand Trigger = "command"
)

// GenerationRecord is the audit entry of a single provider call.
type GenerationRecord struct {
	ID        string    `json:"id"`
	Platform  Platform  `json:"platform"`
	ChannelID string    `json:"channel_id"`
	Username  string    `json:"username"`
	Trigger   Trigger   `json:"trigger"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	Size      string    `json:"size"`
	ImageURL  string    `json:"image_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (r GenerationRecord) Succeeded() bool {
	return r.Error == "" && r.ImageURL != ""
}
