package domain

type Platform string

const (
	PlatformTwitch Platform = "twitch"
	PlatformKick   Platform = "kick"
	PlatformWeb    Platform = "web"
)

type Message struct {
	Platform  Platform
	ChannelID string
	UserID    string
	Username  string
	Text      string
	IsPrivate bool

	// Flags set by the platform adapter
	IsPlatformOwner bool
	IsPlatformMod   bool

	// IsSelf marks the bot's own posts echoed back by the platform.
	IsSelf bool
}
