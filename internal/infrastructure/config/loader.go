package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir      string
	DatabasePath string
	WSAddr       string
	LogLevel     slog.Level

	TwitchUsername string
	TwitchToken    string
	TwitchChannels []string

	KickToken             string
	KickBroadcasterUserID int
	KickChatroomID        int
	KickBotUserID         int
	KickBotUsername       string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:         envOr("DATA_DIR", "data"),
		WSAddr:          envOr("CHAT_WS_ADDR", ":8080"),
		LogLevel:        parseLevel(os.Getenv("LOG_LEVEL")),
		TwitchUsername:  os.Getenv("TWITCH_BOT_USERNAME"),
		TwitchToken:     os.Getenv("TWITCH_BOT_ACCESS_TOKEN"),
		TwitchChannels:  splitList(os.Getenv("TWITCH_BOT_CHANNELS")),
		KickToken:       os.Getenv("KICK_BOT_TOKEN"),
		KickBotUsername: strings.TrimSpace(os.Getenv("KICK_BOT_USERNAME")),
	}

	cfg.DatabasePath = envOr("DATABASE_PATH", filepath.Join(cfg.DataDir, "aimg.db"))
	cfg.KickBroadcasterUserID = envInt("KICK_BROADCASTER_USER_ID")
	cfg.KickChatroomID = envInt("KICK_CHATROOM_ID")
	cfg.KickBotUserID = envInt("KICK_BOT_USER_ID")

	return cfg, nil
}

func (c *Config) TwitchEnabled() bool {
	return c.TwitchUsername != "" && c.TwitchToken != "" && len(c.TwitchChannels) > 0
}

func (c *Config) KickEnabled() bool {
	return c.KickToken != "" && c.KickBroadcasterUserID != 0 && c.KickChatroomID != 0
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("config: ignoring invalid integer", "key", key, "value", raw)
		return 0
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
