package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"aimgBot/internal/app/events"
	"aimgBot/internal/domain"
	"aimgBot/internal/infrastructure/config"
	"aimgBot/internal/infrastructure/imagegen/zhipu"
	sqlitestorage "aimgBot/internal/infrastructure/persistence/sqlite"
	kickadapter "aimgBot/internal/interface/adapters/kick"
	twitchadapter "aimgBot/internal/interface/adapters/twitch"
	ws "aimgBot/internal/interface/api/ws"
	"aimgBot/internal/interface/outs"
	"aimgBot/internal/usecase/commands"
	"aimgBot/internal/usecase/handle_message"
	"aimgBot/internal/usecase/imagegen"
)

func main() {
	if err := run(); err != nil {
		slog.Error("bot stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	pluginCfg, err := config.LoadPlugin(cfg.DataDir)
	if err != nil {
		return err
	}
	if pluginCfg.APIKey == "" {
		slog.Warn("api_key not configured, drawing requests will be answered with a setup hint",
			"file", config.Path(cfg.DataDir, config.PluginName))
	}

	// ---------- 1) Storage and events ----------

	store, err := sqlitestorage.NewGenerationStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	bus := events.NewBus()
	defer bus.Close()

	// ---------- 2) Image plugin ----------

	zhipuOpts := []zhipu.Option{zhipu.WithToken(pluginCfg.APIKey)}
	if pluginCfg.BaseURL != "" {
		zhipuOpts = append(zhipuOpts, zhipu.WithURL(pluginCfg.BaseURL))
	}

	images, err := zhipu.NewClient(zhipuOpts...)
	if err != nil {
		return err
	}

	svc, err := imagegen.NewService(imagegen.Config{
		APIKey:        pluginCfg.APIKey,
		Model:         pluginCfg.Model,
		CommandPrefix: pluginCfg.CommandPrefix,
	}, images, store, events.NewGenerationPublisher(bus))
	if err != nil {
		return err
	}

	// ---------- 3) Commands and message flow ----------

	router := commands.NewRouter(pluginCfg.CommandPrefix)
	router.Register(commands.NewAimgCommand(svc))

	multiOut := outs.NewMultiSender()

	uc := handle_message.NewInteractor(multiOut, router, svc, bus, handle_message.Options{
		Commands: pluginCfg.TriggerMode.Command(),
		Keywords: pluginCfg.TriggerMode.Keyword(),
	})

	// ---------- 4) Transports ----------

	wsServer := ws.NewServer(ws.Config{
		Addr:        cfg.WSAddr,
		Generations: store,
		Sizes:       imagegen.ValidSizes(),
		Keywords:    imagegen.Keywords(),
		Model:       svc.Model(),
	})
	wsServer.SetHandler(uc.Handle)
	wsServer.Forward(ctx, bus, events.TopicChatMessage, events.TopicGeneration)
	multiOut.Register(domain.PlatformWeb, wsServer)

	var wg sync.WaitGroup
	runAdapter := func(name string, start func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("adapter stopped", "adapter", name, "error", err)
			}
		}()
	}

	runAdapter("ws", wsServer.Start)

	if cfg.TwitchEnabled() {
		twitchAd := twitchadapter.NewAdapter(twitchadapter.Config{
			Username:   cfg.TwitchUsername,
			OAuthToken: cfg.TwitchToken,
			Channels:   cfg.TwitchChannels,
		})
		twitchAd.SetHandler(uc.Handle)
		multiOut.Register(domain.PlatformTwitch, twitchAd)
		runAdapter("twitch", twitchAd.Start)
	} else {
		slog.Info("twitch disabled: TWITCH_BOT_USERNAME, TWITCH_BOT_ACCESS_TOKEN or TWITCH_BOT_CHANNELS missing")
	}

	if cfg.KickEnabled() {
		kickAd := kickadapter.NewAdapter(kickadapter.Config{
			AccessToken:       cfg.KickToken,
			BroadcasterUserID: cfg.KickBroadcasterUserID,
			ChatroomID:        cfg.KickChatroomID,
			BotUserID:         cfg.KickBotUserID,
			BotUsername:       cfg.KickBotUsername,
		})
		kickAd.SetHandler(uc.Handle)
		multiOut.Register(domain.PlatformKick, kickAd)
		runAdapter("kick", kickAd.Start)
	} else {
		slog.Info("kick disabled: KICK_BOT_TOKEN, KICK_BROADCASTER_USER_ID or KICK_CHATROOM_ID missing")
	}

	slog.Info("bot started",
		"model", svc.Model(),
		"trigger_mode", pluginCfg.TriggerMode,
		"command", pluginCfg.CommandPrefix+imagegen.CommandName,
	)

	<-ctx.Done()
	wg.Wait()

	slog.Info("bot stopped")
	return nil
}
