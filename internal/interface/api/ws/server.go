package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"aimgBot/internal/app/events"
	"aimgBot/internal/domain"
)

const (
	EnvelopeReply = "reply"

	defaultChannelID = "web"
)

// Server is the web chat transport: /ws/chat clients send messages as the "web"
// platform and receive replies and bus events as JSON envelopes. Replies go only
// to clients that joined the reply's channel, either with ?channel= on connect
// or by sending a message on it; bus events go to every client.
type Server struct {
	addr     string
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	handler MessageHandler

	httpSrv *http.Server
	api     *apiHandlers
}

type MessageHandler func(ctx context.Context, msg domain.Message) error

type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type replyPayload struct {
	ChannelID string           `json:"channel_id"`
	Segments  []domain.Segment `json:"segments"`
	Text      string           `json:"text"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex

	chMu     sync.RWMutex
	channels map[string]struct{}
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{conn: conn, channels: make(map[string]struct{})}
}

func (c *wsClient) writeRaw(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsClient) join(channelID string) {
	if channelID == "" {
		return
	}
	c.chMu.Lock()
	c.channels[channelID] = struct{}{}
	c.chMu.Unlock()
}

func (c *wsClient) inChannel(channelID string) bool {
	c.chMu.RLock()
	defer c.chMu.RUnlock()
	_, ok := c.channels[channelID]
	return ok
}

func NewServer(cfg Config) *Server {
	return &Server{
		addr: cfg.addr(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*wsClient]struct{}),
		api:     newAPIHandlers(cfg),
	}
}

// Handler builds the HTTP routes; ctx bounds the lifetime of web socket clients.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/chat", func(w http.ResponseWriter, r *http.Request) {
		s.handleWS(ctx, w, r)
	})
	if s.api != nil {
		s.api.register(mux)
	}
	return mux
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("ws: shutdown", "error", err)
		}
		s.closeClients()
	}()

	slog.Info("ws: listening", "addr", s.addr)

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws: upgrade", "error", err)
		return
	}

	client := newWSClient(conn)
	client.join(strings.TrimSpace(r.URL.Query().Get("channel")))

	s.mu.Lock()
	s.clients[client] = struct{}{}
	clientCount := len(s.clients)
	s.mu.Unlock()

	slog.Info("ws: client connected", "remote", r.RemoteAddr, "clients", clientCount)

	go s.handleClient(ctx, client)
}

func (s *Server) handleClient(ctx context.Context, client *wsClient) {
	defer func() {
		s.removeClient(client)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgType, data, err := client.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("ws: read", "error", err)
			}
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		if err := s.dispatchIncoming(ctx, client, data); err != nil {
			slog.Warn("ws: incoming dispatch", "error", err)
		}
	}
}

type incomingPayload struct {
	Text      string `json:"text"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	IsPrivate bool   `json:"is_private"`
}

func (s *Server) dispatchIncoming(ctx context.Context, client *wsClient, data []byte) error {
	msg, err := parseIncoming(data)
	if err != nil {
		return err
	}
	client.join(msg.ChannelID)

	handler := s.getHandler()
	if handler == nil {
		return nil
	}

	return handler(ctx, msg)
}

// parseIncoming accepts a JSON payload or a raw text frame. The text is kept
// verbatim since it may become the prompt.
func parseIncoming(data []byte) (domain.Message, error) {
	payload := incomingPayload{}
	if err := json.Unmarshal(data, &payload); err != nil {
		payload = incomingPayload{Text: string(data)}
	}

	if strings.TrimSpace(payload.Text) == "" {
		return domain.Message{}, fmt.Errorf("ws: empty incoming text")
	}

	msg := domain.Message{
		Platform:  domain.PlatformWeb,
		ChannelID: strings.TrimSpace(payload.ChannelID),
		UserID:    strings.TrimSpace(payload.UserID),
		Username:  strings.TrimSpace(payload.Username),
		Text:      payload.Text,
		IsPrivate: payload.IsPrivate,
	}
	if msg.ChannelID == "" {
		msg.ChannelID = defaultChannelID
	}
	if msg.UserID == "" {
		msg.UserID = "web"
	}
	if msg.Username == "" {
		msg.Username = "web-user"
	}
	return msg, nil
}

func (s *Server) getHandler() MessageHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handler
}

func (s *Server) SetHandler(h MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// SendReply sends the reply to the clients that joined channelID.
func (s *Server) SendReply(ctx context.Context, platform domain.Platform, channelID string, reply domain.Reply) error {
	if platform != domain.PlatformWeb {
		return fmt.Errorf("ws: platform %s not supported", platform)
	}
	return s.send(ctx, func(c *wsClient) bool { return c.inChannel(channelID) }, Envelope{
		Type: EnvelopeReply,
		Data: replyPayload{
			ChannelID: channelID,
			Segments:  reply.Segments,
			Text:      reply.PlainText(),
		},
	})
}

// Forward pushes every payload published on topics to the clients until ctx ends.
func (s *Server) Forward(ctx context.Context, bus *events.Bus, topics ...string) {
	if bus == nil {
		return
	}
	for _, topic := range topics {
		ch, unsubscribe := bus.Subscribe(topic)
		go func() {
			defer unsubscribe()
			for {
				select {
				case <-ctx.Done():
					return
				case payload, ok := <-ch:
					if !ok {
						return
					}
					if err := s.broadcast(ctx, Envelope{Type: topic, Data: payload}); err != nil {
						slog.Debug("ws: forward", "topic", topic, "error", err)
					}
				}
			}
		}()
	}
}

func (s *Server) broadcast(ctx context.Context, envelope Envelope) error {
	return s.send(ctx, nil, envelope)
}

// send writes envelope to the clients accepted by filter, or to all of them when
// filter is nil.
func (s *Server) send(ctx context.Context, filter func(*wsClient) bool, envelope Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	s.mu.RLock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		if filter == nil || filter(c) {
			clients = append(clients, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range clients {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.writeRaw(payload); err != nil {
			slog.Warn("ws: removing client after write error", "error", err)
			s.removeClient(c)
		}
	}

	return nil
}

func (s *Server) removeClient(c *wsClient) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	clientCount := len(s.clients)
	s.mu.Unlock()

	if ok {
		c.conn.Close()
		slog.Info("ws: client disconnected", "clients", clientCount)
	}
}

func (s *Server) closeClients() {
	s.mu.RLock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		s.removeClient(c)
	}
}
