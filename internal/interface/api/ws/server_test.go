package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aimgBot/internal/app/events"
	"aimgBot/internal/domain"
)

type fakeLister struct {
	records []domain.GenerationRecord
	limit   int
	err     error
}

func (f *fakeLister) ListGenerations(_ context.Context, limit int) ([]domain.GenerationRecord, error) {
	f.limit = limit
	return f.records, f.err
}

func startServer(t *testing.T, cfg Config) (*Server, *httptest.Server, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(cfg)
	httpSrv := httptest.NewServer(srv.Handler(ctx))
	t.Cleanup(func() {
		cancel()
		httpSrv.Close()
	})
	return srv, httpSrv, ctx
}

func dial(t *testing.T, httpSrv *httptest.Server) *websocket.Conn {
	t.Helper()
	return dialPath(t, httpSrv, "/ws/chat")
}

func dialPath(t *testing.T, httpSrv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var env map[string]any
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestChatRoundTrip(t *testing.T) {
	srv, httpSrv, _ := startServer(t, Config{})

	received := make(chan domain.Message, 1)
	srv.SetHandler(func(ctx context.Context, msg domain.Message) error {
		received <- msg
		return srv.SendReply(ctx, msg.Platform, msg.ChannelID, domain.Reply{Segments: []domain.Segment{
			{Type: domain.SegmentText, Text: "提示词：" + msg.Text},
			{Type: domain.SegmentImage, URL: "https://img/1.png"},
		}})
	})

	conn := dial(t, httpSrv)
	require.NoError(t, conn.WriteJSON(map[string]string{"text": " 画一只猫 ", "channel_id": "room-1", "username": "ana"}))

	msg := <-received
	assert.Equal(t, domain.PlatformWeb, msg.Platform)
	assert.Equal(t, " 画一只猫 ", msg.Text)
	assert.Equal(t, "room-1", msg.ChannelID)
	assert.Equal(t, "ana", msg.Username)
	assert.Equal(t, "web", msg.UserID)

	env := readEnvelope(t, conn)
	assert.Equal(t, EnvelopeReply, env["type"])
	data := env["data"].(map[string]any)
	assert.Equal(t, "room-1", data["channel_id"])
	segs := data["segments"].([]any)
	require.Len(t, segs, 2)
	assert.Equal(t, "https://img/1.png", segs[1].(map[string]any)["url"])
}

func TestReplyGoesOnlyToJoinedChannel(t *testing.T) {
	srv, httpSrv, _ := startServer(t, Config{})

	received := make(chan domain.Message, 1)
	srv.SetHandler(func(_ context.Context, msg domain.Message) error {
		received <- msg
		return nil
	})

	ana := dial(t, httpSrv)
	bob := dialPath(t, httpSrv, "/ws/chat?channel=room-2")

	require.NoError(t, ana.WriteJSON(map[string]string{"text": "hi", "channel_id": "room-1"}))
	<-received
	// a round trip on bob's socket ensures its join is registered
	require.NoError(t, bob.WriteJSON(map[string]string{"text": "hey", "channel_id": "room-2"}))
	<-received

	ctx := context.Background()
	require.NoError(t, srv.SendReply(ctx, domain.PlatformWeb, "room-1", domain.TextReply("for room-1")))
	require.NoError(t, srv.SendReply(ctx, domain.PlatformWeb, "room-2", domain.TextReply("for room-2")))

	env := readEnvelope(t, ana)
	assert.Equal(t, "room-1", env["data"].(map[string]any)["channel_id"])

	// bob never sees room-1: its first envelope is the room-2 reply
	env = readEnvelope(t, bob)
	assert.Equal(t, "room-2", env["data"].(map[string]any)["channel_id"])
	assert.Equal(t, "for room-2", env["data"].(map[string]any)["text"])
}

func TestRawTextFrame(t *testing.T) {
	srv, httpSrv, _ := startServer(t, Config{})

	received := make(chan domain.Message, 1)
	srv.SetHandler(func(_ context.Context, msg domain.Message) error {
		received <- msg
		return nil
	})

	conn := dial(t, httpSrv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("painting of a boat")))

	msg := <-received
	assert.Equal(t, "painting of a boat", msg.Text)
	assert.Equal(t, defaultChannelID, msg.ChannelID)
}

func TestForwardBusEvents(t *testing.T) {
	srv, httpSrv, ctx := startServer(t, Config{})
	bus := events.NewBus()
	srv.Forward(ctx, bus, events.TopicGeneration)

	received := make(chan struct{}, 1)
	srv.SetHandler(func(_ context.Context, _ domain.Message) error {
		received <- struct{}{}
		return nil
	})

	conn := dial(t, httpSrv)
	// one round trip guarantees the client is registered before publishing
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	<-received

	bus.Publish(events.TopicGeneration, domain.GenerationRecord{ID: "g1", Prompt: "画"})

	env := readEnvelope(t, conn)
	assert.Equal(t, events.TopicGeneration, env["type"])
	assert.Equal(t, "g1", env["data"].(map[string]any)["id"])
}

func TestSendReplyRejectsOtherPlatforms(t *testing.T) {
	srv := NewServer(Config{})
	require.Error(t, srv.SendReply(context.Background(), domain.PlatformTwitch, "c", domain.TextReply("x")))
	require.NoError(t, srv.SendReply(context.Background(), domain.PlatformWeb, "c", domain.TextReply("x")))
}

func TestParseIncomingRejectsEmpty(t *testing.T) {
	_, err := parseIncoming([]byte(`{"text":"   "}`))
	require.Error(t, err)
}

func TestGenerationsAPI(t *testing.T) {
	lister := &fakeLister{records: []domain.GenerationRecord{{ID: "a"}, {ID: "b"}}}
	_, httpSrv, _ := startServer(t, Config{Generations: lister})

	resp, err := http.Get(httpSrv.URL + "/api/generations?limit=500")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, maxListLimit, lister.limit)

	var body generationsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Generations, 2)
	assert.Equal(t, "a", body.Generations[0].ID)

	bad, err := http.Get(httpSrv.URL + "/api/generations?limit=abc")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	lister.err = errors.New("db locked")
	failed, err := http.Get(httpSrv.URL + "/api/generations")
	require.NoError(t, err)
	failed.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, failed.StatusCode)
	assert.Equal(t, defaultListLimit, lister.limit)
}

func TestPluginAPI(t *testing.T) {
	_, httpSrv, _ := startServer(t, Config{Model: "cogView-4", Sizes: []string{"1024x1024"}, Keywords: []string{"画"}})

	resp, err := http.Get(httpSrv.URL + "/api/plugin")
	require.NoError(t, err)
	defer resp.Body.Close()

	var info pluginInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, pluginInfo{Model: "cogView-4", Sizes: []string{"1024x1024"}, Keywords: []string{"画"}}, info)

	post, err := http.Post(httpSrv.URL+"/api/plugin", "application/json", nil)
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}

func TestGenerationsAPIDisabledWithoutLister(t *testing.T) {
	_, httpSrv, _ := startServer(t, Config{})

	resp, err := http.Get(httpSrv.URL + "/api/generations")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
