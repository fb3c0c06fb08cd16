package imagegen

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aimgBot/internal/domain"
)

type fakeGenerator struct {
	url   string
	err   error
	calls []domain.GenerationRequest
	model string
}

func (f *fakeGenerator) GenerateImage(_ context.Context, model string, req domain.GenerationRequest) (string, error) {
	f.calls = append(f.calls, req)
	f.model = model
	return f.url, f.err
}

type fakeRecorder struct {
	records []domain.GenerationRecord
	err     error
}

func (f *fakeRecorder) RecordGeneration(_ context.Context, rec domain.GenerationRecord) error {
	f.records = append(f.records, rec)
	return f.err
}

func newTestService(t *testing.T, apiKey string, gen *fakeGenerator, recorders ...domain.GenerationRecorder) *Service {
	t.Helper()
	svc, err := NewService(Config{APIKey: apiKey}, gen, recorders...)
	require.NoError(t, err)
	svc.newID = func() string { return "rec-1" }
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func msg(text string) domain.Message {
	return domain.Message{Platform: domain.PlatformWeb, ChannelID: "c1", Username: "ana", Text: text}
}

func TestNewServiceRequiresGenerator(t *testing.T) {
	_, err := NewService(Config{APIKey: "k"}, nil)
	require.Error(t, err)
}

func TestNewServiceDefaults(t *testing.T) {
	svc, err := NewService(Config{}, &fakeGenerator{})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.Model())
	assert.False(t, svc.Configured())
}

func TestHandleMessageWithoutKeyword(t *testing.T) {
	gen := &fakeGenerator{url: "https://img/1.png"}
	svc := newTestService(t, "key", gen)

	for _, text := range []string{"", "hello there", "IMG of a cat", "Painting", "1024x1024"} {
		reply, ok := svc.HandleMessage(context.Background(), msg(text))
		assert.False(t, ok, text)
		assert.True(t, reply.IsEmpty(), text)
	}
	assert.Empty(t, gen.calls)
}

func TestHandleMessageMissingCredential(t *testing.T) {
	gen := &fakeGenerator{url: "https://img/1.png"}
	svc := newTestService(t, "", gen)

	reply, ok := svc.HandleMessage(context.Background(), msg("画一只猫"))
	require.True(t, ok)
	assert.Equal(t, domain.TextReply(msgConfigMissing), reply)
	assert.Empty(t, gen.calls)
}

func TestHandleMessageUsesWholeTextAsPrompt(t *testing.T) {
	gen := &fakeGenerator{url: "https://img/cat.png"}
	svc := newTestService(t, "key", gen)

	text := "帮我画一张 橘猫 在屋顶上 1344x768"
	reply, ok := svc.HandleMessage(context.Background(), msg(text))
	require.True(t, ok)

	require.Len(t, gen.calls, 1)
	assert.Equal(t, text, gen.calls[0].Prompt)
	assert.Equal(t, "1344x768", gen.calls[0].Size)
	assert.Equal(t, DefaultModel, gen.model)

	require.Len(t, reply.Segments, 2)
	assert.Equal(t, domain.SegmentText, reply.Segments[0].Type)
	assert.Contains(t, reply.Segments[0].Text, text)
	assert.Contains(t, reply.Segments[0].Text, "1344x768")
	assert.Equal(t, domain.Segment{Type: domain.SegmentImage, URL: "https://img/cat.png"}, reply.Segments[1])
}

func TestHandleMessageDefaultSize(t *testing.T) {
	gen := &fakeGenerator{url: "https://img/1.png"}
	svc := newTestService(t, "key", gen)

	_, ok := svc.HandleMessage(context.Background(), msg("painting of a lighthouse"))
	require.True(t, ok)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, DefaultSize, gen.calls[0].Size)
}

func TestHandleMessageProviderError(t *testing.T) {
	providerErr := errors.New("429 quota exceeded")
	gen := &fakeGenerator{err: providerErr}
	rec := &fakeRecorder{}
	svc := newTestService(t, "key", gen, rec)

	reply, ok := svc.HandleMessage(context.Background(), msg("画画"))
	require.True(t, ok)
	require.Len(t, reply.Segments, 1)
	assert.Equal(t, domain.SegmentText, reply.Segments[0].Type)
	assert.Contains(t, reply.Segments[0].Text, providerErr.Error())
	assert.True(t, strings.HasPrefix(reply.Segments[0].Text, msgGenerationFailed))

	require.Len(t, rec.records, 1)
	assert.Equal(t, "rec-1", rec.records[0].ID)
	assert.Contains(t, rec.records[0].Error, providerErr.Error())
	assert.False(t, rec.records[0].Succeeded())
}

func TestHandleMessageEmptyURLIsProviderError(t *testing.T) {
	svc := newTestService(t, "key", &fakeGenerator{})

	_, err := svc.Generate(context.Background(), domain.GenerationRequest{Prompt: "img", Size: DefaultSize})
	require.Error(t, err)
	assert.Equal(t, KindProvider, KindOf(err))
}

func TestHandleMessageRecordsSuccess(t *testing.T) {
	gen := &fakeGenerator{url: "https://img/ok.png"}
	rec := &fakeRecorder{err: errors.New("disk full")}
	svc := newTestService(t, "key", gen, rec)

	reply, ok := svc.HandleMessage(context.Background(), msg("生图 720x1440"))
	require.True(t, ok)
	require.Len(t, reply.Segments, 2)

	require.Len(t, rec.records, 1)
	got := rec.records[0]
	assert.Equal(t, domain.GenerationRecord{
		ID:        "rec-1",
		Platform:  domain.PlatformWeb,
		ChannelID: "c1",
		Username:  "ana",
		Trigger:   domain.TriggerKeyword,
		Model:     DefaultModel,
		Prompt:    "生图 720x1440",
		Size:      "720x1440",
		ImageURL:  "https://img/ok.png",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, got)
	assert.True(t, got.Succeeded())
}

func TestHandleCommand(t *testing.T) {
	t.Run("empty prompt shows usage regardless of size", func(t *testing.T) {
		for _, size := range []string{"", "1024x1024", "bogus"} {
			gen := &fakeGenerator{url: "u"}
			svc := newTestService(t, "key", gen)

			reply := svc.HandleCommand(context.Background(), msg("/aimg"), "", size)
			require.Len(t, reply.Segments, 1)
			assert.Contains(t, reply.Segments[0].Text, "/aimg <提示词> [尺寸]")
			assert.Empty(t, gen.calls)
		}
	})

	t.Run("invalid size lists allow-list", func(t *testing.T) {
		for _, size := range []string{"1024X1024", "512x512", " 1440x720", "big"} {
			gen := &fakeGenerator{url: "u"}
			svc := newTestService(t, "key", gen)

			reply := svc.HandleCommand(context.Background(), msg("/aimg cat"), "cat", size)
			require.Len(t, reply.Segments, 1)
			for _, valid := range ValidSizes() {
				assert.Contains(t, reply.Segments[0].Text, valid)
			}
			assert.Empty(t, gen.calls)
		}
	})

	t.Run("missing credential", func(t *testing.T) {
		gen := &fakeGenerator{url: "u"}
		svc := newTestService(t, "", gen)

		reply := svc.HandleCommand(context.Background(), msg("/aimg cat"), "cat", "")
		assert.Equal(t, domain.TextReply(msgConfigMissing), reply)
		assert.Empty(t, gen.calls)
	})

	t.Run("valid request", func(t *testing.T) {
		gen := &fakeGenerator{url: "https://img/fox.png"}
		svc := newTestService(t, "key", gen)

		reply := svc.HandleCommand(context.Background(), msg("/aimg fox 1440x720"), "fox", "1440x720")
		require.Len(t, gen.calls, 1)
		assert.Equal(t, domain.GenerationRequest{Prompt: "fox", Size: "1440x720"}, gen.calls[0])
		require.Len(t, reply.Segments, 2)
		assert.Equal(t, "https://img/fox.png", reply.Segments[1].URL)
	})
}

func TestBuildCommandRequestErrorKinds(t *testing.T) {
	svc := newTestService(t, "key", &fakeGenerator{})

	_, err := svc.BuildCommandRequest("", "")
	assert.Equal(t, KindValidation, KindOf(err))
	assert.True(t, KindOf(err).UserFixable())

	req, err := svc.BuildCommandRequest("owl", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, req.Size)

	unconfigured := newTestService(t, "", &fakeGenerator{})
	_, err = unconfigured.BuildCommandRequest("owl", "")
	assert.Equal(t, KindConfigMissing, KindOf(err))
}
