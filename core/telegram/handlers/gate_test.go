package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	coreconfig "github.com/plushpepe/instabot/core/config"
	"github.com/plushpepe/instabot/core/ratelimit"
	"github.com/plushpepe/instabot/core/screen"
	"github.com/plushpepe/instabot/core/session"
	"github.com/plushpepe/instabot/core/store"

	tele "gopkg.in/telebot.v4"
)

// recordingTransport captures screen sends so tests can assert on the
// notices a pipeline stage rendered.
type recordingTransport struct {
	mu     sync.Mutex
	nextID int
	sent   []string
}

func (r *recordingTransport) Send(_ context.Context, _ int64, text string, _ any) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.sent = append(r.sent, text)
	return r.nextID, nil
}

func (r *recordingTransport) Edit(_ context.Context, _ int64, _ int, text string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return nil
}

func (r *recordingTransport) Delete(context.Context, int64, int) error { return nil }

func (r *recordingTransport) sentTexts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

var errStoreDown = errors.New("storage unavailable")

// brokenFlagStore fails every service flag read.
type brokenFlagStore struct {
	*store.Memory
}

func (s brokenFlagStore) ServiceEnabled(context.Context) (bool, error) {
	return false, errStoreDown
}

// brokenAdmissionStorage fails the first admission rule lookup.
type brokenAdmissionStorage struct {
	*store.Memory
}

func (s brokenAdmissionStorage) IsBlocked(context.Context, int64) (bool, error) {
	return false, errStoreDown
}

// stubContext satisfies the handful of tele.Context methods the pipeline
// touches. Everything else panics, which a test would surface immediately.
type stubContext struct {
	tele.Context
	user *tele.User
	chat *tele.Chat
	text string
	kv   map[string]any
}

func newStubContext(userID, chatID int64, text string) *stubContext {
	return &stubContext{
		user: &tele.User{ID: userID},
		chat: &tele.Chat{ID: chatID},
		text: text,
		kv:   make(map[string]any),
	}
}

func (s *stubContext) Sender() *tele.User  { return s.user }
func (s *stubContext) Chat() *tele.Chat    { return s.chat }
func (s *stubContext) Update() tele.Update { return tele.Update{} }
func (s *stubContext) Text() string        { return s.text }
func (s *stubContext) Delete() error       { return nil }
func (s *stubContext) Get(key string) any  { return s.kv[key] }
func (s *stubContext) Set(key string, v any) {
	s.kv[key] = v
}

func quietCtx() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func testHandler(st store.Store, limiter *ratelimit.Limiter, transport *recordingTransport) *Handler {
	cfg := &coreconfig.Config{}
	cfg.Telegram.AdminID = 1
	return &Handler{
		cfg:      cfg,
		store:    st,
		limiter:  limiter,
		sessions: session.NewManager(),
		screens:  screen.NewManager(transport),
	}
}

func TestServiceGateFailsClosed(t *testing.T) {
	transport := &recordingTransport{}
	h := testHandler(brokenFlagStore{store.NewMemory()}, nil, transport)

	c := newStubContext(42, 42, "")
	if h.requireService(quietCtx(), c) {
		t.Fatal("requireService admitted the event with an unreadable flag")
	}

	sent := transport.sentTexts()
	if len(sent) != 1 || sent[0] != textProcessingError {
		t.Errorf("sent = %q, want exactly the failure notice", sent)
	}
}

func TestServiceGateBlocksWhenDisabled(t *testing.T) {
	transport := &recordingTransport{}
	mem := store.NewMemory()
	if err := mem.SetServiceEnabled(context.Background(), false); err != nil {
		t.Fatalf("SetServiceEnabled: %v", err)
	}
	h := testHandler(mem, nil, transport)

	c := newStubContext(42, 42, "")
	if h.requireService(quietCtx(), c) {
		t.Fatal("requireService admitted the event while the bot is disabled")
	}

	sent := transport.sentTexts()
	if len(sent) != 1 || sent[0] != textServiceOff {
		t.Errorf("sent = %q, want the disabled notice", sent)
	}
}

func TestMessageAbortsOnAdmissionError(t *testing.T) {
	transport := &recordingTransport{}
	limiter := ratelimit.New(brokenAdmissionStorage{store.NewMemory()}, ratelimit.Policy{
		Cooldown:  3 * time.Second,
		Window:    time.Hour,
		Threshold: 500,
		BlockFor:  time.Hour,
	})
	h := testHandler(store.NewMemory(), limiter, transport)

	c := newStubContext(42, 42, "https://instagram.com/p/abc")
	if err := h.Message(c); err != nil {
		t.Fatalf("Message: %v", err)
	}

	sent := transport.sentTexts()
	if len(sent) != 1 || sent[0] != textProcessingError {
		t.Errorf("sent = %q, want only the failure notice", sent)
	}
}

func TestStartAbortsOnAdmissionError(t *testing.T) {
	transport := &recordingTransport{}
	limiter := ratelimit.New(brokenAdmissionStorage{store.NewMemory()}, ratelimit.Policy{
		Cooldown:  3 * time.Second,
		Window:    time.Hour,
		Threshold: 500,
		BlockFor:  time.Hour,
	})
	h := testHandler(store.NewMemory(), limiter, transport)

	c := newStubContext(42, 42, "/start")
	if err := h.Start(c); err != nil {
		t.Fatalf("Start: %v", err)
	}

	sent := transport.sentTexts()
	if len(sent) != 1 || sent[0] != textProcessingError {
		t.Errorf("sent = %q, want only the failure notice", sent)
	}
	u, err := h.store.GetUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u != nil {
		t.Error("user was registered although admission aborted")
	}
}
