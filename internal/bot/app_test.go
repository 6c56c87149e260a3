package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	coreconfig "github.com/m3rciful/wishbot/core/config"
	coredatabase "github.com/m3rciful/wishbot/core/database"
	"github.com/m3rciful/wishbot/internal/assistant"
	"github.com/m3rciful/wishbot/internal/config"

	tele "gopkg.in/telebot.v4"
)

// fakeContext records what handlers send. Methods it does not override panic.
type fakeContext struct {
	tele.Context
	user *tele.User
	text string
	cb   *tele.Callback

	mu    sync.Mutex
	store map[string]any
	sent  []any
	marks []*tele.ReplyMarkup
	resps []*tele.CallbackResponse
}

func (f *fakeContext) Sender() *tele.User       { return f.user }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.user.ID} }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Update() tele.Update      { return tele.Update{ID: 1} }

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resps = append(f.resps, resp...)
	return nil
}

func (f *fakeContext) Get(k string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[k]
}

func (f *fakeContext) Set(k string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.store == nil {
		f.store = map[string]any{}
	}
	f.store[k] = v
}

func (f *fakeContext) Send(what any, opts ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, what)
	var markup *tele.ReplyMarkup
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			markup = so.ReplyMarkup
		}
	}
	f.marks = append(f.marks, markup)
	return nil
}

func (f *fakeContext) lastText(t *testing.T) string {
	t.Helper()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if s, ok := f.sent[i].(string); ok {
			return s
		}
	}
	t.Fatal("nothing sent")
	return ""
}

type driver struct {
	t *testing.T
	h *Handler
}

func (d driver) text(userID int64, text string) *fakeContext {
	d.t.Helper()
	c := &fakeContext{user: &tele.User{ID: userID, Username: "friend"}, text: text}
	if err := d.h.OnText(c); err != nil {
		d.t.Fatalf("OnText(%q): %v", text, err)
	}
	return c
}

func (d driver) press(userID int64, key, payload string) *fakeContext {
	d.t.Helper()
	data := "\f" + key
	if payload != "" {
		data += "|" + payload
	}
	c := &fakeContext{user: &tele.User{ID: userID, Username: "friend"}, cb: &tele.Callback{Data: data}}
	if err := d.h.OnCallback(c); err != nil {
		d.t.Fatalf("OnCallback(%s): %v", key, err)
	}
	return c
}

func testApp(t *testing.T, redisAddr string) *App {
	t.Helper()
	cfg := &config.Config{
		Config:   coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "test"}},
		Database: coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: ":memory:"},
		Redis:    config.RedisConfig{Addr: redisAddr},
		Export:   config.ExportConfig{Dir: t.TempDir()},
	}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	app, err := newApp(context.Background(), cfg, func(*coreconfig.Config) error { return nil })
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestAppConversationOverRedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	app := testApp(t, mr.Addr())
	d := driver{t: t, h: app.handler}

	c := d.text(5, "/start")
	if !strings.Contains(c.lastText(t), "Welcome") || c.marks[0] == nil || len(c.marks[0].ReplyKeyboard) == 0 {
		t.Fatalf("start reply = %q, markup %+v", c.lastText(t), c.marks)
	}

	c = d.text(5, assistant.LabelAdd)
	if m := c.marks[len(c.marks)-1]; m == nil || len(m.InlineKeyboard) == 0 {
		t.Fatal("prompt without cancel button")
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("session keys = %v", mr.Keys())
	}
	d.text(5, "Board game")
	d.press(5, CallbackSkip, "")
	d.text(5, "https://example.com/game")
	c = d.press(5, CallbackSkip, "")
	if !strings.Contains(c.lastText(t), "Board game") {
		t.Fatalf("finish reply = %q", c.lastText(t))
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("session left behind: %v", mr.Keys())
	}

	c = d.text(5, "/share")
	if len(c.sent) != 2 {
		t.Fatalf("share sent %d messages", len(c.sent))
	}
	doc, ok := c.sent[1].(*tele.Document)
	if !ok || doc.FileName != "wishlist.html" || doc.MIME != "text/html" {
		t.Fatalf("document = %#v", c.sent[1])
	}
}

func TestAppCancelButtonAndMemorySessions(t *testing.T) {
	app := testApp(t, "")
	d := driver{t: t, h: app.handler}

	d.text(6, "/catalog")
	c := d.press(6, CallbackCancel, "")
	if !strings.Contains(c.lastText(t), "Cancelled") {
		t.Fatalf("cancel reply = %q", c.lastText(t))
	}
	c = d.press(6, CallbackCancel, "")
	if !strings.Contains(c.lastText(t), "nothing to cancel") {
		t.Fatalf("second cancel = %q", c.lastText(t))
	}
}

func TestAppRejectsUnreachableRedis(t *testing.T) {
	cfg := &config.Config{
		Config:   coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "test"}},
		Database: coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: ":memory:"},
		Redis:    config.RedisConfig{Addr: "127.0.0.1:1", SessionTTL: time.Minute},
		Export:   config.ExportConfig{Dir: t.TempDir()},
	}
	if err := cfg.Normalize(); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := newApp(ctx, cfg, func(*coreconfig.Config) error { return nil }); err == nil {
		t.Fatal("expected an error for an unreachable redis")
	}
}

func TestTelegramRunOptions(t *testing.T) {
	app := testApp(t, "")
	opts, err := app.TelegramRunOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Config == nil || opts.Registry == nil || opts.OnStart == nil || opts.OnStop == nil {
		t.Fatalf("options = %+v", opts)
	}
	endpoints := map[any]bool{}
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	for _, want := range []any{"/add", "/wishlist", tele.OnCallback, tele.OnText, tele.OnDocument} {
		if !endpoints[want] {
			t.Errorf("route %v missing", want)
		}
	}
	if len(opts.Middlewares) < 3 {
		t.Fatalf("middlewares = %d", len(opts.Middlewares))
	}
}
