package router

import (
	"errors"
	"fmt"
	"testing"

	tg "github.com/m3rciful/wishbot/core/telegram"
	"github.com/m3rciful/wishbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

type codedErr struct{}

func (codedErr) Error() string { return "bad input" }
func (codedErr) Code() string  { return "invalid input" }

func TestErrorCode(t *testing.T) {
	if got := errorCode(fmt.Errorf("wrap: %w", codedErr{})); got != "INVALID_INPUT" {
		t.Fatalf("errorCode = %q", got)
	}
	if got := errorCode(errors.New("x")); got != "INTERNAL" {
		t.Fatalf("errorCode = %q", got)
	}
}

func TestNormalizeHandlerName(t *testing.T) {
	for in, want := range map[string]string{"/Add": "add", "": "unknown", " open catalog ": "open_catalog"} {
		if got := normalizeHandlerName(in); got != want {
			t.Errorf("normalizeHandlerName(%q) = %q, want %q", in, got, want)
		}
	}
}

func textContext(t *testing.T, text string) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatal(err)
	}
	return b.NewContext(tele.Update{ID: 1, Message: &tele.Message{
		Text:   text,
		Sender: &tele.User{ID: 3},
		Chat:   &tele.Chat{ID: 3},
	}})
}

func TestTextRoutesPreferAliases(t *testing.T) {
	var got []string
	reg := tg.NewRegistry()
	reg.RegisterCommand("/list", commands.Command{
		Description: "List",
		Aliases:     []string{"📜 View gifts"},
		Handler:     func(tele.Context) error { got = append(got, "list"); return nil },
	})
	reg.SetTextFallback(func(c tele.Context) error { got = append(got, "fallback:"+c.Text()); return nil })

	routes := TextRoutes(reg, TextOptions{})
	if routes[0].Endpoint != tele.OnText {
		t.Fatalf("first route = %v", routes[0].Endpoint)
	}
	h := routes[0].Handler
	_ = h(textContext(t, "📜 View gifts"))
	_ = h(textContext(t, "Book"))

	if len(got) != 2 || got[0] != "list" || got[1] != "fallback:Book" {
		t.Fatalf("calls = %v", got)
	}
}

func TestCommandRoutesCoverRegistry(t *testing.T) {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/add", commands.Command{Description: "Add", Handler: func(tele.Context) error { return nil }})
	reg.RegisterCommand("/help", commands.Command{Description: "Help", Handler: func(tele.Context) error { return errors.New("boom") }})

	routes := CommandRoutes(reg)
	if len(routes) != 2 {
		t.Fatalf("routes = %d", len(routes))
	}
	for _, r := range routes {
		err := r.Handler(textContext(t, r.Endpoint.(string)))
		if (r.Endpoint == "/help") != (err != nil) {
			t.Errorf("%v: err = %v", r.Endpoint, err)
		}
	}
}
