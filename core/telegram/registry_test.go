package telegram

import (
	"testing"

	"github.com/m3rciful/wishbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/add", commands.Command{Handler: noop, Description: "Add a gift", Aliases: []string{"➕ Add gift"}})
	reg.RegisterCommand("/skip", commands.Command{Handler: noop, Description: "Skip", Hidden: true})
	reg.RegisterCommand("list", commands.Command{Handler: noop, Description: "no slash"})
	reg.RegisterCommand("/other", commands.Command{Handler: noop, Description: "Steals alias", Aliases: []string{"➕ Add gift"}})

	cases := []struct{ text, want string }{
		{"/add", "/add"},
		{"/ADD@wish_bot", "/add"},
		{"/add something", "/add"},
		{" ➕ Add gift ", "/add"},
		{"/skip", "/skip"},
		{"add", ""},
		{"/list", ""},
		{"➕ Add gift please", ""},
	}
	for _, tc := range cases {
		name, _, ok := reg.LookupCommand(tc.text)
		if (tc.want != "") != ok || name != tc.want {
			t.Errorf("LookupCommand(%q) = %q, %v; want %q", tc.text, name, ok, tc.want)
		}
	}

	visible := reg.ListCommands(true)
	if len(visible) != 2 || visible[0].Text != "add" || visible[1].Text != "other" {
		t.Fatalf("visible commands = %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 3 {
		t.Fatalf("all commands = %+v", all)
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("pick", noop); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCallback("pick", noop); err == nil {
		t.Fatal("duplicate callback accepted")
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatal("empty key accepted")
	}
	if _, ok := reg.GetCallback("pick"); !ok {
		t.Fatal("pick not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "pick" {
		t.Fatalf("callbacks = %v", got)
	}
}
