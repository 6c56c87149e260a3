package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command registered with the bot.
// Aliases are extra texts, such as reply keyboard labels, that run the same handler.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Hidden      bool
	Aliases     []string
}
