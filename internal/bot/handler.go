// Package bot connects the wishlist assistant to Telegram.
package bot

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/wishbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/wishbot/core/telegram/helpers"
	"github.com/m3rciful/wishbot/core/telegram/keyboard"
	"github.com/m3rciful/wishbot/internal/assistant"
	"github.com/m3rciful/wishbot/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

// Callback keys of the inline buttons the bot renders.
const (
	CallbackPick   = "pick"
	CallbackSkip   = "skip"
	CallbackCancel = "cancel"
)

// maxMessageRunes is the Bot API limit for one text message.
const maxMessageRunes = 4096

const (
	mediaReply  = "I can only read text. Pick an action from the menu or send /help."
	staleButton = "This button is no longer active."
)

// Conversation answers classified inputs.
type Conversation interface {
	Handle(ctx context.Context, in conversation.Input) (conversation.Reply, error)
}

// Handler turns telebot updates into conversation inputs and renders the replies.
type Handler struct {
	conv Conversation
}

// NewHandler wraps conv.
func NewHandler(conv Conversation) *Handler {
	return &Handler{conv: conv}
}

// OnText handles commands, menu labels and free text alike.
func (h *Handler) OnText(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	return h.respond(c, assistant.Classify(u.ID, u.Username, c.Text()))
}

// OnCallback handles the pick, skip and cancel buttons.
func (h *Handler) OnCallback(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	in, ok := callbackInput(callbacks.CallbackKey(c), callbacks.CallbackPayload(c))
	if !ok {
		return nil
	}
	in.UserID, in.Username = u.ID, u.Username
	return h.respond(c, in)
}

// OnStaleCallback answers buttons whose key is no longer registered, e.g. ones sent by an older build.
func (h *Handler) OnStaleCallback(c tele.Context) error {
	err := c.Respond(&tele.CallbackResponse{Text: staleButton})
	return errors.Join(err, send(c, conversation.Reply{Text: staleButton + " Pick an action from the menu.", Menu: true}))
}

// OnMedia answers messages the bot cannot read.
func (h *Handler) OnMedia(c tele.Context) error {
	return send(c, conversation.Reply{Text: mediaReply, Menu: true})
}

// OnLimited tells a user pressing buttons too fast to slow down. Messages are dropped silently.
func (h *Handler) OnLimited(c tele.Context) error {
	if c.Callback() == nil {
		return nil
	}
	return c.Respond(&tele.CallbackResponse{Text: "Too fast, try again in a moment."})
}

func callbackInput(key, payload string) (conversation.Input, bool) {
	switch key {
	case CallbackPick:
		return conversation.Input{Kind: conversation.KindText, Text: payload}, true
	case CallbackSkip:
		return conversation.Input{Kind: conversation.KindText, Text: "/skip"}, true
	case CallbackCancel:
		return conversation.Input{Kind: conversation.KindCancel}, true
	}
	return conversation.Input{}, false
}

func (h *Handler) respond(c tele.Context, in conversation.Input) error {
	rep, err := h.conv.Handle(tghelpers.BuildContext(c), in)
	return errors.Join(err, send(c, rep))
}

func send(c tele.Context, rep conversation.Reply) error {
	chunks, markup, file := render(rep)
	for i, chunk := range chunks {
		var m *tele.ReplyMarkup
		if i == len(chunks)-1 {
			m = markup
		}
		if err := tghelpers.SendText(c, chunk, m); err != nil {
			return err
		}
	}
	if file != nil {
		return tghelpers.SendDocument(c, *file, nil)
	}
	return nil
}

// render splits the text into sendable chunks and builds the keyboard for the last one.
func render(rep conversation.Reply) ([]string, *tele.ReplyMarkup, *tghelpers.File) {
	var file *tghelpers.File
	if d := rep.Document; d != nil {
		file = &tghelpers.File{Name: d.Name, MIME: d.MIME, Caption: d.Caption, Data: d.Data}
	}
	return splitMessage(rep.Text, maxMessageRunes), markupFor(rep), file
}

func markupFor(rep conversation.Reply) *tele.ReplyMarkup {
	var rows [][]keyboard.InlineBtn
	if len(rep.Options) > 0 {
		btns := make([]keyboard.InlineBtn, 0, len(rep.Options))
		perRow := 2
		for _, o := range rep.Options {
			btns = append(btns, keyboard.InlineBtn{Text: o.Label, Unique: CallbackPick, Data: o.Value})
			if utf8.RuneCountInString(o.Label) > 20 {
				perRow = 1
			}
		}
		rows = keyboard.Chunk(btns, perRow)
	}

	var controls []keyboard.InlineBtn
	if rep.Skip {
		controls = append(controls, keyboard.InlineBtn{Text: assistant.LabelSkip, Unique: CallbackSkip})
	}
	if rep.Cancelable {
		controls = append(controls, keyboard.InlineBtn{Text: assistant.LabelCancel, Unique: CallbackCancel})
	}
	if len(controls) > 0 {
		rows = append(rows, controls)
	}

	switch {
	case len(rows) > 0:
		return keyboard.InlineButtonsRows(rows...)
	case rep.Menu:
		return keyboard.ReplyButtons(assistant.MainMenu...)
	}
	return nil
}

// splitMessage cuts text into pieces of at most limit runes, preferring line breaks.
func splitMessage(text string, limit int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for utf8.RuneCountInString(text) > limit {
		cut := runeOffset(text, limit)
		if nl := strings.LastIndexByte(text[:cut], '\n'); nl > 0 {
			cut = nl
		}
		out = append(out, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// runeOffset returns the byte offset of the n-th rune of s.
func runeOffset(s string, n int) int {
	i := 0
	for off := range s {
		if i == n {
			return off
		}
		i++
	}
	return len(s)
}
