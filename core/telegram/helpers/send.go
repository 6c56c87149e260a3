package helpers

import (
	"bytes"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/wishbot/core/logger"
	"github.com/m3rciful/wishbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
// With no dispatcher the helpers send inline.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// Deliver runs one outbound call through the dispatcher, or inline when
// there is none or its queue refuses the job.
func Deliver(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, logger.CompTGSender, "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendText sends plain text with optional markup to the current chat.
func SendText(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return Deliver(c, "send.text", "sendMessage", func() error {
		return c.Send(text, sendOptions(markup))
	})
}

// File is an in-memory upload.
type File struct {
	Name    string
	MIME    string
	Caption string
	Data    []byte
}

// SendDocument uploads f to the current chat. Each attempt reads the data from the start.
func SendDocument(c tele.Context, f File, markup *tele.ReplyMarkup) error {
	return Deliver(c, "send.document", "sendDocument", func() error {
		doc := &tele.Document{
			File:     tele.FromReader(bytes.NewReader(f.Data)),
			FileName: f.Name,
			MIME:     f.MIME,
			Caption:  f.Caption,
		}
		return c.Send(doc, sendOptions(markup))
	})
}

func sendOptions(markup *tele.ReplyMarkup) *tele.SendOptions {
	return &tele.SendOptions{ReplyMarkup: markup, DisableWebPagePreview: true}
}
