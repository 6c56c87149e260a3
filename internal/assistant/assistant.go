// Package assistant is the wishlist dialog: the flows that collect gifts and catalogs,
// the stateless actions around them, and the mapping from menu text to router inputs.
package assistant

import (
	"context"
	"errors"

	"github.com/m3rciful/wishbot/core/telegram/state"
	"github.com/m3rciful/wishbot/internal/conversation"
	"github.com/m3rciful/wishbot/internal/export"
	"github.com/m3rciful/wishbot/internal/wishlist"
)

// Options wires an Assistant.
type Options struct {
	Store     wishlist.Store
	Sessions  state.Store
	Snapshots export.SnapshotStore
	Renderer  *export.Renderer
	// BotUsername turns share codes into t.me deep links when set.
	BotUsername string
}

// Assistant answers classified inputs.
type Assistant struct {
	store       wishlist.Store
	snapshots   export.SnapshotStore
	renderer    *export.Renderer
	router      *conversation.Router
	botUsername string
}

// New registers every flow and action on a fresh router.
func New(opts Options) *Assistant {
	sessions := opts.Sessions
	if sessions == nil {
		sessions = state.NewMemoryStore()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = export.NewRenderer()
	}
	a := &Assistant{
		store:       opts.Store,
		snapshots:   opts.Snapshots,
		renderer:    renderer,
		botUsername: opts.BotUsername,
		router:      conversation.NewRouter(sessions, conversation.Messages{SkipLabel: LabelSkip}),
	}

	for _, f := range []conversation.Flow{
		a.addGiftFlow(),
		a.editGiftFlow(),
		a.deleteGiftFlow(),
		a.createCatalogFlow(),
		a.openCatalogFlow(),
	} {
		a.router.RegisterFlow(f)
	}
	a.router.RegisterAction(ActionStart, a.start)
	a.router.RegisterAction(ActionHelp, a.help)
	a.router.RegisterAction(ActionList, a.list)
	a.router.RegisterAction(ActionCatalogs, a.catalogs)
	a.router.RegisterAction(ActionShare, a.share)
	a.router.RegisterAction(ActionShareLink, a.shareLink)
	a.router.RegisterAction(ActionOpenSnapshot, a.openSnapshot)
	return a
}

// SetBotUsername sets the name used in share links once the transport knows it.
func (a *Assistant) SetBotUsername(name string) {
	a.botUsername = name
}

// Handle runs one input through the state machine.
func (a *Assistant) Handle(ctx context.Context, in conversation.Input) (conversation.Reply, error) {
	return a.router.Handle(ctx, in)
}

// HandleText classifies raw text and handles it.
func (a *Assistant) HandleText(ctx context.Context, userID int64, username, text string) (conversation.Reply, error) {
	return a.router.Handle(ctx, Classify(userID, username, text))
}

// Phase reports whether the user is in the middle of a flow.
func (a *Assistant) Phase(ctx context.Context, userID int64) (conversation.Phase, error) {
	return a.router.Phase(ctx, userID)
}

// inputErr converts domain errors into answers the router shows to the user.
// Everything else stays a failure.
func inputErr(err error, notFound string) error {
	var ve *wishlist.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ve):
		return conversation.Invalid(ve.Reason)
	case wishlist.IsNotFound(err):
		return conversation.NotFound(notFound)
	}
	return err
}
