package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/m3rciful/wishbot/internal/conversation"
	"github.com/m3rciful/wishbot/internal/export"
	"github.com/m3rciful/wishbot/internal/wishlist"
)

const (
	emptyWishlist  = "Your wishlist is empty. Add a gift first."
	nothingToShare = "Your wishlist is empty, there is nothing to export yet."
)

// start registers the user. A share code in the payload (t.me/<bot>?start=<code>) opens that wishlist.
func (a *Assistant) start(ctx context.Context, in conversation.Input) (conversation.Reply, error) {
	if err := a.store.UpsertUser(ctx, in.UserID, in.Username); err != nil {
		return conversation.Reply{}, err
	}
	if code := strings.TrimSpace(in.Text); code != "" {
		if _, err := uuid.Parse(code); err == nil {
			return a.openSnapshot(ctx, in)
		}
	}
	name := in.Username
	if name == "" {
		name = "friend"
	}
	return conversation.Reply{
		Text: fmt.Sprintf("Hi, %s! 🎉 Welcome to wish_u_all_the_best. Build your wishlist here and share it with friends. 😊", name),
		Menu: true,
	}, nil
}

func (a *Assistant) help(context.Context, conversation.Input) (conversation.Reply, error) {
	var b strings.Builder
	b.WriteString("Here is what I can do:\n\n")
	for _, c := range Commands {
		if c.Hidden {
			continue
		}
		fmt.Fprintf(&b, "/%s - %s\n", c.Name, c.Description)
	}
	b.WriteString("\nDuring a dialog, send /cancel to stop or /skip to leave an optional answer empty.")
	return conversation.Reply{Text: b.String(), Menu: true}, nil
}

func (a *Assistant) list(ctx context.Context, in conversation.Input) (conversation.Reply, error) {
	gifts, err := a.store.ListGifts(ctx, wishlist.GiftFilter{UserID: in.UserID, Limit: wishlist.DisplayLimit + 1})
	if err != nil {
		return conversation.Reply{}, err
	}
	if len(gifts) == 0 {
		return conversation.Reply{Text: "Your wishlist is empty."}, nil
	}
	return conversation.Reply{Text: formatGifts("🎁 Your wishlist:", gifts)}, nil
}

func (a *Assistant) catalogs(ctx context.Context, in conversation.Input) (conversation.Reply, error) {
	cats, err := a.store.ListCatalogs(ctx, in.UserID)
	if err != nil {
		return conversation.Reply{}, err
	}
	return conversation.Reply{Text: formatCatalogs(cats)}, nil
}

func (a *Assistant) exportItems(ctx context.Context, userID int64) ([]export.Item, error) {
	gifts, err := a.store.ListGifts(ctx, wishlist.GiftFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	return export.ItemsFromGifts(gifts), nil
}

func (a *Assistant) share(ctx context.Context, in conversation.Input) (conversation.Reply, error) {
	items, err := a.exportItems(ctx, in.UserID)
	if err != nil {
		return conversation.Reply{}, err
	}
	title := "Wishlist"
	if in.Username != "" {
		title = "Wishlist of " + in.Username
	}
	doc, err := a.renderer.Document(ctx, title, items)
	if errors.Is(err, export.ErrNothingToExport) {
		return conversation.Reply{Text: nothingToShare}, nil
	}
	if err != nil {
		return conversation.Reply{}, err
	}
	return conversation.Reply{
		Text: fmt.Sprintf("Your wishlist is ready: %d gifts.", len(items)),
		Document: &conversation.Document{
			Name:    "wishlist.html",
			MIME:    "text/html",
			Data:    doc,
			Caption: "Open it in a browser or forward it to friends.",
		},
	}, nil
}

func (a *Assistant) shareLink(ctx context.Context, in conversation.Input) (conversation.Reply, error) {
	if a.snapshots == nil {
		return conversation.Reply{}, errors.New("share link: no snapshot store configured")
	}
	items, err := a.exportItems(ctx, in.UserID)
	if err != nil {
		return conversation.Reply{}, err
	}
	token, err := a.snapshots.Save(ctx, items)
	if errors.Is(err, export.ErrNothingToExport) {
		return conversation.Reply{Text: nothingToShare}, nil
	}
	if err != nil {
		return conversation.Reply{}, err
	}

	var b strings.Builder
	if a.botUsername != "" {
		fmt.Fprintf(&b, "Send this link to your friends:\nhttps://t.me/%s?start=%s\n\n", a.botUsername, token)
	}
	fmt.Fprintf(&b, "Share code: %s\nAnyone can open it by sending /wishlist %s to this bot.", token, token)
	return conversation.Reply{Text: b.String()}, nil
}

func (a *Assistant) openSnapshot(ctx context.Context, in conversation.Input) (conversation.Reply, error) {
	if a.snapshots == nil {
		return conversation.Reply{}, errors.New("open snapshot: no snapshot store configured")
	}
	code := strings.TrimSpace(in.Text)
	if code == "" {
		return conversation.Reply{}, conversation.Invalid("Send the code after the command, for example /wishlist 123e4567-e89b-12d3-a456-426614174000.")
	}
	items, err := a.snapshots.Load(ctx, code)
	if errors.Is(err, export.ErrSnapshotNotFound) {
		return conversation.Reply{}, conversation.NotFound("There is no shared wishlist with that code.")
	}
	if err != nil {
		return conversation.Reply{}, err
	}
	return conversation.Reply{Text: formatItems("🎁 Shared wishlist:", items)}, nil
}
