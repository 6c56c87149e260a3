package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/wishbot/internal/conversation"
	"github.com/m3rciful/wishbot/internal/wishlist"
)

type (
	promptFunc   = func(ctx context.Context, in conversation.Input, data map[string]string) (conversation.Reply, error)
	validateFunc = func(ctx context.Context, in conversation.Input, value string, data map[string]string) (string, error)
)

func say(text string) promptFunc {
	return func(context.Context, conversation.Input, map[string]string) (conversation.Reply, error) {
		return conversation.Reply{Text: text}, nil
	}
}

func ptrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (a *Assistant) addGiftFlow() conversation.Flow {
	return conversation.Flow{
		Name: FlowAddGift,
		Steps: []conversation.Step{
			{
				Key:    "title",
				Prompt: say(fmt.Sprintf("Send the gift name (%d to %d characters).", wishlist.TitleMinLen, wishlist.TitleMaxLen)),
				Validate: func(_ context.Context, _ conversation.Input, v string, _ map[string]string) (string, error) {
					t, err := wishlist.ValidateTitle(v)
					return t, inputErr(err, "")
				},
			},
			{
				Key:      "description",
				Optional: true,
				Prompt:   say("Send a short description, or skip."),
				Validate: func(_ context.Context, _ conversation.Input, v string, _ map[string]string) (string, error) {
					d, err := wishlist.ValidateDescription(v)
					if err != nil {
						return "", inputErr(err, "")
					}
					return deref(d), nil
				},
			},
			{
				Key:      "link",
				Optional: true,
				Prompt:   say("Send a link to the gift, or skip."),
				Validate: func(_ context.Context, _ conversation.Input, v string, _ map[string]string) (string, error) {
					l, err := wishlist.ValidateLink(v)
					if err != nil {
						return "", inputErr(err, "")
					}
					return deref(l), nil
				},
			},
			{
				Key:      "catalog",
				Optional: true,
				Prompt:   a.promptCatalogName,
				Validate: func(_ context.Context, _ conversation.Input, v string, _ map[string]string) (string, error) {
					name, err := wishlist.ValidateCatalogName(v)
					if err != nil {
						return "", inputErr(err, "")
					}
					if strings.EqualFold(name, wishlist.DefaultCatalogName) {
						return "", nil
					}
					return name, nil
				},
			},
		},
		Finish: a.finishAddGift,
	}
}

func (a *Assistant) promptCatalogName(ctx context.Context, in conversation.Input, _ map[string]string) (conversation.Reply, error) {
	cats, err := a.store.ListCatalogs(ctx, in.UserID)
	if err != nil {
		return conversation.Reply{}, err
	}
	rep := conversation.Reply{Text: fmt.Sprintf("Which catalog should it go to? Pick one, send a new name to create it, or skip to use %q.", wishlist.DefaultCatalogName)}
	for _, c := range cats {
		rep.Options = append(rep.Options, conversation.Option{Label: c.Name, Value: c.Name})
	}
	return rep, nil
}

func (a *Assistant) finishAddGift(ctx context.Context, in conversation.Input, data map[string]string) (conversation.Reply, error) {
	catalogName := wishlist.DefaultCatalogName
	if name := data["catalog"]; name != "" {
		catalogName = name
	}
	id, err := a.store.AddGift(ctx, wishlist.NewGift{
		UserID:      in.UserID,
		Username:    in.Username,
		CatalogID:   wishlist.DefaultCatalogID,
		CatalogName: data["catalog"],
		Title:       data["title"],
		Description: ptrOrNil(data["description"]),
		Link:        ptrOrNil(data["link"]),
	})
	if err != nil {
		return conversation.Reply{}, inputErr(err, "That catalog is not available any more. Pick another one.")
	}
	return conversation.Reply{Text: fmt.Sprintf("Gift #%d %q added to %q.", id, data["title"], catalogName)}, nil
}

// gift picking is shared by edit and delete

func (a *Assistant) requireGifts(ctx context.Context, in conversation.Input) (*conversation.Reply, error) {
	gifts, err := a.store.ListGifts(ctx, wishlist.GiftFilter{UserID: in.UserID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(gifts) == 0 {
		return &conversation.Reply{Text: emptyWishlist}, nil
	}
	return nil, nil
}

func (a *Assistant) pickGift(verb string) promptFunc {
	return func(ctx context.Context, in conversation.Input, _ map[string]string) (conversation.Reply, error) {
		gifts, err := a.store.ListGifts(ctx, wishlist.GiftFilter{UserID: in.UserID, Limit: wishlist.DisplayLimit})
		if err != nil {
			return conversation.Reply{}, err
		}
		rep := conversation.Reply{Text: fmt.Sprintf("Which gift do you want to %s? Pick one or send its number.", verb)}
		for _, g := range gifts {
			rep.Options = append(rep.Options, conversation.Option{
				Label: fmt.Sprintf("#%d %s", g.ID, g.Title),
				Value: strconv.FormatInt(g.ID, 10),
			})
		}
		return rep, nil
	}
}

func (a *Assistant) validateGiftID(ctx context.Context, in conversation.Input, v string, _ map[string]string) (string, error) {
	id, err := wishlist.ParseGiftID(v)
	if err != nil {
		return "", inputErr(err, "")
	}
	if _, err := a.store.GetGift(ctx, in.UserID, id); err != nil {
		return "", inputErr(err, fmt.Sprintf("There is no gift #%d in your wishlist.", id))
	}
	return strconv.FormatInt(id, 10), nil
}

func (a *Assistant) editGiftFlow() conversation.Flow {
	return conversation.Flow{
		Name:  FlowEditGift,
		Enter: a.requireGifts,
		Steps: []conversation.Step{
			{Key: "gift_id", Prompt: a.pickGift("edit"), Validate: a.validateGiftID},
			{
				Key: "field",
				Prompt: func(context.Context, conversation.Input, map[string]string) (conversation.Reply, error) {
					rep := conversation.Reply{Text: "What do you want to change?"}
					for _, f := range wishlist.EditableFields {
						rep.Options = append(rep.Options, conversation.Option{Label: fieldLabel(f), Value: string(f)})
					}
					return rep, nil
				},
				Validate: func(_ context.Context, _ conversation.Input, v string, _ map[string]string) (string, error) {
					f, err := wishlist.ParseField(v)
					if err != nil {
						return "", conversation.Invalid("Pick one of: title, description, link.")
					}
					return string(f), nil
				},
			},
			{
				Key: "value",
				// title is the only field that cannot be cleared
				OptionalIf: func(data map[string]string) bool { return wishlist.Field(data["field"]) != wishlist.FieldTitle },
				Prompt:     a.promptFieldValue,
				Validate:   validateFieldValue,
			},
		},
		Finish: a.finishEditGift,
	}
}

func fieldLabel(f wishlist.Field) string {
	s := string(f)
	return strings.ToUpper(s[:1]) + s[1:]
}

func (a *Assistant) promptFieldValue(ctx context.Context, in conversation.Input, data map[string]string) (conversation.Reply, error) {
	id, _ := strconv.ParseInt(data["gift_id"], 10, 64)
	g, err := a.store.GetGift(ctx, in.UserID, id)
	if wishlist.IsNotFound(err) {
		return conversation.Reply{}, conversation.Gone(giftGone(id))
	}
	if err != nil {
		return conversation.Reply{}, err
	}
	field := wishlist.Field(data["field"])
	var current string
	switch field {
	case wishlist.FieldTitle:
		current = g.Title
	case wishlist.FieldDescription:
		current = g.DescriptionOr(noDescription)
	case wishlist.FieldLink:
		current = g.LinkOr(noLink)
	}
	if field == wishlist.FieldTitle {
		return conversation.Reply{Text: fmt.Sprintf("Current title: %s\nSend the new title.", current)}, nil
	}
	return conversation.Reply{
		Text: fmt.Sprintf("Current %s: %s\nSend the new %s, or skip to clear it.", field, current, field),
	}, nil
}

func validateFieldValue(_ context.Context, _ conversation.Input, v string, data map[string]string) (string, error) {
	out, err := wishlist.ValidateFieldValue(wishlist.Field(data["field"]), v)
	if err != nil {
		return "", inputErr(err, "")
	}
	return deref(out), nil
}

func (a *Assistant) finishEditGift(ctx context.Context, in conversation.Input, data map[string]string) (conversation.Reply, error) {
	id, err := strconv.ParseInt(data["gift_id"], 10, 64)
	if err != nil {
		return conversation.Reply{}, fmt.Errorf("edit gift: bad id in session: %w", err)
	}
	field := wishlist.Field(data["field"])
	err = a.store.UpdateGiftField(ctx, in.UserID, id, field, ptrOrNil(data["value"]))
	if wishlist.IsNotFound(err) {
		return conversation.Reply{}, conversation.Gone(giftGone(id))
	}
	if err != nil {
		return conversation.Reply{}, inputErr(err, "")
	}
	return conversation.Reply{Text: fmt.Sprintf("Gift #%d updated: %s changed.", id, field)}, nil
}

func giftGone(id int64) string {
	return fmt.Sprintf("Gift #%d no longer exists. Nothing was changed.", id)
}

func (a *Assistant) deleteGiftFlow() conversation.Flow {
	return conversation.Flow{
		Name:  FlowDeleteGift,
		Enter: a.requireGifts,
		Steps: []conversation.Step{
			{Key: "gift_id", Prompt: a.pickGift("delete"), Validate: a.validateGiftID},
		},
		Finish: func(ctx context.Context, in conversation.Input, data map[string]string) (conversation.Reply, error) {
			id, err := strconv.ParseInt(data["gift_id"], 10, 64)
			if err != nil {
				return conversation.Reply{}, fmt.Errorf("delete gift: bad id in session: %w", err)
			}
			if err := a.store.DeleteGift(ctx, id, in.UserID); err != nil {
				return conversation.Reply{}, inputErr(err, fmt.Sprintf("There is no gift #%d in your wishlist.", id))
			}
			return conversation.Reply{Text: fmt.Sprintf("Gift #%d deleted.", id)}, nil
		},
	}
}

func (a *Assistant) createCatalogFlow() conversation.Flow {
	return conversation.Flow{
		Name: FlowCreateCatalog,
		Steps: []conversation.Step{
			{
				Key:    "name",
				Prompt: say(fmt.Sprintf("Send the catalog name (up to %d characters), e.g. Birthday.", wishlist.CatalogNameMaxLen)),
				Validate: func(_ context.Context, _ conversation.Input, v string, _ map[string]string) (string, error) {
					name, err := wishlist.ValidateCatalogName(v)
					if err != nil {
						return "", inputErr(err, "")
					}
					if strings.EqualFold(name, wishlist.DefaultCatalogName) {
						return "", conversation.Invalid(fmt.Sprintf("%q already exists for everyone. Pick another name.", wishlist.DefaultCatalogName))
					}
					return name, nil
				},
			},
			{
				Key:      "event_date",
				Optional: true,
				Prompt:   say("When is the celebration? Send a date as YYYY-MM-DD, or skip."),
				Validate: func(_ context.Context, _ conversation.Input, v string, _ map[string]string) (string, error) {
					d, err := wishlist.ParseEventDate(v)
					if err != nil {
						return "", inputErr(err, "")
					}
					if d == nil {
						return "", nil
					}
					return d.Format("2006-01-02"), nil
				},
			},
		},
		Finish: func(ctx context.Context, in conversation.Input, data map[string]string) (conversation.Reply, error) {
			if err := a.store.UpsertUser(ctx, in.UserID, in.Username); err != nil {
				return conversation.Reply{}, err
			}
			date, err := wishlist.ParseEventDate(data["event_date"])
			if err != nil {
				return conversation.Reply{}, inputErr(err, "")
			}
			id, err := a.store.CreateCatalog(ctx, &in.UserID, data["name"], date)
			if err != nil {
				return conversation.Reply{}, err
			}
			return conversation.Reply{Text: fmt.Sprintf("Catalog %q is ready (#%d). Pick it when adding a gift.", data["name"], id)}, nil
		},
	}
}

func (a *Assistant) openCatalogFlow() conversation.Flow {
	return conversation.Flow{
		Name: FlowOpenCatalog,
		Steps: []conversation.Step{
			{
				Key: "catalog_id",
				Prompt: func(ctx context.Context, in conversation.Input, _ map[string]string) (conversation.Reply, error) {
					cats, err := a.store.ListCatalogs(ctx, in.UserID)
					if err != nil {
						return conversation.Reply{}, err
					}
					rep := conversation.Reply{Text: "Which catalog do you want to open?"}
					for _, c := range cats {
						rep.Options = append(rep.Options, conversation.Option{Label: catalogLabel(c), Value: strconv.FormatInt(c.ID, 10)})
					}
					return rep, nil
				},
				Validate: a.validateCatalog,
			},
		},
		Finish: func(ctx context.Context, in conversation.Input, data map[string]string) (conversation.Reply, error) {
			id, err := strconv.ParseInt(data["catalog_id"], 10, 64)
			if err != nil {
				return conversation.Reply{}, fmt.Errorf("open catalog: bad id in session: %w", err)
			}
			gifts, err := a.store.ListGifts(ctx, wishlist.GiftFilter{UserID: in.UserID, CatalogID: &id, Limit: wishlist.DisplayLimit + 1})
			if err != nil {
				return conversation.Reply{}, err
			}
			if len(gifts) == 0 {
				return conversation.Reply{Text: "This catalog has no gifts yet."}, nil
			}
			return conversation.Reply{Text: formatGifts(fmt.Sprintf("📂 %s:", gifts[0].CatalogName), gifts)}, nil
		},
	}
}

// validateCatalog accepts a catalog id or name among the user's visible catalogs.
func (a *Assistant) validateCatalog(ctx context.Context, in conversation.Input, v string, _ map[string]string) (string, error) {
	cats, err := a.store.ListCatalogs(ctx, in.UserID)
	if err != nil {
		return "", err
	}
	v = strings.TrimPrefix(strings.TrimSpace(v), "#")
	for _, c := range cats {
		if strconv.FormatInt(c.ID, 10) == v || strings.EqualFold(c.Name, v) {
			return strconv.FormatInt(c.ID, 10), nil
		}
	}
	return "", conversation.NotFound("There is no such catalog. Pick one from the list.")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
