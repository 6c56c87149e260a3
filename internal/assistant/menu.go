package assistant

import (
	"strings"

	"github.com/m3rciful/wishbot/internal/conversation"
)

// Flow names.
const (
	FlowAddGift       = "add_gift"
	FlowEditGift      = "edit_gift"
	FlowDeleteGift    = "delete_gift"
	FlowCreateCatalog = "create_catalog"
	FlowOpenCatalog   = "open_catalog"
)

// Action names.
const (
	ActionStart        = "start"
	ActionHelp         = "help"
	ActionList         = "list"
	ActionCatalogs     = "catalogs"
	ActionShare        = "share"
	ActionShareLink    = "share_link"
	ActionOpenSnapshot = "open_snapshot"
)

// Main menu labels.
const (
	LabelList          = "📜 View gifts"
	LabelAdd           = "➕ Add gift"
	LabelDelete        = "🗑 Delete gift"
	LabelEdit          = "✏️ Edit gift"
	LabelCreateCatalog = "📁 Create catalog"
	LabelOpenCatalog   = "🎁 Open catalog"
	LabelShare         = "📤 Share wishlist"
	LabelShareLink     = "🔗 Share link"
	LabelCancel        = "✖️ Cancel"
	LabelSkip          = "Skip"
)

// MainMenu is the reply keyboard layout, row by row.
var MainMenu = [][]string{
	{LabelList, LabelAdd},
	{LabelDelete, LabelEdit},
	{LabelCreateCatalog, LabelOpenCatalog},
	{LabelShare, LabelShareLink},
}

// Command is one slash command together with what it triggers.
type Command struct {
	Name        string
	Description string
	Kind        conversation.Kind
	Target      string
	Label       string
	Hidden      bool
}

// Commands lists every slash command in menu order.
var Commands = []Command{
	{Name: "start", Description: "Start the bot and show the menu", Kind: conversation.KindAction, Target: ActionStart},
	{Name: "help", Description: "What the bot can do", Kind: conversation.KindAction, Target: ActionHelp},
	{Name: "list", Description: "Show your gifts", Kind: conversation.KindAction, Target: ActionList, Label: LabelList},
	{Name: "add", Description: "Add a gift", Kind: conversation.KindTrigger, Target: FlowAddGift, Label: LabelAdd},
	{Name: "edit", Description: "Edit a gift", Kind: conversation.KindTrigger, Target: FlowEditGift, Label: LabelEdit},
	{Name: "delete", Description: "Delete a gift", Kind: conversation.KindTrigger, Target: FlowDeleteGift, Label: LabelDelete},
	{Name: "catalog", Description: "Create a catalog", Kind: conversation.KindTrigger, Target: FlowCreateCatalog, Label: LabelCreateCatalog},
	{Name: "open", Description: "Open a catalog", Kind: conversation.KindTrigger, Target: FlowOpenCatalog, Label: LabelOpenCatalog},
	{Name: "catalogs", Description: "List your catalogs", Kind: conversation.KindAction, Target: ActionCatalogs},
	{Name: "share", Description: "Export your wishlist as a page", Kind: conversation.KindAction, Target: ActionShare, Label: LabelShare},
	{Name: "link", Description: "Get a share code for your wishlist", Kind: conversation.KindAction, Target: ActionShareLink, Label: LabelShareLink},
	{Name: "wishlist", Description: "Open a shared wishlist by code", Kind: conversation.KindAction, Target: ActionOpenSnapshot},
	{Name: "cancel", Description: "Cancel the current dialog", Kind: conversation.KindCancel, Label: LabelCancel},
	{Name: "skip", Description: "Skip an optional answer", Kind: conversation.KindText, Hidden: true},
}

var (
	byCommand = map[string]Command{}
	byLabel   = map[string]Command{}
)

func init() {
	for _, c := range Commands {
		byCommand[c.Name] = c
		if c.Label != "" {
			byLabel[c.Label] = c
		}
	}
}

// Classify turns raw text into an input for the router.
// Commands keep their payload in Text; "/skip" stays text so optional steps see it.
func Classify(userID int64, username, text string) conversation.Input {
	in := conversation.Input{UserID: userID, Username: username, Kind: conversation.KindText, Text: text}
	trimmed := strings.TrimSpace(text)

	if c, ok := byLabel[trimmed]; ok {
		in.Kind, in.Name, in.Text = c.Kind, c.Target, ""
		return in
	}
	if !strings.HasPrefix(trimmed, "/") {
		return in
	}

	name, payload, _ := strings.Cut(trimmed[1:], " ")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	c, ok := byCommand[strings.ToLower(name)]
	if !ok {
		// unknown commands never reach a step as an answer
		in.Kind, in.Name, in.Text = conversation.KindAction, "", ""
		return in
	}
	if c.Kind == conversation.KindText {
		in.Text = "/" + c.Name
		return in
	}
	in.Kind, in.Name, in.Text = c.Kind, c.Target, strings.TrimSpace(payload)
	return in
}
