package assistant

import (
	"testing"

	"github.com/m3rciful/wishbot/internal/conversation"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		text string
		kind conversation.Kind
		name string
		body string
	}{
		{LabelAdd, conversation.KindTrigger, FlowAddGift, ""},
		{"  " + LabelList + " ", conversation.KindAction, ActionList, ""},
		{"/add", conversation.KindTrigger, FlowAddGift, ""},
		{"/Delete@wish_bot", conversation.KindTrigger, FlowDeleteGift, ""},
		{"/wishlist  abc-123 ", conversation.KindAction, ActionOpenSnapshot, "abc-123"},
		{"/cancel", conversation.KindCancel, "", ""},
		{LabelCancel, conversation.KindCancel, "", ""},
		{"/skip", conversation.KindText, "", "/skip"},
		{"/unknown", conversation.KindAction, "", ""},
		{"Book", conversation.KindText, "", "Book"},
	}
	for _, tc := range cases {
		in := Classify(7, "bob", tc.text)
		if in.Kind != tc.kind || in.Name != tc.name || in.Text != tc.body {
			t.Errorf("Classify(%q) = %s/%q/%q, want %s/%q/%q", tc.text, in.Kind, in.Name, in.Text, tc.kind, tc.name, tc.body)
		}
		if in.UserID != 7 || in.Username != "bob" {
			t.Errorf("Classify(%q) lost the sender", tc.text)
		}
	}
}

func TestEveryMenuLabelIsRouted(t *testing.T) {
	a := New(Options{})
	for _, row := range MainMenu {
		for _, label := range row {
			in := Classify(1, "", label)
			switch in.Kind {
			case conversation.KindTrigger:
				if !a.router.HasFlow(in.Name) {
					t.Errorf("%q triggers unknown flow %q", label, in.Name)
				}
			case conversation.KindAction:
				if !a.router.HasAction(in.Name) {
					t.Errorf("%q runs unknown action %q", label, in.Name)
				}
			default:
				t.Errorf("%q classified as %s", label, in.Kind)
			}
		}
	}
}
