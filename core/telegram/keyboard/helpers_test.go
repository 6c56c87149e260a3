package keyboard

import "testing"

func TestReplyButtons(t *testing.T) {
	m := ReplyButtons([]string{"a", "b"}, []string{"c"})
	if !m.ResizeKeyboard || len(m.ReplyKeyboard) != 2 {
		t.Fatalf("markup = %+v", m)
	}
	if m.ReplyKeyboard[0][1].Text != "b" || m.ReplyKeyboard[1][0].Text != "c" {
		t.Fatalf("rows = %+v", m.ReplyKeyboard)
	}
}

func TestInlineButtonsRowsEncodesData(t *testing.T) {
	m := InlineButtonsRows(
		[]InlineBtn{{Text: "#1 Book", Unique: "pick", Data: "1"}},
		nil,
		[]InlineBtn{{Text: "Cancel", Unique: "cancel"}},
	)
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d", len(m.InlineKeyboard))
	}
	if got := m.InlineKeyboard[0][0].Data; got != "\fpick|1" {
		t.Fatalf("data = %q", got)
	}
	if got := m.InlineKeyboard[1][0].Data; got != "\fcancel" {
		t.Fatalf("data = %q", got)
	}
}

func TestChunk(t *testing.T) {
	btns := make([]InlineBtn, 5)
	rows := Chunk(btns, 2)
	if len(rows) != 3 || len(rows[0]) != 2 || len(rows[2]) != 1 {
		t.Fatalf("rows = %v", rows)
	}
	if got := Chunk(nil, 3); len(got) != 0 {
		t.Fatalf("empty = %v", got)
	}
	if got := Chunk(btns, 0); len(got) != 5 {
		t.Fatalf("n<1 = %d rows", len(got))
	}
}
