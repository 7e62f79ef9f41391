package keyboard

import "testing"

func TestInlineButtonsRowsKeepsRawData(t *testing.T) {
	markup := InlineButtonsRows([]InlineBtn{
		{Text: "Approve", Data: "approve:1"},
		{Text: "Reject", Data: "reject:1"},
	})
	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 2 {
		t.Fatalf("unexpected layout: %+v", markup.InlineKeyboard)
	}
	if got := markup.InlineKeyboard[0][1].Data; got != "reject:1" {
		t.Fatalf("data = %q", got)
	}
}

func TestContactRequest(t *testing.T) {
	markup := ContactRequest("Share")
	if !markup.OneTimeKeyboard || !markup.ResizeKeyboard {
		t.Fatalf("expected one-time resized keyboard: %+v", markup)
	}
	if len(markup.ReplyKeyboard) != 1 || len(markup.ReplyKeyboard[0]) != 1 {
		t.Fatalf("unexpected layout: %+v", markup.ReplyKeyboard)
	}
	if !markup.ReplyKeyboard[0][0].Contact {
		t.Fatal("button must request contact")
	}
}
