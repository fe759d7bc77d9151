package tui

import "testing"

func TestWrapTextBreaksAtSpaces(t *testing.T) {
	got := wrapText("explain the difference between a mutex and a channel", 20)
	want := "explain the\ndifference between a\nmutex and a channel"
	if got != want {
		t.Fatalf("unexpected wrap:\n%q\nwant\n%q", got, want)
	}
}

func TestWrapTextSplitsLongWords(t *testing.T) {
	got := wrapText("abcdefghij", 4)
	if got != "abcd\nefgh\nij" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapTextKeepsNewlines(t *testing.T) {
	got := wrapText("one two\nsix", 3)
	if got != "one\ntwo\nsix" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapTextWideRunes(t *testing.T) {
	got := wrapText("日本語 テスト", 6)
	if got != "日本語\nテスト" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestTruncateLineByDisplayWidth(t *testing.T) {
	if got := truncateLine("short", 10); got != "short" {
		t.Fatalf("unexpected truncate: %q", got)
	}
	if got := truncateLine("2:03:08 PM: Window lost focus", 12); got != "2:03:08 PM:…" {
		t.Fatalf("unexpected truncate: %q", got)
	}
	if got := truncateLine("日本語テスト", 7); got != "日本語…" {
		t.Fatalf("unexpected truncate: %q", got)
	}
}
