package ui

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/five82/tally/internal/inventory"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"  padded  ", 10, "padded"},
		{"exactly", 7, "exactly"},
		{"too long value", 8, "too l..."},
		{"abc", 2, "ab"},
		{"unlimited", 0, "unlimited"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestTruncateMiddleKeepsTail(t *testing.T) {
	got := truncateMiddle("/home/user/.local/state/tally/tally.log", 20)
	if len([]rune(got)) != 20 {
		t.Fatalf("truncateMiddle length = %d, want 20 (%q)", len([]rune(got)), got)
	}
	if got[len(got)-9:] != "tally.log" {
		t.Fatalf("truncateMiddle = %q, want file name kept", got)
	}
}

func TestPadding(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Fatalf("padRight = %q", got)
	}
	if got := padLeft("7", 3); got != "  7" {
		t.Fatalf("padLeft = %q", got)
	}
	if got := padLeft("1234", 3); got != "1234" {
		t.Fatalf("padLeft overflow = %q", got)
	}
}

func TestFormatMoney(t *testing.T) {
	if got := formatMoney(decimal.RequireFromString("2.5")); got != "$2.50" {
		t.Fatalf("formatMoney = %q", got)
	}
	if got := formatMoney(decimal.Decimal{}); got != "$0.00" {
		t.Fatalf("formatMoney zero = %q", got)
	}
}

func TestScrollOffset(t *testing.T) {
	cases := []struct {
		selected, total, height, want int
	}{
		{0, 5, 10, 0},
		{9, 20, 10, 0},
		{10, 20, 10, 1},
		{19, 20, 10, 10},
		{25, 20, 10, 10},
	}
	for _, tc := range cases {
		if got := scrollOffset(tc.selected, tc.total, tc.height); got != tc.want {
			t.Fatalf("scrollOffset(%d, %d, %d) = %d, want %d", tc.selected, tc.total, tc.height, got, tc.want)
		}
	}
}

func TestFilterProducts(t *testing.T) {
	products := []inventory.Product{{ID: "1", Name: "Bar Soap"}, {ID: "2", Name: "Bread"}, {ID: "3", Name: "soap flakes"}}

	if got := FilterProducts(products, ""); len(got) != 3 {
		t.Fatalf("empty query kept %d, want 3", len(got))
	}
	got := FilterProducts(products, "  SOAP ")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("FilterProducts = %+v, want ids 1 and 3", got)
	}
	if got := FilterProducts(products, "milk"); len(got) != 0 {
		t.Fatalf("FilterProducts(milk) = %+v", got)
	}
}

func TestHelpSectionsFollowKeyMap(t *testing.T) {
	sections := helpSections(DefaultKeyMap().FullHelp())
	if len(sections) != len(helpTitles) {
		t.Fatalf("sections = %d, want %d", len(sections), len(helpTitles))
	}
	if sections[0].title != "Views" || sections[0].items[0].key != "1" {
		t.Fatalf("first section = %+v", sections[0])
	}
	logs := sections[4]
	if logs.items[0].key != "Space" {
		t.Fatalf("follow key help = %q, want Space", logs.items[0].key)
	}
}
