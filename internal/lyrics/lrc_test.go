package lyrics

import (
	"testing"
	"time"
)

func TestParseLRC(t *testing.T) {
	text := "[ar:Queen]\n[ti:Bohemian Rhapsody]\n" +
		"[00:01.50] Is this the real life?\n" +
		"\n" +
		"[00:05.2]Is this just fantasy?\n" +
		"[01:02.345][00:10.00] Chorus\n" +
		"no timestamp here\n" +
		"[00:20] \n"

	lines := ParseLRC(text)

	want := []struct {
		at   time.Duration
		text string
	}{
		{1500 * time.Millisecond, "Is this the real life?"},
		{5200 * time.Millisecond, "Is this just fantasy?"},
		{10 * time.Second, "Chorus"},
		{20 * time.Second, ""},
		{time.Minute + 2345*time.Millisecond, "Chorus"},
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %+v", len(lines), len(want), lines)
	}
	for i, w := range want {
		if lines[i].Time != w.at || lines[i].Text != w.text {
			t.Errorf("line %d = {%v %q}, want {%v %q}", i, lines[i].Time, lines[i].Text, w.at, w.text)
		}
		if lines[i].TimeMs != w.at.Milliseconds() {
			t.Errorf("line %d TimeMs = %d", i, lines[i].TimeMs)
		}
	}
}

func TestIsSynced(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"lrc", "[00:01.00] hello", true},
		{"plain", "hello\nworld", false},
		{"metadata only", "[ar:Someone]\n[ti:Song]", false},
		{"empty", "", false},
		{"bracket text", "[Chorus]\nla la", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSynced(tt.text); got != tt.want {
				t.Errorf("IsSynced() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	if got := PlainText("[00:02.00] b\n[00:01.00] a"); got != "a\nb" {
		t.Errorf("PlainText(lrc) = %q", got)
	}
	if got := PlainText("  just words \n"); got != "just words" {
		t.Errorf("PlainText(plain) = %q", got)
	}
}
