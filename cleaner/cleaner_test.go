package cleaner

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitBlocks(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"A\n\nB", []string{"A", "B"}},
		{"  A \n \t\n B\n\n\n", []string{"A", "B"}},
		{"one line\nsame block", []string{"one line\nsame block"}},
		{"\n\n", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := SplitBlocks(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitBlocks(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKeep(t *testing.T) {
	tests := []struct {
		text   string
		minLen int
		want   bool
	}{
		{"", 0, false},
		{"A", 0, true},
		{"short", 5, false},
		{"longer", 5, true},
		{"第一章内容", 5, false},
		{"第一章内容很长", 5, true},
	}

	for _, tt := range tests {
		if got := Keep(tt.text, tt.minLen); got != tt.want {
			t.Errorf("Keep(%q, %d) = %v, want %v", tt.text, tt.minLen, got, tt.want)
		}
	}
}

func TestStripNoise(t *testing.T) {
	in := `<div><p>keep</p><script>x()</script><span style="display: none">junk</span><p hidden>gone</p><div class="ad">ad</div></div>`
	got := StripNoise(in, []string{".ad"})

	if !strings.Contains(got, "<p>keep</p>") {
		t.Errorf("StripNoise dropped content: %s", got)
	}
	for _, bad := range []string{"x()", "junk", "gone", ">ad<"} {
		if strings.Contains(got, bad) {
			t.Errorf("StripNoise kept %q: %s", bad, got)
		}
	}
}

func TestChapterMarkdown(t *testing.T) {
	conv := NewMarkdownConverter()
	in := `<div><p>Hello <em>world</em></p><p style="display:none">junk</p><p>Two</p></div>`

	got, err := ChapterMarkdown(conv, in, "https://www.bilibili.com")
	if err != nil {
		t.Fatalf("ChapterMarkdown() error = %v", err)
	}
	want := "Hello *world*\n\nTwo"
	if got != want {
		t.Errorf("ChapterMarkdown() = %q, want %q", got, want)
	}
}

func TestReadabilityParagraphs(t *testing.T) {
	para := strings.Repeat("The rain kept falling over the old harbour town while she waited. ", 4)
	page := `<html><head><title>Chapter 1</title></head><body>
<div class="nav"><a href="/">Home</a></div>
<article><h1>Chapter 1</h1><p>` + para + `</p><p>` + para + `</p><p>` + para + `</p></article>
</body></html>`

	got, err := ReadabilityParagraphs(page, "https://example.com/read/1")
	if err != nil {
		t.Fatalf("ReadabilityParagraphs() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d paragraphs, want 3: %q", len(got), got)
	}
	if got[0] != strings.TrimSpace(para) {
		t.Errorf("paragraph = %q", got[0])
	}
}

func TestReadabilityParagraphs_TooShort(t *testing.T) {
	if _, err := ReadabilityParagraphs("<html><body><p>hi</p></body></html>", "https://example.com"); err == nil {
		t.Error("expected error for near-empty page")
	}
}
