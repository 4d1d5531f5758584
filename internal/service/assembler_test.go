package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"askit-go/internal/model"
)

func TestAssembleWithAnswer(t *testing.T) {
	a := NewContextAssembler()
	m := MatchResult{
		Question: &model.Question{Title: "How to center a div", Content: "margin auto does not work"},
		Answer:   &model.Answer{Content: "Use flexbox"},
	}

	got := a.Assemble(m)
	want := "Related Question: How to center a div\nQuestion Content: margin auto does not work\nCommunity Answer: Use flexbox"
	if got != want {
		t.Fatalf("Assemble = %q, want %q", got, want)
	}
}

func TestAssembleWithoutAnswer(t *testing.T) {
	a := NewContextAssembler()
	m := MatchResult{
		Question: &model.Question{Title: "How to center a div", Content: "margin auto does not work"},
	}

	got := a.Assemble(m)
	if strings.Contains(got, "Community Answer") {
		t.Fatalf("answer line should be omitted, got %q", got)
	}
	if !strings.Contains(got, "Related Question: How to center a div") {
		t.Fatalf("missing question label, got %q", got)
	}
}

func TestAssembleNoMatch(t *testing.T) {
	a := NewContextAssembler()
	if got := a.Assemble(MatchResult{}); got != "" {
		t.Fatalf("Assemble on empty match = %q, want empty string", got)
	}
}

func TestPreviewShortContentUnchanged(t *testing.T) {
	a := NewContextAssembler()
	content := "short body"
	if got := a.Preview(content); got != content {
		t.Fatalf("Preview = %q, want unchanged %q", got, content)
	}
}

func TestPreviewExactLimitUnchanged(t *testing.T) {
	a := NewContextAssembler()
	content := strings.Repeat("x", 200)
	if got := a.Preview(content); got != content {
		t.Fatalf("content at the limit must not be truncated, got len %d", len(got))
	}
}

func TestPreviewTruncatesLongContent(t *testing.T) {
	a := NewContextAssembler()
	content := strings.Repeat("x", 450)

	got := a.Preview(content)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncated preview must end with ellipsis, got %q", got[len(got)-10:])
	}
	if utf8.RuneCountInString(got) != 203 {
		t.Fatalf("preview rune count = %d, want 203", utf8.RuneCountInString(got))
	}
}

func TestPreviewCountsRunesNotBytes(t *testing.T) {
	a := NewContextAssembler()
	// 多字节字符按字符数而不是字节数截断
	content := strings.Repeat("问", 250)

	got := a.Preview(content)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	body := strings.TrimSuffix(got, "...")
	if utf8.RuneCountInString(body) != 200 {
		t.Fatalf("preview body rune count = %d, want 200", utf8.RuneCountInString(body))
	}
	if !utf8.ValidString(got) {
		t.Fatal("preview produced invalid UTF-8")
	}
}
