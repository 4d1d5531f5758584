package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"askit-go/internal/model"
)

func TestFormatCitation(t *testing.T) {
	got := FormatCitation("How to center a div", 42)
	want := "[How to center a div](/q/42)"
	if got != want {
		t.Fatalf("FormatCitation = %q, want %q", got, want)
	}
	// 渲染层依赖该分隔符切分标题与链接
	if !strings.Contains(got, "](/q/") {
		t.Fatalf("citation must contain the ](/q/ delimiter, got %q", got)
	}
}

func TestParseCitationRoundTrip(t *testing.T) {
	text := "See this thread: " + FormatCitation("Why is my build slow?", 7)

	title, id, ok := ParseCitation(text)
	if !ok {
		t.Fatal("ParseCitation failed to find a citation")
	}
	if id != 7 {
		t.Fatalf("parsed id = %d, want 7", id)
	}
	if title != "Why is my build slow?" {
		t.Fatalf("parsed title = %q", title)
	}
}

func TestParseCitationNotFound(t *testing.T) {
	if _, _, ok := ParseCitation("no links here, just [markdown](https://example.com)"); ok {
		t.Fatal("ParseCitation matched a non-question link")
	}
}

func buildMatchedWorld(t *testing.T, withAnswer bool) (*fakeQuestionRepo, *fakeAnswerRepo, *model.Question) {
	t.Helper()
	questionRepo := newFakeQuestionRepo()
	answerRepo := newFakeAnswerRepo()
	q := seedQuestion(t, questionRepo, "How to center a div in CSS", "I tried margin auto but nothing works for me here")
	if withAnswer {
		a := &model.Answer{QuestionID: q.ID, AuthorID: 2, Content: "Use flexbox with justify-content", VoteCount: 5, IsAccepted: true}
		if err := answerRepo.Create(a); err != nil {
			t.Fatalf("seed answer: %v", err)
		}
	}
	return questionRepo, answerRepo, q
}

func TestLocalResponderWithAnswer(t *testing.T) {
	questionRepo, answerRepo, q := buildMatchedWorld(t, true)
	r := NewLocalResponder(NewMatcher(questionRepo, answerRepo), NewContextAssembler())

	got, err := r.Respond(context.Background(), "center a div")
	if err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if !strings.Contains(got, "Use flexbox with justify-content") {
		t.Fatalf("response must quote the community answer, got %q", got)
	}
	if !strings.Contains(got, FormatCitation(q.Title, q.ID)) {
		t.Fatalf("response must cite the source question, got %q", got)
	}
}

func TestLocalResponderWithoutAnswer(t *testing.T) {
	questionRepo, answerRepo, q := buildMatchedWorld(t, false)
	r := NewLocalResponder(NewMatcher(questionRepo, answerRepo), NewContextAssembler())

	got, err := r.Respond(context.Background(), "center a div")
	if err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if !strings.Contains(got, q.Title) {
		t.Fatalf("response must mention the question title, got %q", got)
	}
	if !strings.Contains(got, q.Content) {
		t.Fatalf("response must include the body preview, got %q", got)
	}
	if !strings.Contains(got, "](/q/") {
		t.Fatalf("response must cite the source question, got %q", got)
	}
}

func TestLocalResponderNoMatch(t *testing.T) {
	r := NewLocalResponder(NewMatcher(newFakeQuestionRepo(), newFakeAnswerRepo()), NewContextAssembler())

	got, err := r.Respond(context.Background(), "quantum entanglement")
	if err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	// 固定的三选项引导文案
	for _, fragment := range []string{
		"post this as a new question",
		"rephrasing your question",
		"Browse similar topics",
	} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("guidance missing fragment %q, got %q", fragment, got)
		}
	}
}

// stubLLMClient 记录收到的 prompt 并返回预置结果。
type stubLLMClient struct {
	lastPrompt string
	reply      string
	err        error
}

func (c *stubLLMClient) Generate(_ context.Context, prompt string) (string, error) {
	c.lastPrompt = prompt
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func TestDelegatedResponderInjectsContext(t *testing.T) {
	questionRepo, answerRepo, q := buildMatchedWorld(t, true)
	client := &stubLLMClient{reply: "  Flexbox is the way.  "}
	r := NewDelegatedResponder(NewMatcher(questionRepo, answerRepo), NewContextAssembler(), client)

	got, err := r.Respond(context.Background(), "center a div")
	if err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if got != "Flexbox is the way." {
		t.Fatalf("response must be trimmed model output, got %q", got)
	}

	if !strings.Contains(client.lastPrompt, `"center a div"`) {
		t.Fatalf("prompt must embed the user query, got %q", client.lastPrompt)
	}
	if !strings.Contains(client.lastPrompt, "Related Question: "+q.Title) {
		t.Fatalf("prompt must embed the assembled context, got %q", client.lastPrompt)
	}
	if !strings.Contains(client.lastPrompt, "NEVER say you're an AI") {
		t.Fatalf("prompt missing persona instructions, got %q", client.lastPrompt)
	}
}

func TestDelegatedResponderNoMatchOmitsContext(t *testing.T) {
	client := &stubLLMClient{reply: "Direct answer."}
	r := NewDelegatedResponder(NewMatcher(newFakeQuestionRepo(), newFakeAnswerRepo()), NewContextAssembler(), client)

	if _, err := r.Respond(context.Background(), "quantum entanglement"); err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if strings.Contains(client.lastPrompt, "supporting context") {
		t.Fatalf("prompt must not reference context when nothing matched, got %q", client.lastPrompt)
	}
}

func TestDelegatedResponderPropagatesError(t *testing.T) {
	upstreamErr := errors.New("boom")
	client := &stubLLMClient{err: upstreamErr}
	r := NewDelegatedResponder(NewMatcher(newFakeQuestionRepo(), newFakeAnswerRepo()), NewContextAssembler(), client)

	if _, err := r.Respond(context.Background(), "anything at all"); !errors.Is(err, upstreamErr) {
		t.Fatalf("Respond error = %v, want upstream error", err)
	}
}
