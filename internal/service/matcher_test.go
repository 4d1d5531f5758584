package service

import (
	"errors"
	"os"
	"strings"
	"testing"

	"askit-go/internal/model"
	"askit-go/internal/repository"
	"askit-go/pkg/log"

	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

// fakeQuestionRepo 是 QuestionRepository 的内存实现。
type fakeQuestionRepo struct {
	questions []model.Question
	nextID    uint
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{nextID: 1}
}

func (r *fakeQuestionRepo) Create(q *model.Question) error {
	q.ID = r.nextID
	r.nextID++
	r.questions = append(r.questions, *q)
	return nil
}

func (r *fakeQuestionRepo) FindByID(id uint) (*model.Question, error) {
	for i := range r.questions {
		if r.questions[i].ID == id {
			q := r.questions[i]
			return &q, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeQuestionRepo) Update(q *model.Question) error {
	for i := range r.questions {
		if r.questions[i].ID == q.ID {
			r.questions[i] = *q
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeQuestionRepo) Delete(id uint) error {
	for i := range r.questions {
		if r.questions[i].ID == id {
			r.questions = append(r.questions[:i], r.questions[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeQuestionRepo) List(opts repository.QuestionListOptions) ([]model.Question, int64, error) {
	return r.questions, int64(len(r.questions)), nil
}

func (r *fakeQuestionRepo) FindByAuthor(authorID uint) ([]model.Question, error) {
	var out []model.Question
	for _, q := range r.questions {
		if q.AuthorID == authorID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) FindContaining(substr string) ([]model.Question, error) {
	needle := strings.ToLower(substr)
	var out []model.Question
	for _, q := range r.questions {
		if strings.Contains(strings.ToLower(q.Title), needle) ||
			strings.Contains(strings.ToLower(q.Content), needle) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) FindRandom(n int) ([]model.Question, error) {
	if n > len(r.questions) {
		n = len(r.questions)
	}
	return r.questions[:n], nil
}

func (r *fakeQuestionRepo) IncrementViewCount(id uint) error {
	for i := range r.questions {
		if r.questions[i].ID == id {
			r.questions[i].ViewCount++
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeQuestionRepo) AddVote(id uint, delta int) error {
	for i := range r.questions {
		if r.questions[i].ID == id {
			v := r.questions[i].VoteCount + delta
			if v < 0 {
				v = 0
			}
			r.questions[i].VoteCount = v
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// fakeAnswerRepo 是 AnswerRepository 的内存实现。
type fakeAnswerRepo struct {
	answers []model.Answer
	nextID  uint
}

func newFakeAnswerRepo() *fakeAnswerRepo {
	return &fakeAnswerRepo{nextID: 1}
}

func (r *fakeAnswerRepo) Create(a *model.Answer) error {
	a.ID = r.nextID
	r.nextID++
	r.answers = append(r.answers, *a)
	return nil
}

func (r *fakeAnswerRepo) FindByID(id uint) (*model.Answer, error) {
	for i := range r.answers {
		if r.answers[i].ID == id {
			a := r.answers[i]
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAnswerRepo) Update(a *model.Answer) error {
	for i := range r.answers {
		if r.answers[i].ID == a.ID {
			r.answers[i] = *a
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeAnswerRepo) Delete(id uint) error {
	for i := range r.answers {
		if r.answers[i].ID == id {
			r.answers = append(r.answers[:i], r.answers[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeAnswerRepo) FindByQuestionID(questionID uint) ([]model.Answer, error) {
	var out []model.Answer
	for _, a := range r.answers {
		if a.QuestionID == questionID {
			out = append(out, a)
		}
	}
	return out, nil
}

// FindBestForQuestion 复刻仓储层的挑选规则：已采纳优先，其次票数，平票取最早。
func (r *fakeAnswerRepo) FindBestForQuestion(questionID uint) (*model.Answer, error) {
	var best *model.Answer
	for i := range r.answers {
		a := &r.answers[i]
		if a.QuestionID != questionID {
			continue
		}
		if best == nil {
			best = a
			continue
		}
		switch {
		case a.IsAccepted != best.IsAccepted:
			if a.IsAccepted {
				best = a
			}
		case a.VoteCount > best.VoteCount:
			best = a
		case a.VoteCount == best.VoteCount && a.ID < best.ID:
			best = a
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	result := *best
	return &result, nil
}

func (r *fakeAnswerRepo) FindByAuthor(authorID uint) ([]model.Answer, error) {
	var out []model.Answer
	for _, a := range r.answers {
		if a.AuthorID == authorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAnswerRepo) CountByQuestionID(questionID uint) (int64, error) {
	var n int64
	for _, a := range r.answers {
		if a.QuestionID == questionID {
			n++
		}
	}
	return n, nil
}

func (r *fakeAnswerRepo) AddVote(id uint, delta int) error {
	for i := range r.answers {
		if r.answers[i].ID == id {
			v := r.answers[i].VoteCount + delta
			if v < 0 {
				v = 0
			}
			r.answers[i].VoteCount = v
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeAnswerRepo) AcceptExclusive(questionID, answerID uint) error {
	for i := range r.answers {
		if r.answers[i].QuestionID == questionID {
			r.answers[i].IsAccepted = r.answers[i].ID == answerID
		}
	}
	return nil
}

func seedQuestion(t *testing.T, repo *fakeQuestionRepo, title, content string) *model.Question {
	t.Helper()
	q := &model.Question{Title: title, Content: content, AuthorID: 1}
	q.SetTags([]string{"testing"})
	if err := repo.Create(q); err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return q
}

func TestMatchRejectsEmptyQuery(t *testing.T) {
	m := NewMatcher(newFakeQuestionRepo(), newFakeAnswerRepo())

	for _, query := range []string{"", "   ", "\n\t"} {
		if _, err := m.Match(query); !errors.Is(err, ErrEmptyQuery) {
			t.Fatalf("Match(%q) error = %v, want ErrEmptyQuery", query, err)
		}
	}
}

func TestMatchNoCandidates(t *testing.T) {
	questionRepo := newFakeQuestionRepo()
	seedQuestion(t, questionRepo, "How to center a div in CSS", "I tried margin auto but nothing works for me here")

	m := NewMatcher(questionRepo, newFakeAnswerRepo())

	result, err := m.Match("quantum entanglement")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if result.Found() {
		t.Fatalf("expected no match, got question %q", result.Question.Title)
	}
}

func TestMatchCaseInsensitiveSubstring(t *testing.T) {
	questionRepo := newFakeQuestionRepo()
	q := seedQuestion(t, questionRepo, "How to center a div in CSS", "I tried margin auto but nothing works for me here")

	m := NewMatcher(questionRepo, newFakeAnswerRepo())

	result, err := m.Match("CENTER A DIV")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if !result.Found() || result.Question.ID != q.ID {
		t.Fatalf("expected match on question %d, got %+v", q.ID, result.Question)
	}
}

func TestMatchBodyContentAlsoSearched(t *testing.T) {
	questionRepo := newFakeQuestionRepo()
	q := seedQuestion(t, questionRepo, "Weird layout bug on mobile Safari", "The flexbox container collapses when rotating the device")

	m := NewMatcher(questionRepo, newFakeAnswerRepo())

	result, err := m.Match("flexbox container")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if !result.Found() || result.Question.ID != q.ID {
		t.Fatalf("expected match via question body, got %+v", result.Question)
	}
}

func TestMatchFirstCandidateWins(t *testing.T) {
	questionRepo := newFakeQuestionRepo()
	first := seedQuestion(t, questionRepo, "Understanding goroutines in Go", "How do goroutines get scheduled onto OS threads exactly")
	second := seedQuestion(t, questionRepo, "Leaking goroutines in production", "Our service leaks goroutines when upstream calls hang forever")
	second.VoteCount = 99
	if err := questionRepo.Update(second); err != nil {
		t.Fatalf("update question: %v", err)
	}

	m := NewMatcher(questionRepo, newFakeAnswerRepo())

	// 票数不参与挑选，先入库的先命中
	result, err := m.Match("goroutines")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if result.Question.ID != first.ID {
		t.Fatalf("expected first stored question %d to win, got %d", first.ID, result.Question.ID)
	}
}

func TestMatchPrefersAcceptedAnswer(t *testing.T) {
	questionRepo := newFakeQuestionRepo()
	answerRepo := newFakeAnswerRepo()
	q := seedQuestion(t, questionRepo, "How to center a div in CSS", "I tried margin auto but nothing works for me here")

	popular := &model.Answer{QuestionID: q.ID, AuthorID: 2, Content: "Use float and pray", VoteCount: 50}
	accepted := &model.Answer{QuestionID: q.ID, AuthorID: 3, Content: "Use flexbox with justify-content and align-items", VoteCount: 3, IsAccepted: true}
	if err := answerRepo.Create(popular); err != nil {
		t.Fatalf("seed answer: %v", err)
	}
	if err := answerRepo.Create(accepted); err != nil {
		t.Fatalf("seed answer: %v", err)
	}

	m := NewMatcher(questionRepo, answerRepo)

	result, err := m.Match("center a div")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if result.Answer == nil || result.Answer.ID != accepted.ID {
		t.Fatalf("expected accepted answer %d, got %+v", accepted.ID, result.Answer)
	}
}

func TestMatchFallsBackToHighestVoted(t *testing.T) {
	questionRepo := newFakeQuestionRepo()
	answerRepo := newFakeAnswerRepo()
	q := seedQuestion(t, questionRepo, "How to center a div in CSS", "I tried margin auto but nothing works for me here")

	weak := &model.Answer{QuestionID: q.ID, AuthorID: 2, Content: "Use a table layout", VoteCount: 1}
	strong := &model.Answer{QuestionID: q.ID, AuthorID: 3, Content: "display: grid; place-items: center;", VoteCount: 42}
	if err := answerRepo.Create(weak); err != nil {
		t.Fatalf("seed answer: %v", err)
	}
	if err := answerRepo.Create(strong); err != nil {
		t.Fatalf("seed answer: %v", err)
	}

	m := NewMatcher(questionRepo, answerRepo)

	result, err := m.Match("center a div")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if result.Answer == nil || result.Answer.ID != strong.ID {
		t.Fatalf("expected highest voted answer %d, got %+v", strong.ID, result.Answer)
	}
}

func TestMatchQuestionWithoutAnswers(t *testing.T) {
	questionRepo := newFakeQuestionRepo()
	q := seedQuestion(t, questionRepo, "How to center a div in CSS", "I tried margin auto but nothing works for me here")

	m := NewMatcher(questionRepo, newFakeAnswerRepo())

	result, err := m.Match("center a div")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if !result.Found() || result.Question.ID != q.ID {
		t.Fatalf("expected match, got %+v", result.Question)
	}
	if result.Answer != nil {
		t.Fatalf("expected nil answer for unanswered question, got %+v", result.Answer)
	}
}
