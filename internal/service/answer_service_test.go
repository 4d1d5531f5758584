package service

import (
	"errors"
	"testing"

	"askit-go/internal/model"

	"gorm.io/gorm"
)

func newAnswerWorld(t *testing.T) (AnswerService, *fakeQuestionRepo, *fakeAnswerRepo, *model.Question) {
	t.Helper()
	questionRepo := newFakeQuestionRepo()
	answerRepo := newFakeAnswerRepo()
	q := seedQuestion(t, questionRepo, validTitle, validBody)
	svc := NewAnswerService(answerRepo, questionRepo, nil)
	return svc, questionRepo, answerRepo, q
}

func TestCreateAnswer(t *testing.T) {
	svc, _, _, q := newAnswerWorld(t)

	a, err := svc.Create(q.ID, 2, "Use flexbox with justify-content: center.")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if a.ID == 0 || a.QuestionID != q.ID || a.AuthorID != 2 {
		t.Fatalf("unexpected answer: %+v", a)
	}
}

func TestCreateAnswerRejectsEmptyContent(t *testing.T) {
	svc, _, _, q := newAnswerWorld(t)

	if _, err := svc.Create(q.ID, 2, "   "); !errors.Is(err, ErrEmptyAnswer) {
		t.Fatalf("Create error = %v, want ErrEmptyAnswer", err)
	}
}

func TestCreateAnswerRequiresQuestion(t *testing.T) {
	svc, _, _, _ := newAnswerWorld(t)

	if _, err := svc.Create(999, 2, "Answer to nothing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("Create error = %v, want ErrRecordNotFound", err)
	}
}

func TestAcceptAnswerOnlyByQuestionAuthor(t *testing.T) {
	svc, _, _, q := newAnswerWorld(t)

	a, err := svc.Create(q.ID, 2, "Use flexbox.")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Accept(a.ID, 999); !errors.Is(err, ErrNotQuestionAuthor) {
		t.Fatalf("Accept by stranger error = %v, want ErrNotQuestionAuthor", err)
	}

	accepted, err := svc.Accept(a.ID, q.AuthorID)
	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if !accepted.IsAccepted {
		t.Fatal("answer not marked accepted")
	}
}

func TestAcceptIsExclusive(t *testing.T) {
	svc, _, answerRepo, q := newAnswerWorld(t)

	first, err := svc.Create(q.ID, 2, "First answer")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	second, err := svc.Create(q.ID, 3, "Second answer")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Accept(first.ID, q.AuthorID); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if _, err := svc.Accept(second.ID, q.AuthorID); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}

	// 采纳切换后同一问题至多一条已采纳答案
	var acceptedCount int
	for _, id := range []uint{first.ID, second.ID} {
		a, err := answerRepo.FindByID(id)
		if err != nil {
			t.Fatalf("FindByID returned error: %v", err)
		}
		if a.IsAccepted {
			acceptedCount++
			if a.ID != second.ID {
				t.Fatalf("wrong answer accepted: %d", a.ID)
			}
		}
	}
	if acceptedCount != 1 {
		t.Fatalf("accepted count = %d, want 1", acceptedCount)
	}
}

func TestUpdateAnswerOwnership(t *testing.T) {
	svc, _, _, q := newAnswerWorld(t)

	a, err := svc.Create(q.ID, 2, "Initial content here")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Update(a.ID, 999, "hijacked"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("Update by stranger error = %v, want ErrNotOwner", err)
	}

	updated, err := svc.Update(a.ID, 2, "Refined content")
	if err != nil {
		t.Fatalf("Update by owner returned error: %v", err)
	}
	if updated.Content != "Refined content" {
		t.Fatalf("content not updated: %q", updated.Content)
	}
}

func TestDeleteAnswerOwnership(t *testing.T) {
	svc, _, _, q := newAnswerWorld(t)

	a, err := svc.Create(q.ID, 2, "Disposable answer")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Delete(a.ID, 999); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("Delete by stranger error = %v, want ErrNotOwner", err)
	}
	if err := svc.Delete(a.ID, 2); err != nil {
		t.Fatalf("Delete by owner returned error: %v", err)
	}
	if _, err := svc.ListForQuestion(q.ID); err != nil {
		t.Fatalf("ListForQuestion returned error: %v", err)
	}
}
