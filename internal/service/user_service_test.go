package service

import (
	"errors"
	"testing"

	"askit-go/internal/config"
	"askit-go/internal/model"
	"askit-go/pkg/token"

	"gorm.io/gorm"
)

// fakeUserRepo 是 UserRepository 的内存实现。
type fakeUserRepo struct {
	users  []model.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1}
}

func (r *fakeUserRepo) Create(u *model.User) error {
	u.ID = r.nextID
	r.nextID++
	r.users = append(r.users, *u)
	return nil
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	for i := range r.users {
		if r.users[i].Username == username {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	for i := range r.users {
		if r.users[i].Email == email {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(userID uint) (*model.User, error) {
	for i := range r.users {
		if r.users[i].ID == userID {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(u *model.User) error {
	for i := range r.users {
		if r.users[i].ID == u.ID {
			r.users[i] = *u
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func newUserService() (UserService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	jwtManager := token.NewJWTManager("test-secret", 1, 7)
	return NewUserService(repo, jwtManager, config.MinIOConfig{}), repo
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newUserService()

	cases := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{"short username", "ab", "a@b.com", "password123", ErrInvalidUsername},
		{"bad email", "alice", "not-an-email", "password123", ErrInvalidEmail},
		{"weak password", "alice", "a@b.com", "short", ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(tc.username, tc.email, tc.password); !errors.Is(err, tc.wantErr) {
				t.Fatalf("Register error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newUserService()

	if _, err := svc.Register("alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, err := svc.Register("alice", "other@example.com", "password123"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username error = %v, want ErrUsernameTaken", err)
	}
	if _, err := svc.Register("bob", "alice@example.com", "password123"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email error = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, repo := newUserService()

	if _, err := svc.Register("alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	stored, err := repo.FindByUsername("alice")
	if err != nil {
		t.Fatalf("FindByUsername returned error: %v", err)
	}
	if stored.Password == "password123" {
		t.Fatal("password stored in plain text")
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newUserService()

	if _, err := svc.Register("alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	access, refresh, err := svc.Login("alice", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("expected both tokens to be issued")
	}

	if _, _, err := svc.Login("alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login("nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshTokenIssuesNewPair(t *testing.T) {
	svc, _ := newUserService()

	if _, err := svc.Register("alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	_, refresh, err := svc.Login("alice", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	newAccess, newRefresh, err := svc.RefreshToken(refresh)
	if err != nil {
		t.Fatalf("RefreshToken returned error: %v", err)
	}
	if newAccess == "" || newRefresh == "" {
		t.Fatal("expected a fresh token pair")
	}

	if _, _, err := svc.RefreshToken("garbage.token.value"); err == nil {
		t.Fatal("RefreshToken must reject an invalid token")
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newUserService()

	user, err := svc.Register("alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	updated, err := svc.UpdateProfile(user.ID, "Alice L.", "Gopher since 2015")
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if updated.Name != "Alice L." || updated.Bio != "Gopher since 2015" {
		t.Fatalf("profile not updated: %+v", updated)
	}
}
