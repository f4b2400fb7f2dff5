package service

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	memberserrors "roombook/internal/members/errors"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"roombook/pkg/sealer"
	"roombook/pkg/token"
)

type mockMemberRepository struct {
	byEmail map[string]*model.Member
	byID    map[string]*model.Member
}

func (m *mockMemberRepository) FindByEmail(ctx context.Context, email string) (*model.Member, error) {
	if member, ok := m.byEmail[email]; ok {
		return member, nil
	}
	return nil, memberserrors.ErrNotFound
}

func (m *mockMemberRepository) FindByID(ctx context.Context, id string) (*model.Member, error) {
	if member, ok := m.byID[id]; ok {
		return member, nil
	}
	return nil, memberserrors.ErrNotFound
}

func (m *mockMemberRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

const testPassword = "correct horse battery staple"

func testMember(t *testing.T) *model.Member {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return &model.Member{
		ID:           "64f000000000000000000002",
		Email:        "member@example.com",
		Username:     "member",
		PasswordHash: string(hash),
		IsActive:     true,
	}
}

func newTestService(t *testing.T, member *model.Member) MemberService {
	t.Helper()

	tokens, err := token.NewManager("test-secret", 15*time.Minute)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	box, err := sealer.New(key)
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}

	repo := &mockMemberRepository{
		byEmail: map[string]*model.Member{},
		byID:    map[string]*model.Member{},
	}
	if member != nil {
		repo.byEmail[member.Email] = member
		repo.byID[member.ID] = member
	}

	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		RefreshTokenTTL: 24 * time.Hour,
	}
	return NewMemberService(repo, tokens, box, cfg)
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	appErr := apperrors.AsAppError(err)
	if appErr == nil {
		t.Fatalf("expected AppError with status %d, got %T: %v", want, err, err)
	}
	if appErr.StatusCode() != want {
		t.Errorf("expected status %d, got %d (%v)", want, appErr.StatusCode(), err)
	}
}

func TestLogin_Success(t *testing.T) {
	member := testMember(t)
	svc := newTestService(t, member)

	pair, err := svc.Login(context.Background(), member.Email, testPassword)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
}

func TestLogin_EmailNormalized(t *testing.T) {
	member := testMember(t)
	svc := newTestService(t, member)

	if _, err := svc.Login(context.Background(), "  MEMBER@example.com ", testPassword); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLogin_BadEmailFormat(t *testing.T) {
	svc := newTestService(t, nil)

	tests := []string{"", "not-an-email", "missing@tld", "@example.com"}
	for _, email := range tests {
		t.Run(email, func(t *testing.T) {
			_, err := svc.Login(context.Background(), email, testPassword)
			assertStatus(t, err, http.StatusBadRequest)
		})
	}
}

func TestLogin_UnknownMember(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Login(context.Background(), "nobody@example.com", testPassword)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestLogin_WrongPassword(t *testing.T) {
	member := testMember(t)
	svc := newTestService(t, member)

	_, err := svc.Login(context.Background(), member.Email, "wrong")
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestLogin_InactiveMember(t *testing.T) {
	member := testMember(t)
	member.IsActive = false
	svc := newTestService(t, member)

	_, err := svc.Login(context.Background(), member.Email, testPassword)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestRefresh_RoundTrip(t *testing.T) {
	member := testMember(t)
	svc := newTestService(t, member)

	pair, err := svc.Login(context.Background(), member.Email, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := svc.Refresh(context.Background(), pair.Refresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rotated.Access == "" || rotated.Refresh == "" {
		t.Fatalf("expected a fresh pair, got %+v", rotated)
	}
}

func TestRefresh_GarbledToken(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Refresh(context.Background(), "not-a-real-token")
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestRefresh_InactiveMember(t *testing.T) {
	member := testMember(t)
	svc := newTestService(t, member)

	pair, err := svc.Login(context.Background(), member.Email, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	member.IsActive = false
	_, err = svc.Refresh(context.Background(), pair.Refresh)
	assertStatus(t, err, http.StatusUnauthorized)
}
