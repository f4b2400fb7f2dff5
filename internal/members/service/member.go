package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	memberserrors "roombook/internal/members/errors"
	"roombook/internal/members/repository"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
	"roombook/pkg/sealer"
	"roombook/pkg/token"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	RoleMember = "member"
	RoleStaff  = "staff"
)

// TokenPair is the login response body: a short-lived JWT and an opaque
// refresh token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type MemberService interface {
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	FindByID(ctx context.Context, id string) (*model.Member, error)
}

type memberService struct {
	repo   repository.MemberRepository
	tokens *token.Manager
	sealer *sealer.Sealer
	cfg    *config.Config
}

func NewMemberService(repo repository.MemberRepository, tokens *token.Manager, box *sealer.Sealer, cfg *config.Config) MemberService {
	return &memberService{
		repo:   repo,
		tokens: tokens,
		sealer: box,
		cfg:    cfg,
	}
}

// Login authenticates by email and password. Unknown accounts, wrong
// passwords and deactivated accounts all fail with the same message so
// callers cannot probe which emails exist.
func (s *memberService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = sanitizer.NormalizeEmail(email)
	if !emailRegex.MatchString(email) {
		return nil, apperrors.InvalidInput("A valid email address is required")
	}
	if password == "" {
		return nil, apperrors.InvalidInput("Password is required")
	}

	member, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, memberserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		s.cfg.Log.Error("Failed to look up member for login", "error", err)
		return nil, apperrors.Internal("Failed to authenticate", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}
	if !member.IsActive {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	pair, err := s.issuePair(member)
	if err != nil {
		s.cfg.Log.Error("Failed to issue token pair", "member_id", member.ID, "error", err)
		return nil, apperrors.Internal("Failed to issue tokens", err)
	}

	s.cfg.Log.Info("Member logged in", "member_id", member.ID)
	return pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The refresh
// token rotates on every use.
func (s *memberService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("Refresh token is required")
	}

	memberID, err := s.sealer.Open(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired refresh token")
	}

	member, err := s.repo.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, memberserrors.ErrNotFound) || errors.Is(err, memberserrors.ErrInvalidID) {
			return nil, apperrors.Unauthorized("Invalid or expired refresh token")
		}
		s.cfg.Log.Error("Failed to look up member for refresh", "error", err)
		return nil, apperrors.Internal("Failed to refresh tokens", err)
	}
	if !member.IsActive {
		return nil, apperrors.Unauthorized("Invalid or expired refresh token")
	}

	pair, err := s.issuePair(member)
	if err != nil {
		s.cfg.Log.Error("Failed to issue token pair", "member_id", member.ID, "error", err)
		return nil, apperrors.Internal("Failed to issue tokens", err)
	}
	return pair, nil
}

func (s *memberService) FindByID(ctx context.Context, id string) (*model.Member, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Member", id)
		}
		if errors.Is(err, memberserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid member ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve member", err)
	}
	return member, nil
}

func (s *memberService) issuePair(member *model.Member) (*TokenPair, error) {
	role := RoleMember
	if member.IsStaff {
		role = RoleStaff
	}

	access, err := s.tokens.Issue(member.ID, role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sealer.Seal(member.ID, time.Now().Add(s.cfg.RefreshTokenTTL))
	if err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}
