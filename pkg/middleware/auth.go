package middleware

import (
	"context"
	"net/http"
	"strings"

	"roombook/pkg/logger"
	"roombook/pkg/model"
	"roombook/pkg/token"

	"github.com/julienschmidt/httprouter"
)

const identityKey contextKey = "identity"

// Identity is the authenticated caller, injected into the request context
// by Authenticator.Require. Handlers never touch tokens directly.
type Identity struct {
	MemberID string
	Email    string
	IsStaff  bool
}

// MemberLoader resolves a verified token subject to a live account.
type MemberLoader interface {
	FindByID(ctx context.Context, id string) (*model.Member, error)
}

type Authenticator struct {
	tokens  *token.Manager
	members MemberLoader
	log     *logger.Logger
}

func NewAuthenticator(tokens *token.Manager, members MemberLoader, log *logger.Logger) *Authenticator {
	return &Authenticator{
		tokens:  tokens,
		members: members,
		log:     log,
	}
}

// Require verifies the bearer token, loads the member and injects the
// Identity. Unknown or inactive members fail as unauthorized, not as
// not-found, so the response does not leak account existence.
func (a *Authenticator) Require(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		identity, ok := a.authenticate(w, r)
		if !ok {
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next(w, r.WithContext(ctx), ps)
	}
}

// RequireStaff is Require plus a staff check.
func (a *Authenticator) RequireStaff(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		identity, ok := a.authenticate(w, r)
		if !ok {
			return
		}

		if !identity.IsStaff {
			a.log.Warn("Staff-only route denied",
				"request_id", requestIDFrom(r),
				"member_id", identity.MemberID,
				"path", r.URL.Path,
			)
			writeAuthError(w, http.StatusForbidden, "Forbidden")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next(w, r.WithContext(ctx), ps)
	}
}

func (a *Authenticator) authenticate(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		writeAuthError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
		return Identity{}, false
	}

	rawToken := strings.TrimSpace(authHeader[len("bearer "):])

	claims, err := a.tokens.Verify(rawToken)
	if err != nil {
		a.log.Warn("Access token rejected",
			"request_id", requestIDFrom(r),
			"error", err,
		)
		writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
		return Identity{}, false
	}

	member, err := a.members.FindByID(r.Context(), claims.MemberID)
	if err != nil || !member.IsActive {
		writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
		return Identity{}, false
	}

	return Identity{
		MemberID: member.ID,
		Email:    member.Email,
		IsStaff:  member.IsStaff || member.IsSuperuser,
	}, true
}

// IdentityFrom returns the caller attached by Require. The second return is
// false on unauthenticated routes.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// WithIdentity attaches an identity directly. Test hook.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
