package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"tiffin/internal/apperr"
	"tiffin/internal/config"
	"tiffin/internal/identity"
	"tiffin/internal/models"
	"tiffin/internal/repositories"
)

// Policy names the access requirement of a route.
type Policy int

const (
	// PolicyPublic lets anyone through.
	PolicyPublic Policy = iota
	// PolicyVerified needs a valid credential but no local user record.
	PolicyVerified
	// PolicyMember needs a valid credential and a local user record.
	PolicyMember
	// PolicyAdmin needs a member who matches the administrator designation.
	PolicyAdmin
)

func (p Policy) String() string {
	switch p {
	case PolicyPublic:
		return "public"
	case PolicyVerified:
		return "verified"
	case PolicyMember:
		return "member"
	case PolicyAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Caller is the outcome of a successful authorization.
type Caller struct {
	Identity *identity.Identity
	User     *models.User
	Admin    bool
}

// AuthService authorizes requests. It never writes to storage.
type AuthService struct {
	verifier identity.Verifier
	users    repositories.UserRepository
	admin    config.AdminConfig
	log      logrus.FieldLogger
}

// NewAuthService creates a new AuthService. A nil verifier is allowed and
// makes every protected route fail as misconfigured.
func NewAuthService(verifier identity.Verifier, users repositories.UserRepository, admin config.AdminConfig, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		verifier: verifier,
		users:    users,
		admin:    admin,
		log:      log,
	}
}

// Authorize checks the Authorization header against policy.
func (s *AuthService) Authorize(ctx context.Context, authHeader string, policy Policy) (*Caller, error) {
	if policy == PolicyPublic {
		return &Caller{}, nil
	}
	if s.verifier == nil {
		s.log.Error("identity verifier is not configured")
		return nil, apperr.New(apperr.KindServerMisconfigured, "Server configuration error.")
	}
	if policy == PolicyAdmin && !s.admin.Configured() {
		s.log.Error("administrator designation is not configured")
		return nil, apperr.New(apperr.KindServerMisconfigured, "Server configuration error.")
	}

	token, err := BearerToken(authHeader)
	if err != nil {
		return nil, err
	}
	ident, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	caller := &Caller{Identity: ident}
	if policy == PolicyVerified {
		return caller, nil
	}

	user, err := s.users.GetByFirebaseUID(ctx, ident.Subject)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.New(apperr.KindUnknownIdentity, "User not found.")
		}
		return nil, err
	}
	caller.User = user
	caller.Admin = s.IsAdmin(user)

	if policy == PolicyAdmin && !caller.Admin {
		return nil, apperr.New(apperr.KindInsufficientPrivilege, "Access denied. Admin privileges required.")
	}
	return caller, nil
}

// IsAdmin compares a user against the administrator designation. An email
// match only counts when the identity authority verified that email.
func (s *AuthService) IsAdmin(user *models.User) bool {
	if user == nil {
		return false
	}
	if s.admin.TrustRole && user.Role == models.RoleAdmin {
		return true
	}
	return user.EmailVerified && s.admin.Designates(user.Email)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", apperr.New(apperr.KindMissingCredential, "Authorization header is missing or invalid.")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", apperr.New(apperr.KindMissingCredential, "Authorization header is missing or invalid.")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperr.New(apperr.KindMissingCredential, "Bearer token is missing.")
	}
	return token, nil
}
