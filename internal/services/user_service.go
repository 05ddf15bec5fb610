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
	"tiffin/internal/validation"
)

// UserService handles the identity exchange and profile management.
type UserService struct {
	repo  repositories.UserRepository
	admin config.AdminConfig
	log   logrus.FieldLogger
}

// NewUserService creates a new UserService. admin is used to refuse
// self-asserted administrator emails.
func NewUserService(repo repositories.UserRepository, admin config.AdminConfig, log logrus.FieldLogger) *UserService {
	return &UserService{repo: repo, admin: admin, log: log}
}

// Upsert returns the user for the verified subject, creating it on the
// first exchange. The bool reports whether a record was created.
//
// The stored email is only marked verified when it came from the credential
// and the authority vouched for it. An email from the body is never
// verified, and a body email on the administrator list is refused.
func (s *UserService) Upsert(ctx context.Context, ident *identity.Identity, in *validation.UserUpsert) (*models.User, bool, error) {
	if in.FirebaseUID != "" && in.FirebaseUID != ident.Subject {
		return nil, false, apperr.New(apperr.KindInsufficientPrivilege, "firebaseUid does not match the credential")
	}

	existing, err := s.repo.GetByFirebaseUID(ctx, ident.Subject)
	if err == nil {
		return s.refreshVerification(ctx, existing, ident)
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, false, err
	}

	email := normalizeEmail(ident.Email)
	verified := email != "" && ident.EmailVerified
	if email == "" {
		email = normalizeEmail(in.Email)
		if s.admin.Designates(email) {
			s.log.WithField("subject", ident.Subject).Warn("refused unverified administrator email")
			return nil, false, apperr.New(apperr.KindInsufficientPrivilege, "Email must be verified by the identity provider.")
		}
	}
	if email == "" {
		return nil, false, apperr.Validation([]apperr.FieldError{{Field: "email", Message: "is required"}})
	}

	user := &models.User{
		FirebaseUID:   ident.Subject,
		Email:         email,
		EmailVerified: verified,
		Name:          in.Name,
		Role:          models.RoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if !apperr.Is(err, apperr.KindConstraint) {
			return nil, false, err
		}
		// A concurrent exchange for the same subject may have won the insert.
		if raced, getErr := s.repo.GetByFirebaseUID(ctx, ident.Subject); getErr == nil {
			return raced, false, nil
		}
		return nil, false, apperr.Wrap(apperr.KindConstraint, err, "Email is already registered")
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "email_verified": verified}).Info("user created")
	return user, true, nil
}

// refreshVerification marks an existing user's email verified once a
// credential vouches for that same email.
func (s *UserService) refreshVerification(ctx context.Context, user *models.User, ident *identity.Identity) (*models.User, bool, error) {
	if user.EmailVerified || !ident.EmailVerified || normalizeEmail(ident.Email) != user.Email {
		return user, false, nil
	}
	updated, err := s.repo.Update(ctx, user.ID, func(u *models.User) { u.EmailVerified = true })
	if err != nil {
		return nil, false, err
	}
	s.log.WithField("user_id", user.ID).Info("user email verified")
	return updated, false, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetByFirebaseUID looks a user up by identity subject.
func (s *UserService) GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	return s.repo.GetByFirebaseUID(ctx, uid)
}

// ListUsers returns every user, newest first.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}

// UpdateProfile applies a self-service profile change.
func (s *UserService) UpdateProfile(ctx context.Context, id string, in *validation.UserUpdate) (*models.User, error) {
	return s.repo.Update(ctx, id, in.Apply)
}
