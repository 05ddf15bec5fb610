package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tiffin/internal/apperr"
	"tiffin/internal/identity"
	"tiffin/internal/models"
	"tiffin/internal/services"
	"tiffin/internal/validation"
)

func TestUserService_UpsertCreatesFromCredential(t *testing.T) {
	repo := new(MockUserRepository)
	userService := services.NewUserService(repo, adminConfig, quietLogger())

	repo.On("GetByFirebaseUID", mock.Anything, "uid-1").Return(nil, apperr.New(apperr.KindNotFound, "User not found")).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.FirebaseUID == "uid-1" && u.Email == "asha@example.com" && u.EmailVerified && u.Role == models.RoleUser
	})).Return(nil).Once()

	user, created, err := userService.Upsert(context.Background(),
		&identity.Identity{Subject: "uid-1", Email: " Asha@Example.com ", EmailVerified: true},
		&validation.UserUpsert{Email: "ignored@example.com", Name: "Asha"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Asha", user.Name)
	repo.AssertExpectations(t)
}

func TestUserService_UpsertReturnsExisting(t *testing.T) {
	repo := new(MockUserRepository)
	userService := services.NewUserService(repo, adminConfig, quietLogger())

	existing := &models.User{ID: "u1", FirebaseUID: "uid-1", Email: "asha@example.com"}
	repo.On("GetByFirebaseUID", mock.Anything, "uid-1").Return(existing, nil).Twice()

	for i := 0; i < 2; i++ {
		user, created, err := userService.Upsert(context.Background(), &identity.Identity{Subject: "uid-1"}, &validation.UserUpsert{})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, existing, user)
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_UpsertRejectsForeignSubject(t *testing.T) {
	repo := new(MockUserRepository)
	userService := services.NewUserService(repo, adminConfig, quietLogger())

	_, _, err := userService.Upsert(context.Background(), &identity.Identity{Subject: "uid-1"}, &validation.UserUpsert{FirebaseUID: "uid-2"})
	assert.Equal(t, apperr.KindInsufficientPrivilege, apperr.KindOf(err))
	repo.AssertNotCalled(t, "GetByFirebaseUID", mock.Anything, mock.Anything)
}

func TestUserService_UpsertNeedsEmail(t *testing.T) {
	repo := new(MockUserRepository)
	userService := services.NewUserService(repo, adminConfig, quietLogger())

	repo.On("GetByFirebaseUID", mock.Anything, "uid-1").Return(nil, apperr.New(apperr.KindNotFound, "User not found")).Once()

	_, _, err := userService.Upsert(context.Background(), &identity.Identity{Subject: "uid-1"}, &validation.UserUpsert{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUserService_UpsertBodyEmailIsUnverified(t *testing.T) {
	repo := new(MockUserRepository)
	userService := services.NewUserService(repo, adminConfig, quietLogger())

	repo.On("GetByFirebaseUID", mock.Anything, "uid-1").Return(nil, apperr.New(apperr.KindNotFound, "User not found")).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "asha@example.com" && !u.EmailVerified
	})).Return(nil).Once()

	user, created, err := userService.Upsert(context.Background(), &identity.Identity{Subject: "uid-1"}, &validation.UserUpsert{Email: "asha@example.com"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, user.EmailVerified)
	repo.AssertExpectations(t)
}

func TestUserService_UpsertRefusesBodyAdminEmail(t *testing.T) {
	repo := new(MockUserRepository)
	userService := services.NewUserService(repo, adminConfig, quietLogger())

	repo.On("GetByFirebaseUID", mock.Anything, "uid-1").Return(nil, apperr.New(apperr.KindNotFound, "User not found")).Once()

	_, _, err := userService.Upsert(context.Background(), &identity.Identity{Subject: "uid-1"}, &validation.UserUpsert{Email: "ADMIN@example.com"})
	assert.Equal(t, apperr.KindInsufficientPrivilege, apperr.KindOf(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_UpsertUnverifiedCredentialEmail(t *testing.T) {
	repo := new(MockUserRepository)
	userService := services.NewUserService(repo, adminConfig, quietLogger())

	repo.On("GetByFirebaseUID", mock.Anything, "uid-1").Return(nil, apperr.New(apperr.KindNotFound, "User not found")).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "admin@example.com" && !u.EmailVerified
	})).Return(nil).Once()

	user, _, err := userService.Upsert(context.Background(),
		&identity.Identity{Subject: "uid-1", Email: "admin@example.com", EmailVerified: false},
		&validation.UserUpsert{})
	require.NoError(t, err)
	assert.False(t, user.EmailVerified)

	authService := services.NewAuthService(new(MockVerifier), repo, adminConfig, quietLogger())
	assert.False(t, authService.IsAdmin(user))
}

func TestUserService_UpsertMarksEmailVerifiedLater(t *testing.T) {
	repo := new(MockUserRepository)
	userService := services.NewUserService(repo, adminConfig, quietLogger())

	existing := &models.User{ID: "u1", FirebaseUID: "uid-1", Email: "asha@example.com"}
	repo.On("GetByFirebaseUID", mock.Anything, "uid-1").Return(existing, nil)
	repo.On("Update", mock.Anything, "u1", mock.Anything).Return(existing, nil).Once()

	user, created, err := userService.Upsert(context.Background(),
		&identity.Identity{Subject: "uid-1", Email: "Asha@example.com", EmailVerified: true},
		&validation.UserUpsert{})
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, user.EmailVerified)

	// A verified credential for a different email changes nothing.
	_, _, err = userService.Upsert(context.Background(),
		&identity.Identity{Subject: "uid-1", Email: "other@example.com", EmailVerified: true},
		&validation.UserUpsert{})
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Update", 1)
}

func TestUserService_UpsertLosesRace(t *testing.T) {
	repo := new(MockUserRepository)
	userService := services.NewUserService(repo, adminConfig, quietLogger())

	winner := &models.User{ID: "u1", FirebaseUID: "uid-1", Email: "a@example.com"}
	repo.On("GetByFirebaseUID", mock.Anything, "uid-1").Return(nil, apperr.New(apperr.KindNotFound, "User not found")).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(apperr.New(apperr.KindConstraint, "Record already exists")).Once()
	repo.On("GetByFirebaseUID", mock.Anything, "uid-1").Return(winner, nil).Once()

	user, created, err := userService.Upsert(context.Background(), &identity.Identity{Subject: "uid-1", Email: "a@example.com"}, &validation.UserUpsert{})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner, user)
}

func TestUserService_UpdateProfile(t *testing.T) {
	repo := new(MockUserRepository)
	userService := services.NewUserService(repo, adminConfig, quietLogger())

	stored := &models.User{ID: "u1", Name: "Old", Email: "a@example.com"}
	repo.On("Update", mock.Anything, "u1", mock.Anything).Return(stored, nil).Once()

	name := "New"
	spice := "mild"
	user, err := userService.UpdateProfile(context.Background(), "u1", &validation.UserUpdate{
		Name:        &name,
		Preferences: &validation.PreferencesInput{Dietary: []string{"veg", "veg", "jain"}, SpiceLevel: &spice},
	})
	require.NoError(t, err)
	assert.Equal(t, "New", user.Name)
	assert.Equal(t, []string{"veg", "jain"}, user.Preferences.Dietary)
	assert.Equal(t, "mild", user.Preferences.SpiceLevel)
	assert.Equal(t, "a@example.com", user.Email)
}
