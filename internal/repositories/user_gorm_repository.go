package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tiffin/internal/apperr"
	"tiffin/internal/models"
)

const userNotFound = "User not found"

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{db: db}
}

// Create inserts a user. The unique indexes on firebase_uid and email make a
// duplicate surface as a constraint error.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return storageErr(err, "failed to create user")
	}
	return nil
}

// GetByFirebaseUID retrieves a user by their external identity subject.
func (r *GORMUserRepository) GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "firebase_uid = ?", uid).Error; err != nil {
		return nil, lookupErr(err, userNotFound)
	}
	return &user, nil
}

// List returns every user, newest first.
func (r *GORMUserRepository) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, storageErr(err, "failed to list users")
	}
	return users, nil
}

// Update loads the user, applies the change and writes it back. Identity
// fields and role are never written. A user removed after it was read is
// reported as not found rather than recreated.
func (r *GORMUserRepository) Update(ctx context.Context, id string, apply func(*models.User)) (*models.User, error) {
	db := r.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, userNotFound)
	}
	uid, email, role, created := user.FirebaseUID, user.Email, user.Role, user.CreatedAt
	apply(&user)
	user.ID, user.FirebaseUID, user.Email, user.Role, user.CreatedAt = id, uid, email, role, created

	res := db.Model(&models.User{}).
		Where("id = ?", id).
		Select("*").
		Omit("ID", "FirebaseUID", "Email", "Role", "CreatedAt").
		Updates(&user)
	if res.Error != nil {
		return nil, storageErr(res.Error, "failed to update user %s", id)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.KindNotFound, "%s", userNotFound)
	}
	return &user, nil
}
