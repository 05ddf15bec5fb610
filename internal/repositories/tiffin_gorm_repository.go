package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tiffin/internal/apperr"
	"tiffin/internal/models"
)

const tiffinNotFound = "Tiffin not found"

// GORMTiffinRepository is a GORM implementation of TiffinRepository.
type GORMTiffinRepository struct {
	db *gorm.DB
}

// NewGORMTiffinRepository creates a new instance of GORMTiffinRepository.
func NewGORMTiffinRepository(db *gorm.DB) *GORMTiffinRepository {
	return &GORMTiffinRepository{db: db}
}

// List returns catalog items, newest first.
func (r *GORMTiffinRepository) List(ctx context.Context, filter TiffinFilter) ([]models.Tiffin, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.AvailableOnly {
		q = q.Where("available = ?", true)
	}
	tiffins := []models.Tiffin{}
	if err := q.Find(&tiffins).Error; err != nil {
		return nil, storageErr(err, "failed to list tiffins")
	}
	return tiffins, nil
}

// GetByID retrieves a single tiffin.
func (r *GORMTiffinRepository) GetByID(ctx context.Context, id string) (*models.Tiffin, error) {
	var tiffin models.Tiffin
	if err := r.db.WithContext(ctx).First(&tiffin, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, tiffinNotFound)
	}
	return &tiffin, nil
}

// Create inserts a new tiffin with a generated ID.
func (r *GORMTiffinRepository) Create(ctx context.Context, tiffin *models.Tiffin) error {
	if tiffin.ID == "" {
		tiffin.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(tiffin).Error; err != nil {
		return storageErr(err, "failed to create tiffin")
	}
	return nil
}

// Update merges a change into an existing tiffin. Only what apply touches
// changes; the ID, order count and creation time are preserved. The write is
// a plain UPDATE, so a tiffin deleted after it was read stays deleted.
func (r *GORMTiffinRepository) Update(ctx context.Context, id string, apply func(*models.Tiffin)) (*models.Tiffin, error) {
	db := r.db.WithContext(ctx)
	var tiffin models.Tiffin
	if err := db.First(&tiffin, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, tiffinNotFound)
	}
	orders, created := tiffin.Orders, tiffin.CreatedAt
	apply(&tiffin)
	tiffin.ID, tiffin.Orders, tiffin.CreatedAt = id, orders, created

	res := db.Model(&models.Tiffin{}).
		Where("id = ?", id).
		Select("*").
		Omit("ID", "Orders", "CreatedAt").
		Updates(&tiffin)
	if res.Error != nil {
		return nil, storageErr(res.Error, "failed to update tiffin %s", id)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.KindNotFound, "%s", tiffinNotFound)
	}
	return &tiffin, nil
}

// Delete removes a tiffin for good and returns what was deleted.
func (r *GORMTiffinRepository) Delete(ctx context.Context, id string) (*models.Tiffin, error) {
	var tiffin models.Tiffin
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tiffin, "id = ?", id).Error; err != nil {
			return lookupErr(err, tiffinNotFound)
		}
		res := tx.Delete(&models.Tiffin{}, "id = ?", id)
		if res.Error != nil {
			return storageErr(res.Error, "failed to delete tiffin %s", id)
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.KindNotFound, "%s", tiffinNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tiffin, nil
}

// IncrementOrderCount atomically adds n to the cumulative order count.
func (r *GORMTiffinRepository) IncrementOrderCount(ctx context.Context, id string, n int) error {
	res := r.db.WithContext(ctx).Model(&models.Tiffin{}).
		Where("id = ?", id).
		UpdateColumn("orders", gorm.Expr("orders + ?", n))
	if res.Error != nil {
		return storageErr(res.Error, "failed to bump order count for tiffin %s", id)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "%s", tiffinNotFound)
	}
	return nil
}
