package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/validation"
)

// TiffinService handles business logic related to the catalog.
type TiffinService struct {
	repo repositories.TiffinRepository
	log  logrus.FieldLogger
}

// NewTiffinService creates a new TiffinService.
func NewTiffinService(repo repositories.TiffinRepository, log logrus.FieldLogger) *TiffinService {
	return &TiffinService{repo: repo, log: log}
}

// ListAvailable returns the public catalog.
func (s *TiffinService) ListAvailable(ctx context.Context) ([]models.Tiffin, error) {
	return s.repo.List(ctx, repositories.TiffinFilter{AvailableOnly: true})
}

// ListAll includes unavailable items.
func (s *TiffinService) ListAll(ctx context.Context) ([]models.Tiffin, error) {
	return s.repo.List(ctx, repositories.TiffinFilter{})
}

// GetTiffin retrieves a single tiffin by its ID.
func (s *TiffinService) GetTiffin(ctx context.Context, id string) (*models.Tiffin, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateTiffin adds a validated item to the catalog.
func (s *TiffinService) CreateTiffin(ctx context.Context, in *validation.TiffinCreate) (*models.Tiffin, error) {
	tiffin := in.Tiffin()
	if err := s.repo.Create(ctx, tiffin); err != nil {
		return nil, err
	}
	s.log.WithField("tiffin_id", tiffin.ID).Info("tiffin created")
	return tiffin, nil
}

// UpdateTiffin merges the fields present in the update into the stored item.
func (s *TiffinService) UpdateTiffin(ctx context.Context, id string, in *validation.TiffinUpdate) (*models.Tiffin, error) {
	tiffin, err := s.repo.Update(ctx, id, in.Apply)
	if err != nil {
		return nil, err
	}
	s.log.WithField("tiffin_id", id).Info("tiffin updated")
	return tiffin, nil
}

// DeleteTiffin removes an item and returns it.
func (s *TiffinService) DeleteTiffin(ctx context.Context, id string) (*models.Tiffin, error) {
	tiffin, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.WithField("tiffin_id", id).Info("tiffin deleted")
	return tiffin, nil
}
