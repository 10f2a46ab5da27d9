package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Skotchmaster/marketplace/services/catalog/internal/models"
	"github.com/Skotchmaster/marketplace/services/catalog/internal/repo"
	"github.com/Skotchmaster/marketplace/services/catalog/internal/transport"
)

var ErrInvalidPrice = errors.New("price cannot be negative")

type CatalogService struct {
	Repo *repo.GormRepo
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.Repo.GetProduct(ctx, id)
}

func (s *CatalogService) GetUserProducts(ctx context.Context, ownerID uuid.UUID) ([]models.Product, error) {
	return s.Repo.GetUserProducts(ctx, ownerID)
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.Price < 0 {
		return nil, ErrInvalidPrice
	}
	return s.Repo.CreateProduct(ctx, product)
}

func (s *CatalogService) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id uuid.UUID) (*models.Product, error) {
	if req.Price != nil && *req.Price < 0 {
		return nil, ErrInvalidPrice
	}
	return s.Repo.PatchProduct(ctx, req, id)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.Repo.DeleteProduct(ctx, id)
}

// MarkOwnerProductsUnavailable backs the deactivation cascade from the user
// service.
func (s *CatalogService) MarkOwnerProductsUnavailable(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	return s.Repo.MarkOwnerProductsUnavailable(ctx, ownerID)
}
