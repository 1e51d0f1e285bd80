package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oneclickretail/oneclick-backend/internal/catalog"
	dbpkg "github.com/oneclickretail/oneclick-backend/pkg/db"
	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	"github.com/oneclickretail/oneclick-backend/pkg/enums"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
)

// Service exposes the wishlist operations. Adding the same product twice
// is a no-op rather than an error.
type Service interface {
	Add(ctx context.Context, userID uuid.UUID, prodID string) error
	Remove(ctx context.Context, userID uuid.UUID, prodID string) error
	List(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
}

type service struct {
	repo    Repository
	catalog catalog.Repository
}

// NewService builds a wishlist service with the required dependencies.
func NewService(repo Repository, catalogRepo catalog.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, catalog: catalogRepo}, nil
}

func (s *service) Add(ctx context.Context, userID uuid.UUID, prodID string) error {
	product, err := s.findProduct(ctx, prodID)
	if err != nil {
		return err
	}
	insertErr := s.repo.Insert(ctx, &models.WishlistItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: product.ID,
	})
	if insertErr == nil {
		return nil
	}
	if dbpkg.IsUniqueViolation(insertErr, "wishlist_items_user_product_key") {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, insertErr, "insert wishlist entry")
}

func (s *service) Remove(ctx context.Context, userID uuid.UUID, prodID string) error {
	product, err := s.findProduct(ctx, prodID)
	if err != nil {
		return err
	}
	affected, err := s.repo.Remove(ctx, userID, product.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist entry")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not in wishlist")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	return items, nil
}

func (s *service) findProduct(ctx context.Context, prodID string) (*models.Product, error) {
	if prodID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.catalog.FindByProdID(ctx, prodID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.Status != enums.ProductStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}
