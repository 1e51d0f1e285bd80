package cart

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

const maxLineQuantity = 10

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Cart is a customer's cart with precomputed money totals.
type Cart struct {
	Items         []models.CartItem
	SubtotalCents int64
	DeliveryCents int64
	TotalCents    int64
}

// Service exposes the cart operations.
type Service interface {
	Add(ctx context.Context, userID uuid.UUID, prodID string, quantity int) (*Cart, error)
	SetQuantity(ctx context.Context, userID uuid.UUID, prodID string, quantity int) (*Cart, error)
	Remove(ctx context.Context, userID uuid.UUID, prodID string) (*Cart, error)
	Get(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	tx      txRunner
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, catalogRepo catalog.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("cart tx runner required")
	}
	return &service{repo: repo, catalog: catalogRepo, tx: tx}, nil
}

// Add inserts a new line or bumps the quantity of an existing one. The
// composite unique key on (user_id, product_id) keeps concurrent adds from
// producing duplicate lines.
func (s *service) Add(ctx context.Context, userID uuid.UUID, prodID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		quantity = 1
	}
	if quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-item limit")
	}
	product, err := s.orderableProduct(ctx, prodID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindLine(ctx, userID, product.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		if existing != nil {
			next := existing.Quantity + quantity
			if next > maxLineQuantity {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-item limit")
			}
			if _, err := repo.UpdateQuantity(ctx, userID, product.ID, next); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
			}
			return nil
		}
		insertErr := repo.Insert(ctx, &models.CartItem{
			ID:        uuid.New(),
			UserID:    userID,
			ProductID: product.ID,
			Quantity:  quantity,
		})
		if insertErr == nil {
			return nil
		}
		if dbpkg.IsUniqueViolation(insertErr, "cart_items_user_product_key") {
			return pkgerrors.New(pkgerrors.CodeConflict, "item already in cart")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, insertErr, "insert cart line")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) SetQuantity(ctx context.Context, userID uuid.UUID, prodID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-item limit")
	}
	product, err := s.findProduct(ctx, prodID)
	if err != nil {
		return nil, err
	}
	affected, err := s.repo.UpdateQuantity(ctx, userID, product.ID, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return s.Get(ctx, userID)
}

func (s *service) Remove(ctx context.Context, userID uuid.UUID, prodID string) (*Cart, error) {
	product, err := s.findProduct(ctx, prodID)
	if err != nil {
		return nil, err
	}
	affected, err := s.repo.Remove(ctx, userID, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return s.Get(ctx, userID)
}

// Get returns the cart with totals. Delivery is charged once per distinct
// line, matching the per-product delivery charge on the listing.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	cart := &Cart{Items: items}
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		cart.SubtotalCents += item.Product.PriceCents * int64(item.Quantity)
		cart.DeliveryCents += item.Product.DeliveryChargeCents
	}
	cart.TotalCents = cart.SubtotalCents + cart.DeliveryCents
	return cart, nil
}

// Clear empties the cart, joining the caller's transaction when one is
// passed. Order placement calls this after the order lands.
func (s *service) Clear(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	repo := s.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	if err := repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
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
	return product, nil
}

func (s *service) orderableProduct(ctx context.Context, prodID string) (*models.Product, error) {
	product, err := s.findProduct(ctx, prodID)
	if err != nil {
		return nil, err
	}
	if product.Status != enums.ProductStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if product.Availability != enums.ProductAvailabilityInStock {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is out of stock")
	}
	return product, nil
}
