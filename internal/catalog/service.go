package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	dbpkg "github.com/oneclickretail/oneclick-backend/pkg/db"
	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	"github.com/oneclickretail/oneclick-backend/pkg/enums"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/ids"
	"github.com/oneclickretail/oneclick-backend/pkg/pagination"
)

const imageCategory = "products"

// fileStore is the subset of the upload store the catalog needs. *local.Store
// satisfies it.
type fileStore interface {
	Save(ctx context.Context, category, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, publicPaths ...string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the catalog operations for both the storefront and the
// admin surface.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, prodID string, input UpdateInput) (*models.Product, error)
	Approve(ctx context.Context, prodID string) (*models.Product, error)
	SetAvailability(ctx context.Context, prodID string, availability enums.ProductAvailability) (*models.Product, error)
	AddImages(ctx context.Context, prodID string, uploads []ImageUpload) (*models.Product, error)
	ReplaceImage(ctx context.Context, prodID string, index int, upload ImageUpload) (*models.Product, error)
	DeleteImage(ctx context.Context, prodID string, index int) (*models.Product, error)
	List(ctx context.Context, category string, params pagination.Params, includeDrafts bool) (*ProductList, error)
	Get(ctx context.Context, prodID string, includeDrafts bool) (*ProductDetail, error)
	Delete(ctx context.Context, prodID string) error
}

type service struct {
	repo  Repository
	tx    txRunner
	files fileStore
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository, tx txRunner, store fileStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("catalog tx runner required")
	}
	if store == nil {
		return nil, fmt.Errorf("catalog file store required")
	}
	return &service{
		repo:  repo,
		tx:    tx,
		files: store,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	category, err := categoryOf(input.Category)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown product category")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be positive")
	}
	if len(input.Images) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one product image required")
	}

	saved, err := s.saveUploads(ctx, input.Images)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:                  uuid.New(),
		Name:                input.Name,
		Category:            category,
		Description:         input.Description,
		PriceCents:          input.PriceCents,
		ListPriceCents:      input.ListPriceCents,
		DeliveryChargeCents: input.DeliveryChargeCents,
		Status:              enums.ProductStatusDraft,
		Availability:        enums.ProductAvailabilityInStock,
		Images:              saved,
		AccessoryProdIDs:    pq.StringArray(input.AccessoryProdIDs),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.insertWithProdID(ctx, repo, product); err != nil {
			return err
		}
		if features := applyFeatures(*product, input.Features); features != nil {
			if err := repo.UpsertFeatures(ctx, features); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product features")
			}
			product.Features = features
		}
		return nil
	})
	if err != nil {
		_ = s.files.Delete(ctx, saved...)
		return nil, err
	}
	return product, nil
}

// insertWithProdID retries on prod_id collisions up to the shared attempt
// budget.
func (s *service) insertWithProdID(ctx context.Context, repo Repository, product *models.Product) error {
	for attempt := 0; attempt < ids.MaxInsertAttempts; attempt++ {
		product.ProdID = ids.NewBusinessID(ids.ProductPrefix)
		err := repo.Create(ctx, product)
		if err == nil {
			return nil
		}
		if dbpkg.IsUniqueViolation(err, "products_prod_id_key") {
			continue
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert product")
	}
	return pkgerrors.New(pkgerrors.CodeDependency, "could not allocate product id")
}

func (s *service) Update(ctx context.Context, prodID string, input UpdateInput) (*models.Product, error) {
	product, err := s.findProduct(ctx, prodID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
		}
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be positive")
		}
		updates["price_cents"] = *input.PriceCents
	}
	if input.ListPriceCents != nil {
		updates["list_price_cents"] = *input.ListPriceCents
	}
	if input.DeliveryChargeCents != nil {
		updates["delivery_charge_cents"] = *input.DeliveryChargeCents
	}
	if input.Availability != nil {
		availability := enums.ProductAvailability(*input.Availability)
		if availability != enums.ProductAvailabilityInStock && availability != enums.ProductAvailabilityOutOfStock {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown availability value")
		}
		updates["availability"] = availability
	}
	if input.ClearOffer {
		updates["offer_price_cents"] = nil
		updates["offer_starts_at"] = nil
		updates["offer_ends_at"] = nil
	} else if input.OfferPriceCents != nil {
		if *input.OfferPriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer price must be positive")
		}
		updates["offer_price_cents"] = *input.OfferPriceCents
		updates["offer_starts_at"] = input.OfferStartsAt
		updates["offer_ends_at"] = input.OfferEndsAt
	}
	if input.AccessoryProdIDs != nil {
		updates["accessory_prod_ids"] = pq.StringArray(input.AccessoryProdIDs)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if len(updates) > 0 {
			if err := repo.UpdateFields(ctx, product.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
			}
		}
		if features := applyFeatures(*product, input.Features); features != nil {
			if err := repo.UpsertFeatures(ctx, features); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product features")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.findProduct(ctx, prodID)
}

func (s *service) Approve(ctx context.Context, prodID string) (*models.Product, error) {
	product, err := s.findProduct(ctx, prodID)
	if err != nil {
		return nil, err
	}
	if product.Status == enums.ProductStatusApproved {
		return product, nil
	}
	err = s.repo.UpdateFields(ctx, product.ID, map[string]any{"status": enums.ProductStatusApproved})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve product")
	}
	product.Status = enums.ProductStatusApproved
	return product, nil
}

func (s *service) SetAvailability(ctx context.Context, prodID string, availability enums.ProductAvailability) (*models.Product, error) {
	if availability != enums.ProductAvailabilityInStock && availability != enums.ProductAvailabilityOutOfStock {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown availability value")
	}
	product, err := s.findProduct(ctx, prodID)
	if err != nil {
		return nil, err
	}
	err = s.repo.UpdateFields(ctx, product.ID, map[string]any{"availability": availability})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update availability")
	}
	product.Availability = availability
	return product, nil
}

func (s *service) AddImages(ctx context.Context, prodID string, uploads []ImageUpload) (*models.Product, error) {
	if len(uploads) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one image required")
	}
	product, err := s.findProduct(ctx, prodID)
	if err != nil {
		return nil, err
	}
	saved, err := s.saveUploads(ctx, uploads)
	if err != nil {
		return nil, err
	}
	images := append(pq.StringArray{}, product.Images...)
	images = append(images, saved...)
	if err := s.repo.UpdateImages(ctx, product.ID, images); err != nil {
		_ = s.files.Delete(ctx, saved...)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append product images")
	}
	product.Images = images
	return product, nil
}

// ReplaceImage swaps the image at the given position for a new upload. The
// previous file is removed best effort after the row update lands.
func (s *service) ReplaceImage(ctx context.Context, prodID string, index int, upload ImageUpload) (*models.Product, error) {
	product, err := s.findProduct(ctx, prodID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(product.Images) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid image index.")
	}

	saved, err := s.saveUploads(ctx, []ImageUpload{upload})
	if err != nil {
		return nil, err
	}

	previous := product.Images[index]
	images := append(pq.StringArray{}, product.Images...)
	images[index] = saved[0]
	if err := s.repo.UpdateImages(ctx, product.ID, images); err != nil {
		_ = s.files.Delete(ctx, saved...)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace product image")
	}
	_ = s.files.Delete(ctx, previous)
	product.Images = images
	return product, nil
}

// DeleteImage removes the image at the given position and compacts the
// slice, so the remaining indices stay contiguous.
func (s *service) DeleteImage(ctx context.Context, prodID string, index int) (*models.Product, error) {
	product, err := s.findProduct(ctx, prodID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(product.Images) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid image index.")
	}

	removed := product.Images[index]
	images := append(pq.StringArray{}, product.Images[:index]...)
	images = append(images, product.Images[index+1:]...)
	if err := s.repo.UpdateImages(ctx, product.ID, images); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product image")
	}
	_ = s.files.Delete(ctx, removed)
	product.Images = images
	return product, nil
}

func (s *service) List(ctx context.Context, category string, params pagination.Params, includeDrafts bool) (*ProductList, error) {
	filters := ListFilters{ApprovedOnly: !includeDrafts}
	if category != "" {
		parsed, err := categoryOf(category)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown product category")
		}
		filters.Category = parsed
	}
	list, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, prodID string, includeDrafts bool) (*ProductDetail, error) {
	product, err := s.findProduct(ctx, prodID)
	if err != nil {
		return nil, err
	}
	if !includeDrafts && product.Status != enums.ProductStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	detail := &ProductDetail{Product: *product}
	if len(product.AccessoryProdIDs) > 0 {
		accessories, err := s.repo.FindManyByProdIDs(ctx, product.AccessoryProdIDs)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load accessories")
		}
		detail.Accessories = accessories
	}
	return detail, nil
}

func (s *service) Delete(ctx context.Context, prodID string) error {
	product, err := s.findProduct(ctx, prodID)
	if err != nil {
		return err
	}
	affected, err := s.repo.Delete(ctx, prodID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	_ = s.files.Delete(ctx, product.Images...)
	return nil
}

func (s *service) findProduct(ctx context.Context, prodID string) (*models.Product, error) {
	if prodID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByProdID(ctx, prodID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// saveUploads persists every upload, rolling back already written files when
// a later one fails.
func (s *service) saveUploads(ctx context.Context, uploads []ImageUpload) (pq.StringArray, error) {
	saved := make(pq.StringArray, 0, len(uploads))
	for _, upload := range uploads {
		path, err := s.files.Save(ctx, imageCategory, upload.Filename, upload.Reader)
		if err != nil {
			_ = s.files.Delete(ctx, saved...)
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "store product image")
		}
		saved = append(saved, path)
	}
	return saved, nil
}
