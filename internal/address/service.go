package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/oneclickretail/oneclick-backend/pkg/db"
	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddressInput carries the mutable address-book fields.
type AddressInput struct {
	Name    string
	Phone   string
	Line1   string
	Line2   *string
	City    string
	State   string
	Pincode string
}

// Service manages a customer's address book and the current-flag invariant.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.UserAddress, error)
	Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.UserAddress, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*models.UserAddress, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	MakeCurrent(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an address service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.UserAddress, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.UserAddress, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	row := &models.UserAddress{
		ID:      uuid.New(),
		UserID:  userID,
		Name:    strings.TrimSpace(input.Name),
		Phone:   strings.TrimSpace(input.Phone),
		Line1:   strings.TrimSpace(input.Line1),
		Line2:   input.Line2,
		City:    strings.TrimSpace(input.City),
		State:   strings.TrimSpace(input.State),
		Pincode: strings.TrimSpace(input.Pincode),
	}

	// First address in the book becomes current automatically.
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.ListByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
		}
		row.IsCurrent = len(existing) == 0
		if err := repo.Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*models.UserAddress, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if addressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	row, err := s.repo.FindByID(ctx, userID, addressID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}

	row.Name = strings.TrimSpace(input.Name)
	row.Phone = strings.TrimSpace(input.Phone)
	row.Line1 = strings.TrimSpace(input.Line1)
	row.Line2 = input.Line2
	row.City = strings.TrimSpace(input.City)
	row.State = strings.TrimSpace(input.State)
	row.Pincode = strings.TrimSpace(input.Pincode)

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}
	return row, nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	affected, err := s.repo.Delete(ctx, userID, addressID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

const makeCurrentMaxRetries = 3

// MakeCurrent clears the flag across the user's book and sets it on the
// target inside one transaction, leaving exactly one current address. A
// partial unique index on (user_id) WHERE is_current backstops the
// invariant; if two calls race, the loser hits the index and the
// transaction is retried against the committed state.
func (s *service) MakeCurrent(ctx context.Context, userID, addressID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if addressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}

	var err error
	for attempt := 0; attempt < makeCurrentMaxRetries; attempt++ {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := repo.ClearCurrent(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear current address")
			}
			affected, err := repo.SetCurrent(ctx, userID, addressID)
			if err != nil {
				return err
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return nil
		})
		if err == nil {
			return nil
		}
		if !dbpkg.IsUniqueViolation(err, "idx_user_addresses_one_current") {
			break
		}
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set current address")
}

func validateInput(input AddressInput) error {
	missing := []string{}
	for field, value := range map[string]string{
		"name":    input.Name,
		"phone":   input.Phone,
		"line1":   input.Line1,
		"city":    input.City,
		"state":   input.State,
		"pincode": input.Pincode,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "address fields missing").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}
