package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oneclickretail/oneclick-backend/internal/notifications"
	"github.com/oneclickretail/oneclick-backend/pkg/auth"
	"github.com/oneclickretail/oneclick-backend/pkg/config"
	dbpkg "github.com/oneclickretail/oneclick-backend/pkg/db"
	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	"github.com/oneclickretail/oneclick-backend/pkg/enums"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/outbox"
	"github.com/oneclickretail/oneclick-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// LoginInput carries a customer login attempt.
type LoginInput struct {
	Email    string
	Password string
}

// StaffLoginInput carries an admin-panel login attempt.
type StaffLoginInput struct {
	Username string
	Password string
}

// AuthResult bundles the minted token with the authenticated account.
type AuthResult struct {
	AccessToken string
	User        *models.User
	Staff       *models.StaffAccount
}

// Service defines account registration and authentication.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	StaffLogin(ctx context.Context, input StaffLoginInput) (*AuthResult, error)
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type service struct {
	repo          Repository
	tx            txRunner
	outbox        outboxPublisher
	notifications notifications.Service
	jwtCfg        config.JWTConfig
	passwordCfg   config.PasswordConfig
	hashPassword  func(password string, cfg config.PasswordConfig) (string, error)
	verify        func(password, encoded string) (bool, error)
	now           func() time.Time
}

// NewService builds a users service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	notificationSvc notifications.Service,
	jwtCfg config.JWTConfig,
	passwordCfg config.PasswordConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if notificationSvc == nil {
		return nil, fmt.Errorf("notification service required")
	}
	return &service{
		repo:          repo,
		tx:            tx,
		outbox:        outboxSvc,
		notifications: notificationSvc,
		jwtCfg:        jwtCfg,
		passwordCfg:   passwordCfg,
		hashPassword:  security.HashPassword,
		verify:        security.VerifyPassword,
		now:           time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)

	if input.Username == "" || input.Email == "" || input.Phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username, email and phone are required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := s.hashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: hash,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateUser(ctx, user); err != nil {
			if conflictErr := mapUserConflict(err); conflictErr != nil {
				return conflictErr
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		message := fmt.Sprintf("New user %s signed up", user.Username)
		if err := s.notifications.Create(ctx, tx, enums.NotificationTypeSignup, message); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserRegistered,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: user.ID, Role: enums.RoleCustomer.String()},
			Data: outbox.UserRegisteredData{
				UserID:   user.ID.String(),
				Username: user.Username,
				Email:    user.Email,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	token, err := s.mintToken(user.ID, enums.RoleCustomer)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: token, User: user}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := s.verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.mintToken(user.ID, enums.RoleCustomer)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: token, User: user}, nil
}

func (s *service) StaffLogin(ctx context.Context, input StaffLoginInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	staff, err := s.repo.FindStaffByUsername(ctx, username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load staff account")
	}

	ok, err := s.verify(input.Password, staff.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.mintToken(staff.ID, staff.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: token, Staff: staff}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) mintToken(subjectID uuid.UUID, role enums.ActorRole) (string, error) {
	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID: subjectID,
		Role:   role,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return token, nil
}

// mapUserConflict resolves a unique violation to the conflicting signup
// field. Both the postgres constraint name and the sqlite message carry the
// column name.
func mapUserConflict(err error) error {
	if !dbpkg.IsUniqueViolation(err, "") {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	case strings.Contains(msg, "username"):
		return pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
	case strings.Contains(msg, "phone"):
		return pkgerrors.New(pkgerrors.CodeConflict, "phone already registered")
	default:
		return pkgerrors.New(pkgerrors.CodeConflict, "account already exists")
	}
}
