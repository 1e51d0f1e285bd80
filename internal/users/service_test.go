package users

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oneclickretail/oneclick-backend/pkg/config"
	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	"github.com/oneclickretail/oneclick-backend/pkg/enums"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
	"github.com/oneclickretail/oneclick-backend/pkg/outbox"
)

type stubUsersRepo struct {
	created    *models.User
	createErr  error
	userByMail *models.User
	staff      *models.StaffAccount
}

func (s *stubUsersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubUsersRepo) CreateUser(_ context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = user
	return nil
}

func (s *stubUsersRepo) FindUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.created != nil && s.created.ID == id {
		return s.created, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	if s.userByMail != nil && s.userByMail.Email == email {
		return s.userByMail, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) FindStaffByUsername(_ context.Context, username string) (*models.StaffAccount, error) {
	if s.staff != nil && s.staff.Username == username {
		return s.staff, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutboxPublisher struct {
	event  outbox.DomainEvent
	called bool
}

func (s *stubOutboxPublisher) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.called = true
	s.event = event
	return nil
}

type stubNotifier struct {
	types    []enums.NotificationType
	messages []string
}

func (s *stubNotifier) Create(_ context.Context, _ *gorm.DB, notificationType enums.NotificationType, message string) error {
	s.types = append(s.types, notificationType)
	s.messages = append(s.messages, message)
	return nil
}

func (s *stubNotifier) List(context.Context) ([]models.Notification, error) { return nil, nil }
func (s *stubNotifier) MarkRead(context.Context, uuid.UUID) error           { return nil }
func (s *stubNotifier) MarkAllRead(context.Context) error                   { return nil }
func (s *stubNotifier) PurgeStale(context.Context) (int64, error)           { return 0, nil }

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "oneclick", ExpirationMinutes: 30}
}

func newTestService(t *testing.T, repo *stubUsersRepo, ob *stubOutboxPublisher, notifier *stubNotifier) *service {
	t.Helper()

	svc, err := NewService(repo, stubTxRunner{}, ob, notifier, testJWTConfig(), config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	require.NoError(t, err)
	return svc.(*service)
}

func TestRegisterCreatesUserNotificationAndEvent(t *testing.T) {
	repo := &stubUsersRepo{}
	ob := &stubOutboxPublisher{}
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, ob, notifier)

	result, err := svc.Register(context.Background(), RegisterInput{
		Username: "ravi",
		Email:    "Ravi@Example.com",
		Phone:    "9876543210",
		Password: "longenough",
	})
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.NotEmpty(t, result.AccessToken)

	require.NotNil(t, repo.created)
	assert.Equal(t, "ravi@example.com", repo.created.Email)
	assert.NotEqual(t, "longenough", repo.created.PasswordHash)

	require.Len(t, notifier.types, 1)
	assert.Equal(t, enums.NotificationTypeSignup, notifier.types[0])

	require.True(t, ob.called)
	assert.Equal(t, enums.EventUserRegistered, ob.event.EventType)
	assert.Equal(t, enums.AggregateUser, ob.event.AggregateType)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, &stubUsersRepo{}, &stubOutboxPublisher{}, &stubNotifier{})

	_, err := svc.Register(context.Background(), RegisterInput{Username: "x", Email: "", Phone: "1", Password: "longenough"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Register(context.Background(), RegisterInput{Username: "x", Email: "a@b.c", Phone: "1", Password: "short"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &stubUsersRepo{
		createErr: errors.New(`duplicate key value violates unique constraint "users_email_key"`),
	}
	svc := newTestService(t, repo, &stubOutboxPublisher{}, &stubNotifier{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "ravi",
		Email:    "ravi@example.com",
		Phone:    "9876543210",
		Password: "longenough",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "email already registered", typed.Message())
}

func TestLoginVerifiesPassword(t *testing.T) {
	repo := &stubUsersRepo{}
	ob := &stubOutboxPublisher{}
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, ob, notifier)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Username: "ravi",
		Email:    "ravi@example.com",
		Phone:    "9876543210",
		Password: "longenough",
	})
	require.NoError(t, err)
	repo.userByMail = registered.User

	result, err := svc.Login(context.Background(), LoginInput{Email: "ravi@example.com", Password: "longenough"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)

	_, err = svc.Login(context.Background(), LoginInput{Email: "ravi@example.com", Password: "wrong-pass"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(t, &stubUsersRepo{}, &stubOutboxPublisher{}, &stubNotifier{})

	_, err := svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestStaffLogin(t *testing.T) {
	repo := &stubUsersRepo{}
	svc := newTestService(t, repo, &stubOutboxPublisher{}, &stubNotifier{})

	hash, err := svc.hashPassword("admin-pass", svc.passwordCfg)
	require.NoError(t, err)
	repo.staff = &models.StaffAccount{
		ID:           uuid.New(),
		Username:     "ops",
		PasswordHash: hash,
		Role:         enums.RoleAdmin,
	}

	result, err := svc.StaffLogin(context.Background(), StaffLoginInput{Username: "ops", Password: "admin-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	require.NotNil(t, result.Staff)

	_, err = svc.StaffLogin(context.Background(), StaffLoginInput{Username: "ops", Password: "bad"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}
