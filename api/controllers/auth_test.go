package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/oneclickretail/oneclick-backend/internal/users"
	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	"github.com/oneclickretail/oneclick-backend/pkg/enums"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
)

type stubUsersService struct {
	result   *users.AuthResult
	err      error
	user     *models.User
	lastUser uuid.UUID
}

func (s *stubUsersService) Register(_ context.Context, _ users.RegisterInput) (*users.AuthResult, error) {
	return s.result, s.err
}

func (s *stubUsersService) Login(_ context.Context, _ users.LoginInput) (*users.AuthResult, error) {
	return s.result, s.err
}

func (s *stubUsersService) StaffLogin(_ context.Context, _ users.StaffLoginInput) (*users.AuthResult, error) {
	return s.result, s.err
}

func (s *stubUsersService) Me(_ context.Context, userID uuid.UUID) (*models.User, error) {
	s.lastUser = userID
	return s.user, s.err
}

func TestAuthRegisterReturnsTokenAndUser(t *testing.T) {
	user := &models.User{ID: uuid.New(), UserNumber: 42, Username: "ravi", Email: "ravi@example.com", Phone: "9000000001"}
	svc := &stubUsersService{result: &users.AuthResult{AccessToken: "token-abc", User: user}}
	handler := AuthRegister(svc, nil)

	body := `{"username":"ravi","email":"ravi@example.com","phone":"9000000001","password":"supersecret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data authResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "token-abc" {
		t.Fatalf("unexpected token: %s", envelope.Data.AccessToken)
	}
	if envelope.Data.User == nil || envelope.Data.User.PublicID != "usr000042" {
		t.Fatalf("unexpected user payload: %+v", envelope.Data.User)
	}
}

func TestAuthRegisterRejectsShortPassword(t *testing.T) {
	handler := AuthRegister(&stubUsersService{}, nil)

	body := `{"username":"ravi","email":"ravi@example.com","phone":"9000000001","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	svc := &stubUsersService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := AuthLogin(svc, nil)

	body := `{"email":"ravi@example.com","password":"wrongpass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminAuthLoginReturnsStaff(t *testing.T) {
	staff := &models.StaffAccount{ID: uuid.New(), Username: "ops", Role: enums.RoleAdmin}
	svc := &stubUsersService{result: &users.AuthResult{AccessToken: "staff-token", Staff: staff}}
	handler := AdminAuthLogin(svc, nil)

	body := `{"username":"ops","password":"adminpass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/login", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data authResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Staff == nil || envelope.Data.Staff.Role != string(enums.RoleAdmin) {
		t.Fatalf("unexpected staff payload: %+v", envelope.Data.Staff)
	}
}
