package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/oneclickretail/oneclick-backend/api/middleware"
	"github.com/oneclickretail/oneclick-backend/pkg/enums"
	pkgerrors "github.com/oneclickretail/oneclick-backend/pkg/errors"
)

// authedUserID pulls the authenticated user id from the request context.
func authedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	uid, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return uid, nil
}

func isStaff(r *http.Request) bool {
	return middleware.RoleFromContext(r.Context()) == string(enums.RoleAdmin)
}
